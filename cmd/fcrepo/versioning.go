// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/internetofwater/fcrepo/internal/fedora"
)

func (f FcrepoRunner) timemap(ctx context.Context, client *fedora.Client) error {
	uri, err := client.Api().GetTimemapUri(ctx, f.args.Timemap.Uri, nil, f.args.Transaction)
	if err != nil {
		return err
	}
	fmt.Fprintln(f.out, uri)
	return nil
}

func (f FcrepoRunner) version(ctx context.Context, client *fedora.Client) error {
	cmd := f.args.Version
	content, err := openContent(cmd.File)
	if err != nil {
		return err
	}
	var body io.Reader
	if content != nil {
		defer content.Close()
		body = content
	}

	if f.args.Raw {
		resp, err := client.Api().CreateVersion(ctx, cmd.Uri, cmd.Timestamp, body, contentHeaders(cmd.ContentType), f.args.Transaction)
		if err != nil {
			return err
		}
		f.printResponse(resp)
		return nil
	}

	location, ok, err := client.CreateVersion(ctx, cmd.Uri, cmd.Timestamp, body, contentHeaders(cmd.ContentType), f.args.Transaction)
	if err != nil {
		return err
	}
	if !ok {
		return unsuccessful("version", cmd.Uri)
	}
	fmt.Fprintln(f.out, location)
	return nil
}

func (f FcrepoRunner) versions(ctx context.Context, client *fedora.Client) error {
	uri := f.args.Versions.Uri
	if f.args.Raw {
		resp, err := client.Api().GetVersions(ctx, uri, nil, f.args.Transaction)
		if err != nil {
			return err
		}
		f.printResponse(resp)
		return nil
	}

	body, ok, err := client.GetVersions(ctx, uri, nil, f.args.Transaction)
	if err != nil {
		return err
	}
	if !ok {
		return unsuccessful("versions", uri)
	}
	fmt.Fprint(f.out, body)
	return nil
}
