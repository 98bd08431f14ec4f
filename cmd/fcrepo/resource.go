// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"

	"github.com/internetofwater/fcrepo/internal/config"
	"github.com/internetofwater/fcrepo/internal/fedora"
	log "github.com/sirupsen/logrus"
)

// print a response the way it came off the wire
func (f FcrepoRunner) printResponse(resp *fedora.Response) {
	fmt.Fprintf(f.out, "%d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	f.printHeaders(resp.Header)
	if len(resp.Body) > 0 {
		fmt.Fprintln(f.out)
		_, _ = f.out.Write(resp.Body)
		fmt.Fprintln(f.out)
	}
}

func (f FcrepoRunner) printHeaders(header http.Header) {
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range header[name] {
			fmt.Fprintf(f.out, "%s: %s\n", name, value)
		}
	}
}

// open the file to send as a request body; no file means no body
func openContent(file string) (io.ReadCloser, error) {
	if file == "" {
		return nil, nil
	}
	return os.Open(file)
}

func contentHeaders(contentType string) http.Header {
	header := http.Header{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return header
}

func (f FcrepoRunner) get(ctx context.Context, client *fedora.Client) error {
	cmd := f.args.Get
	headers := http.Header{}
	if cmd.Accept != "" {
		headers.Set("Accept", cmd.Accept)
	}

	if f.args.Raw {
		resp, err := client.Api().GetResource(ctx, cmd.Uri, headers, f.args.Transaction)
		if err != nil {
			return err
		}
		f.printResponse(resp)
		return nil
	}

	body, found, err := client.GetResource(ctx, cmd.Uri, headers, f.args.Transaction)
	if err != nil {
		return err
	}
	if !found {
		return unsuccessful("get", cmd.Uri)
	}
	fmt.Fprint(f.out, body)
	return nil
}

func (f FcrepoRunner) head(ctx context.Context, client *fedora.Client) error {
	uri := f.args.Head.Uri
	if f.args.Raw {
		resp, err := client.Api().GetResourceHeaders(ctx, uri, nil, f.args.Transaction)
		if err != nil {
			return err
		}
		f.printResponse(resp)
		return nil
	}

	headers, found, err := client.GetResourceHeaders(ctx, uri, nil, f.args.Transaction)
	if err != nil {
		return err
	}
	if !found {
		return unsuccessful("head", uri)
	}
	f.printHeaders(headers)
	return nil
}

func (f FcrepoRunner) options(ctx context.Context, client *fedora.Client) error {
	uri := f.args.Options.Uri
	if f.args.Raw {
		resp, err := client.Api().GetResourceOptions(ctx, uri, nil, f.args.Transaction)
		if err != nil {
			return err
		}
		f.printResponse(resp)
		return nil
	}

	headers, found, err := client.GetResourceOptions(ctx, uri, nil, f.args.Transaction)
	if err != nil {
		return err
	}
	if !found {
		return unsuccessful("options", uri)
	}
	f.printHeaders(headers)
	return nil
}

// create prints the uri of the new resource. Inside a transaction with a
// key cache it also mints a uuid for the resource and prints it.
func (f FcrepoRunner) create(ctx context.Context, client *fedora.Client, cache uuidCache, uuidConf config.UuidConfig) error {
	cmd := f.args.Create
	content, err := openContent(cmd.File)
	if err != nil {
		return err
	}
	var body io.Reader
	if content != nil {
		defer content.Close()
		body = content
	}

	var location string
	if f.args.Raw {
		resp, err := client.Api().CreateResource(ctx, cmd.Uri, body, contentHeaders(cmd.ContentType), f.args.Transaction)
		if err != nil {
			return err
		}
		f.printResponse(resp)
		if resp.StatusCode != http.StatusCreated {
			return nil
		}
		location = resp.Location()
	} else {
		created, ok, err := client.CreateResource(ctx, cmd.Uri, body, contentHeaders(cmd.ContentType), f.args.Transaction)
		if err != nil {
			return err
		}
		if !ok {
			return unsuccessful("create", cmd.Uri)
		}
		location = created
		fmt.Fprintln(f.out, location)
	}

	if f.args.Transaction == "" || cache == nil {
		return nil
	}
	return f.rememberUuid(ctx, cache, uuidConf, location)
}

func (f FcrepoRunner) rememberUuid(ctx context.Context, cache uuidCache, uuidConf config.UuidConfig, location string) error {
	id, err := newUuidGenerator(uuidConf).GenerateV4()
	if err != nil {
		return err
	}
	added, err := cache.Set(ctx, f.args.Transaction, id, location)
	if err != nil {
		return err
	}
	if !added {
		log.Warnf("uuid %s was already cached in transaction %s", id, f.args.Transaction)
	}
	fmt.Fprintln(f.out, id)
	return nil
}

func (f FcrepoRunner) save(ctx context.Context, client *fedora.Client) error {
	cmd := f.args.Save
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
		resp, err := client.Api().SaveResource(ctx, cmd.Uri, body, contentHeaders(cmd.ContentType), f.args.Transaction)
		if err != nil {
			return err
		}
		f.printResponse(resp)
		return nil
	}

	saved, err := client.SaveResource(ctx, cmd.Uri, body, contentHeaders(cmd.ContentType), f.args.Transaction)
	if err != nil {
		return err
	}
	if !saved {
		return unsuccessful("save", cmd.Uri)
	}
	return nil
}

func (f FcrepoRunner) patch(ctx context.Context, client *fedora.Client) error {
	cmd := f.args.Patch
	if f.args.Raw {
		resp, err := client.Api().ModifyResource(ctx, cmd.Uri, cmd.Sparql, nil, f.args.Transaction)
		if err != nil {
			return err
		}
		f.printResponse(resp)
		return nil
	}

	modified, err := client.ModifyResource(ctx, cmd.Uri, cmd.Sparql, nil, f.args.Transaction)
	if err != nil {
		return err
	}
	if !modified {
		return unsuccessful("patch", cmd.Uri)
	}
	return nil
}

func (f FcrepoRunner) delete(ctx context.Context, client *fedora.Client) error {
	uri := f.args.Delete.Uri
	if f.args.Raw {
		resp, err := client.Api().DeleteResource(ctx, uri, nil, f.args.Transaction)
		if err != nil {
			return err
		}
		f.printResponse(resp)
		return nil
	}

	deleted, err := client.DeleteResource(ctx, uri, nil, f.args.Transaction)
	if err != nil {
		return err
	}
	if !deleted {
		return unsuccessful("delete", uri)
	}
	return nil
}

type rawRelocate func(ctx context.Context, uri, destination string, headers http.Header, transaction string) (*fedora.Response, error)
type relocate func(ctx context.Context, uri, destination string, headers http.Header, transaction string) (string, bool, error)

func (f FcrepoRunner) relocate(ctx context.Context, operation string, cmd RelocateCmd, raw rawRelocate, interpreted relocate) error {
	if f.args.Raw {
		resp, err := raw(ctx, cmd.Uri, cmd.Destination, nil, f.args.Transaction)
		if err != nil {
			return err
		}
		f.printResponse(resp)
		return nil
	}

	location, ok, err := interpreted(ctx, cmd.Uri, cmd.Destination, nil, f.args.Transaction)
	if err != nil {
		return err
	}
	if !ok {
		return unsuccessful(operation, cmd.Uri)
	}
	fmt.Fprintln(f.out, location)
	return nil
}
