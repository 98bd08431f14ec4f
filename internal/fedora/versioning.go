// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fedora

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"
)

// GetTimemapUri finds the timemap of a resource by issuing a HEAD request and
// reading the Link entry with rel="timemap". Returns ErrNoTimemap when the
// resource does not advertise one.
func (a *Api) GetTimemapUri(ctx context.Context, uri string, headers http.Header, transaction string) (string, error) {
	resourceUri := a.ResolveUri(uri, transaction)
	resp, err := a.send(ctx, http.MethodHead, resourceUri, headers, nil)
	if err != nil {
		return "", err
	}

	for _, link := range ParseLinkHeader(resp.HeaderValues("Link")) {
		if !link.HasRel("timemap") {
			continue
		}
		return absoluteFrom(resourceUri, link.Uri), nil
	}

	log.Warnf("resource %s (status %d) has no timemap link", resourceUri, resp.StatusCode)
	return "", fmt.Errorf("%w: %s", ErrNoTimemap, resourceUri)
}

// CreateVersion creates a new memento of a resource by posting to its timemap.
// The Memento-Datetime header and body are only sent when both timestamp and
// content are given; otherwise the server versions the current state.
func (a *Api) CreateVersion(ctx context.Context, uri, timestamp string, content io.Reader, headers http.Header, transaction string) (*Response, error) {
	timemapUri, err := a.GetTimemapUri(ctx, uri, headers, transaction)
	if err != nil {
		return nil, fmt.Errorf("cannot create version: %w", err)
	}

	headers = cloneHeaders(headers)
	var body io.Reader
	if timestamp != "" && content != nil {
		headers.Set("Memento-Datetime", timestamp)
		body = content
	}
	return a.send(ctx, http.MethodPost, timemapUri, headers, body)
}

// GetVersions fetches the timemap of a resource, which lists its mementos
func (a *Api) GetVersions(ctx context.Context, uri string, headers http.Header, transaction string) (*Response, error) {
	timemapUri, err := a.GetTimemapUri(ctx, uri, headers, transaction)
	if err != nil {
		return nil, fmt.Errorf("cannot get versions: %w", err)
	}
	return a.send(ctx, http.MethodGet, timemapUri, headers, nil)
}

// link targets are normally absolute but a relative one is
// resolved against the uri it was advertised on
func absoluteFrom(base, target string) string {
	targetUrl, err := url.Parse(target)
	if err != nil || targetUrl.IsAbs() {
		return target
	}
	baseUrl, err := url.Parse(base)
	if err != nil {
		return target
	}
	return baseUrl.ResolveReference(targetUrl).String()
}
