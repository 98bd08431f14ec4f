// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fedora

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/internetofwater/fcrepo/internal/opentelemetry"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RequestOptions are the optional parts of a single repository request
type RequestOptions struct {
	Headers http.Header
	// nil means the request has no body
	Body io.Reader
}

// Requester issues exactly one request and returns whatever the server
// answered. A non-2xx status is a normal response, not an error; only
// failures to talk to the server are returned as errors.
type Requester interface {
	Request(ctx context.Context, method, uri string, opts RequestOptions) (*Response, error)
}

// Anything that can send an http request; *http.Client satisfies this
type HttpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HttpRequester is the Requester used against a live repository
type HttpRequester struct {
	client    HttpDoer
	username  string
	password  string
	userAgent string
}

// NewHttpRequester wraps client. When username is set every request carries
// basic auth credentials; when userAgent is set it is sent unless the caller
// supplied its own User-Agent header.
func NewHttpRequester(client HttpDoer, username, password, userAgent string) *HttpRequester {
	return &HttpRequester{
		client:    client,
		username:  username,
		password:  password,
		userAgent: userAgent,
	}
}

func (h *HttpRequester) Request(ctx context.Context, method, uri string, opts RequestOptions) (*Response, error) {
	span, ctx := opentelemetry.SubSpanFromCtxWithName(ctx, "fedora "+method)
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("http.url", uri))

	req, err := http.NewRequestWithContext(ctx, method, uri, opts.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request for %s: %w", method, uri, err)
	}
	for name, values := range opts.Headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	if h.username != "" {
		req.SetBasicAuth(h.username, h.password)
	}
	if h.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		opentelemetry.RecordRequest(ctx, method, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body of %s %s: %w", method, uri, err)
	}
	opentelemetry.RecordRequest(ctx, method, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	log.Debugf("%s %s -> %d", method, uri, resp.StatusCode)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
