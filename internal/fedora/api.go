// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fedora

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/internetofwater/fcrepo/internal/common"
	"github.com/internetofwater/fcrepo/internal/config"
	"github.com/internetofwater/fcrepo/internal/graph"
)

// The rdf capability the api needs to read and write graphs
type GraphCodec interface {
	ParseJSONLD(text string) (*graph.Graph, error)
	SerializeTurtle(g *graph.Graph) (string, error)
}

// Api exposes one method per repository action and returns the raw
// Response for every call. Statuses are never interpreted here; callers
// that want simpler results should use Client.
type Api struct {
	// base uri of the repository without a trailing slash
	baseUri   string
	requester Requester
	codec     GraphCodec
}

func NewApi(baseUri string, requester Requester, codec GraphCodec) *Api {
	return &Api{
		baseUri:   strings.TrimRight(strings.TrimSpace(baseUri), "/"),
		requester: requester,
		codec:     codec,
	}
}

// Create an api that talks to the repository described by the config
func NewApiFromConfig(conf config.FedoraConfig) (*Api, error) {
	parsed, err := url.Parse(strings.TrimSpace(conf.BaseUri))
	if err != nil {
		return nil, fmt.Errorf("invalid fedora base uri %q: %w", conf.BaseUri, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("fedora base uri %q must be absolute", conf.BaseUri)
	}
	httpClient := common.NewRepositoryHttpClient(conf.Timeout, conf.Retries)
	requester := NewHttpRequester(httpClient, conf.Username, conf.Password, conf.UserAgent)
	return NewApi(conf.BaseUri, requester, graph.NewCodec()), nil
}

// The base uri of the repository, e.g. http://localhost:8080/fcrepo/rest
func (a *Api) BaseUri() string {
	return a.baseUri
}

// Resolve uri against the repository base and the given transaction
func (a *Api) ResolveUri(uri, transaction string) string {
	return ResolveUri(a.baseUri, uri, transaction)
}

func (a *Api) send(ctx context.Context, method, uri string, headers http.Header, body io.Reader) (*Response, error) {
	return a.requester.Request(ctx, method, uri, RequestOptions{Headers: headers, Body: body})
}

func (a *Api) GetResource(ctx context.Context, uri string, headers http.Header, transaction string) (*Response, error) {
	return a.send(ctx, http.MethodGet, a.ResolveUri(uri, transaction), headers, nil)
}

func (a *Api) GetResourceHeaders(ctx context.Context, uri string, headers http.Header, transaction string) (*Response, error) {
	return a.send(ctx, http.MethodHead, a.ResolveUri(uri, transaction), headers, nil)
}

// Get the supported http methods and other options for a resource
func (a *Api) GetResourceOptions(ctx context.Context, uri string, headers http.Header, transaction string) (*Response, error) {
	return a.send(ctx, http.MethodOptions, a.ResolveUri(uri, transaction), headers, nil)
}

// Create a new child of uri; the server picks the new resource's uri
func (a *Api) CreateResource(ctx context.Context, uri string, content io.Reader, headers http.Header, transaction string) (*Response, error) {
	return a.send(ctx, http.MethodPost, a.ResolveUri(uri, transaction), headers, content)
}

// Create or replace the resource at uri
func (a *Api) SaveResource(ctx context.Context, uri string, content io.Reader, headers http.Header, transaction string) (*Response, error) {
	return a.send(ctx, http.MethodPut, a.ResolveUri(uri, transaction), headers, content)
}

// Modify a resource in place with a SPARQL Update statement
func (a *Api) ModifyResource(ctx context.Context, uri, sparql string, headers http.Header, transaction string) (*Response, error) {
	headers = cloneHeaders(headers)
	headers.Set("Content-Type", "application/sparql-update")
	return a.send(ctx, http.MethodPatch, a.ResolveUri(uri, transaction), headers, strings.NewReader(sparql))
}

func (a *Api) DeleteResource(ctx context.Context, uri string, headers http.Header, transaction string) (*Response, error) {
	return a.send(ctx, http.MethodDelete, a.ResolveUri(uri, transaction), headers, nil)
}

// Copy the resource at uri to destination, overwriting anything already there
func (a *Api) CopyResource(ctx context.Context, uri, destination string, headers http.Header, transaction string) (*Response, error) {
	return a.relocate(ctx, "COPY", uri, destination, headers, transaction)
}

// Move the resource at uri to destination, overwriting anything already there
func (a *Api) MoveResource(ctx context.Context, uri, destination string, headers http.Header, transaction string) (*Response, error) {
	return a.relocate(ctx, "MOVE", uri, destination, headers, transaction)
}

func (a *Api) relocate(ctx context.Context, method, uri, destination string, headers http.Header, transaction string) (*Response, error) {
	headers = cloneHeaders(headers)
	headers.Set("Destination", a.ResolveUri(destination, transaction))
	headers.Set("Overwrite", "T")
	return a.send(ctx, method, a.ResolveUri(uri, transaction), headers, nil)
}

// Open a new transaction. On success the Location header holds the
// transaction uri; see TransactionIdFromLocation.
func (a *Api) CreateTransaction(ctx context.Context, headers http.Header) (*Response, error) {
	return a.send(ctx, http.MethodPost, a.ResolveUri(TransactionSegment, ""), headers, nil)
}

// Keep a transaction alive. This targets base/id/fcr:tx, the same
// shape used by commit and rollback.
func (a *Api) ExtendTransaction(ctx context.Context, id string, headers http.Header) (*Response, error) {
	if id == "" {
		return nil, ErrEmptyTransactionId
	}
	return a.send(ctx, http.MethodPost, a.ResolveUri(TransactionSegment, id), headers, nil)
}

func (a *Api) CommitTransaction(ctx context.Context, id string, headers http.Header) (*Response, error) {
	if id == "" {
		return nil, ErrEmptyTransactionId
	}
	return a.send(ctx, http.MethodPost, a.ResolveUri(TransactionSegment+"/"+commitSegment, id), headers, nil)
}

func (a *Api) RollbackTransaction(ctx context.Context, id string, headers http.Header) (*Response, error) {
	if id == "" {
		return nil, ErrEmptyTransactionId
	}
	return a.send(ctx, http.MethodPost, a.ResolveUri(TransactionSegment+"/"+rollbackSegment, id), headers, nil)
}

// always hand the transport a header map we own so callers'
// maps are never mutated
func cloneHeaders(headers http.Header) http.Header {
	if headers == nil {
		return http.Header{}
	}
	return headers.Clone()
}
