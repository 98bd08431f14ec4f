// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fedora

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/internetofwater/fcrepo/internal/graph"

	log "github.com/sirupsen/logrus"
)

// Client wraps Api and maps each response status to a simpler result.
// Anything other than the one success status for an operation becomes
// a missing value or false; the status and headers are discarded.
// Transport failures are still returned as errors. Use Api directly
// when the status matters.
type Client struct {
	api   *Api
	cache TransactionCache

	mu sync.Mutex
	// open transactions begun or resumed through this client, by id
	transactions map[string]*Transaction
}

// NewClient wraps api. cache may be nil; when set, transactions begun or
// resumed through this client clear their cache entries when they end,
// including when an operation run inside one finds it expired.
func NewClient(api *Api, cache TransactionCache) *Client {
	return &Client{api: api, cache: cache, transactions: map[string]*Transaction{}}
}

func (c *Client) Api() *Api {
	return c.api
}

func (c *Client) BaseUri() string {
	return c.api.BaseUri()
}

// true when resp has the given status; logs the miss otherwise
func succeeded(resp *Response, operation string, status int) bool {
	if resp.StatusCode == status {
		return true
	}
	log.Debugf("%s returned status %d, expected %d", operation, resp.StatusCode, status)
	return false
}

// the Location header of a response with the given status
func locationOn(resp *Response, operation string, status int) (string, bool) {
	if !succeeded(resp, operation, status) {
		return "", false
	}
	return resp.Location(), true
}

// Get the content of a resource; not found when the status is anything but 200
func (c *Client) GetResource(ctx context.Context, uri string, headers http.Header, transaction string) (string, bool, error) {
	resp, err := c.api.GetResource(ctx, uri, headers, transaction)
	if err != nil {
		return "", false, err
	}
	c.observe(ctx, transaction, resp)
	if !succeeded(resp, "getResource", http.StatusOK) {
		return "", false, nil
	}
	return resp.Text(), true, nil
}

func (c *Client) GetResourceHeaders(ctx context.Context, uri string, headers http.Header, transaction string) (http.Header, bool, error) {
	resp, err := c.api.GetResourceHeaders(ctx, uri, headers, transaction)
	if err != nil {
		return nil, false, err
	}
	c.observe(ctx, transaction, resp)
	if !succeeded(resp, "getResourceHeaders", http.StatusOK) {
		return nil, false, nil
	}
	return resp.Header, true, nil
}

func (c *Client) GetResourceOptions(ctx context.Context, uri string, headers http.Header, transaction string) (http.Header, bool, error) {
	resp, err := c.api.GetResourceOptions(ctx, uri, headers, transaction)
	if err != nil {
		return nil, false, err
	}
	c.observe(ctx, transaction, resp)
	if !succeeded(resp, "getResourceOptions", http.StatusOK) {
		return nil, false, nil
	}
	return resp.Header, true, nil
}

// GetGraph fetches a resource as JSON-LD and parses it. A missing
// resource or an empty body is reported as not found.
func (c *Client) GetGraph(ctx context.Context, uri string, headers http.Header, transaction string) (*graph.Graph, bool, error) {
	headers = cloneHeaders(headers)
	headers.Set("Accept", "application/ld+json")
	rdf, found, err := c.GetResource(ctx, uri, headers, transaction)
	if err != nil || !found || strings.TrimSpace(rdf) == "" {
		return nil, false, err
	}
	g, err := c.api.GetGraph(&Response{StatusCode: http.StatusOK, Body: []byte(rdf)})
	if err != nil {
		return nil, false, err
	}
	return g, true, nil
}

// Create a resource and return its uri
func (c *Client) CreateResource(ctx context.Context, uri string, content io.Reader, headers http.Header, transaction string) (string, bool, error) {
	resp, err := c.api.CreateResource(ctx, uri, content, headers, transaction)
	if err != nil {
		return "", false, err
	}
	c.observe(ctx, transaction, resp)
	location, ok := locationOn(resp, "createResource", http.StatusCreated)
	return location, ok, nil
}

func (c *Client) SaveResource(ctx context.Context, uri string, content io.Reader, headers http.Header, transaction string) (bool, error) {
	resp, err := c.api.SaveResource(ctx, uri, content, headers, transaction)
	if err != nil {
		return false, err
	}
	c.observe(ctx, transaction, resp)
	return succeeded(resp, "saveResource", http.StatusNoContent), nil
}

func (c *Client) CreateGraph(ctx context.Context, g *graph.Graph, uri string, headers http.Header, transaction string) (string, bool, error) {
	resp, err := c.api.CreateGraph(ctx, g, uri, headers, transaction)
	if err != nil {
		return "", false, err
	}
	c.observe(ctx, transaction, resp)
	location, ok := locationOn(resp, "createGraph", http.StatusCreated)
	return location, ok, nil
}

func (c *Client) SaveGraph(ctx context.Context, g *graph.Graph, uri string, headers http.Header, transaction string) (bool, error) {
	resp, err := c.api.SaveGraph(ctx, g, uri, headers, transaction)
	if err != nil {
		return false, err
	}
	c.observe(ctx, transaction, resp)
	return succeeded(resp, "saveGraph", http.StatusNoContent), nil
}

func (c *Client) ModifyResource(ctx context.Context, uri, sparql string, headers http.Header, transaction string) (bool, error) {
	resp, err := c.api.ModifyResource(ctx, uri, sparql, headers, transaction)
	if err != nil {
		return false, err
	}
	c.observe(ctx, transaction, resp)
	return succeeded(resp, "modifyResource", http.StatusNoContent), nil
}

func (c *Client) DeleteResource(ctx context.Context, uri string, headers http.Header, transaction string) (bool, error) {
	resp, err := c.api.DeleteResource(ctx, uri, headers, transaction)
	if err != nil {
		return false, err
	}
	c.observe(ctx, transaction, resp)
	return succeeded(resp, "deleteResource", http.StatusNoContent), nil
}

// Copy a resource and return the uri of the copy
func (c *Client) CopyResource(ctx context.Context, uri, destination string, headers http.Header, transaction string) (string, bool, error) {
	resp, err := c.api.CopyResource(ctx, uri, destination, headers, transaction)
	if err != nil {
		return "", false, err
	}
	c.observe(ctx, transaction, resp)
	location, ok := locationOn(resp, "copyResource", http.StatusCreated)
	return location, ok, nil
}

// Move a resource and return its new uri
func (c *Client) MoveResource(ctx context.Context, uri, destination string, headers http.Header, transaction string) (string, bool, error) {
	resp, err := c.api.MoveResource(ctx, uri, destination, headers, transaction)
	if err != nil {
		return "", false, err
	}
	c.observe(ctx, transaction, resp)
	location, ok := locationOn(resp, "moveResource", http.StatusCreated)
	return location, ok, nil
}

// Create a transaction and return its id, e.g. tx:abc-123
func (c *Client) CreateTransaction(ctx context.Context) (string, bool, error) {
	resp, err := c.api.CreateTransaction(ctx, nil)
	if err != nil {
		return "", false, err
	}
	location, ok := locationOn(resp, "createTransaction", http.StatusCreated)
	if !ok {
		return "", false, nil
	}
	id, ok := TransactionIdFromLocation(location)
	return id, ok, nil
}

func (c *Client) ExtendTransaction(ctx context.Context, id string) (bool, error) {
	resp, err := c.api.ExtendTransaction(ctx, id, nil)
	if err != nil {
		return false, err
	}
	c.observe(ctx, id, resp)
	return succeeded(resp, "extendTransaction", http.StatusNoContent), nil
}

func (c *Client) CommitTransaction(ctx context.Context, id string) (bool, error) {
	resp, err := c.api.CommitTransaction(ctx, id, nil)
	if err != nil {
		return false, err
	}
	c.observe(ctx, id, resp)
	return succeeded(resp, "commitTransaction", http.StatusNoContent), nil
}

func (c *Client) RollbackTransaction(ctx context.Context, id string) (bool, error) {
	resp, err := c.api.RollbackTransaction(ctx, id, nil)
	if err != nil {
		return false, err
	}
	c.observe(ctx, id, resp)
	return succeeded(resp, "rollbackTransaction", http.StatusNoContent), nil
}

// Create a memento of a resource and return its uri. A missing timemap is an error.
func (c *Client) CreateVersion(ctx context.Context, uri, timestamp string, content io.Reader, headers http.Header, transaction string) (string, bool, error) {
	resp, err := c.api.CreateVersion(ctx, uri, timestamp, content, headers, transaction)
	if err != nil {
		return "", false, err
	}
	c.observe(ctx, transaction, resp)
	location, ok := locationOn(resp, "createVersion", http.StatusCreated)
	return location, ok, nil
}

// Get the body of a resource's timemap. A missing timemap is an error.
func (c *Client) GetVersions(ctx context.Context, uri string, headers http.Header, transaction string) (string, bool, error) {
	resp, err := c.api.GetVersions(ctx, uri, headers, transaction)
	if err != nil {
		return "", false, err
	}
	c.observe(ctx, transaction, resp)
	if !succeeded(resp, "getVersions", http.StatusOK) {
		return "", false, nil
	}
	return resp.Text(), true, nil
}
