// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fedora

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/internetofwater/fcrepo/internal/common"
	"github.com/internetofwater/fcrepo/internal/graph"
)

// Replace the rdf of the resource at uri with the graph, sent as turtle
func (a *Api) SaveGraph(ctx context.Context, g *graph.Graph, uri string, headers http.Header, transaction string) (*Response, error) {
	turtle, headers, err := a.turtleWithDigest(g, headers)
	if err != nil {
		return nil, err
	}
	return a.SaveResource(ctx, uri, strings.NewReader(turtle), headers, transaction)
}

// Create a new child resource of uri whose rdf is the graph, sent as turtle
func (a *Api) CreateGraph(ctx context.Context, g *graph.Graph, uri string, headers http.Header, transaction string) (*Response, error) {
	turtle, headers, err := a.turtleWithDigest(g, headers)
	if err != nil {
		return nil, err
	}
	return a.CreateResource(ctx, uri, strings.NewReader(turtle), headers, transaction)
}

// the digest lets the server check it received exactly what we serialized
func (a *Api) turtleWithDigest(g *graph.Graph, headers http.Header) (string, http.Header, error) {
	turtle, err := a.codec.SerializeTurtle(g)
	if err != nil {
		return "", nil, fmt.Errorf("failed to serialize graph as turtle: %w", err)
	}
	checksum := common.Sha1Hex(turtle)

	headers = cloneHeaders(headers)
	headers.Set("Content-Type", "text/turtle")
	headers.Set("Digest", "sha1="+checksum)
	return turtle, headers, nil
}

// GetGraph parses the JSON-LD body of a response. An empty body is an empty graph.
func (a *Api) GetGraph(resp *Response) (*graph.Graph, error) {
	if resp == nil || strings.TrimSpace(resp.Text()) == "" {
		return graph.New(), nil
	}
	g, err := a.codec.ParseJSONLD(resp.Text())
	if err != nil {
		return nil, fmt.Errorf("failed to parse response as JSON-LD: %w", err)
	}
	return g, nil
}
