// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package triplestore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/internetofwater/fcrepo/internal/common"
	"github.com/internetofwater/fcrepo/internal/config"
	"github.com/internetofwater/fcrepo/internal/opentelemetry"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
)

const sparqlResultsJson = "application/sparql-results+json"

// Term is one bound value in a sparql result row
type Term struct {
	// uri, literal, or bnode
	Type     string
	Value    string
	Lang     string
	Datatype string
}

// Result of a sparql query. SELECT queries fill Variables and Bindings;
// ASK queries set Boolean.
type Result struct {
	Variables []string
	Bindings  []map[string]Term
	Boolean   *bool
}

// Values of one variable across all rows, skipping rows where it is unbound
func (r *Result) Values(variable string) []string {
	var values []string
	for _, row := range r.Bindings {
		if term, ok := row[variable]; ok {
			values = append(values, term.Value)
		}
	}
	return values
}

// Client sends sparql queries to a triplestore's query endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(endpoint string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid sparql endpoint %s: %w", endpoint, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("sparql endpoint %s must be an absolute url", endpoint)
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}, nil
}

func NewClientFromConfig(conf config.SparqlConfig) (*Client, error) {
	return NewClient(conf.Endpoint, common.NewRepositoryHttpClient(common.DefaultTimeout, 0))
}

// Query posts sparql to the endpoint with the query in the url parameters
// and parses the json results. Any non-2xx status is an error.
func (c *Client) Query(ctx context.Context, sparql string) (*Result, error) {
	span, ctx := opentelemetry.SubSpanFromCtxWithName(ctx, "sparql query")
	defer span.End()

	queryUrl, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, err
	}
	params := queryUrl.Query()
	params.Set("format", "json")
	params.Set("query", sparql)
	queryUrl.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, queryUrl.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", sparqlResultsJson)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sparql response: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sparql query failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	log.Debugf("sparql query returned %d bytes", len(body))

	return ParseResults(body)
}

// ParseResults reads a application/sparql-results+json document
func ParseResults(body []byte) (*Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("sparql response is not valid json: %.200s", string(body))
	}
	parsed := gjson.ParseBytes(body)
	result := &Result{}

	if boolean := parsed.Get("boolean"); boolean.Exists() {
		value := boolean.Bool()
		result.Boolean = &value
		return result, nil
	}

	if !parsed.Get("results").Exists() {
		return nil, fmt.Errorf("sparql response has neither results nor a boolean")
	}

	parsed.Get("head.vars").ForEach(func(_, variable gjson.Result) bool {
		result.Variables = append(result.Variables, variable.String())
		return true
	})

	parsed.Get("results.bindings").ForEach(func(_, row gjson.Result) bool {
		binding := map[string]Term{}
		row.ForEach(func(variable, value gjson.Result) bool {
			binding[variable.String()] = parseTerm(value)
			return true
		})
		result.Bindings = append(result.Bindings, binding)
		return true
	})

	return result, nil
}

func parseTerm(value gjson.Result) Term {
	term := Term{}
	value.ForEach(func(key, field gjson.Result) bool {
		switch key.String() {
		case "type":
			term.Type = field.String()
		case "value":
			term.Value = field.String()
		case "xml:lang":
			term.Lang = field.String()
		case "datatype":
			term.Datatype = field.String()
		}
		return true
	})
	return term
}
