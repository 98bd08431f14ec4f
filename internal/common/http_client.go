// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

const DefaultTimeout = 90 * time.Second

type MockResponse struct {
	File       string
	Body       string
	StatusCode int
	Header     http.Header
	// If true, the request fails before any
	// response is received, like a refused connection
	Fail bool
}

// A request seen by the MockTransport
type RecordedRequest struct {
	Method string
	Url    string
	Header http.Header
	Body   string
}

type MockTransport struct {
	// Deny requests that are not mocked
	denyReqNotMocked bool
	transport        http.RoundTripper
	// keyed by "METHOD url" or just "url" to match any method
	urlToMock map[string]MockResponse

	mu       sync.Mutex
	requests []RecordedRequest
}

// If the request is mocked, return the associated response and record the request
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {

	fullUrl := req.URL.String()

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
	}

	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method: req.Method,
		Url:    fullUrl,
		Header: req.Header.Clone(),
		Body:   string(body),
	})
	m.mu.Unlock()

	associatedMock, ok := m.urlToMock[req.Method+" "+fullUrl]
	if !ok {
		associatedMock, ok = m.urlToMock[fullUrl]
	}

	if ok {
		if associatedMock.Fail {
			return nil, fmt.Errorf("mocked a connection failure for %s", fullUrl)
		}

		header := associatedMock.Header.Clone()
		if header == nil {
			header = http.Header{}
		}

		var respBody io.ReadCloser = http.NoBody
		if associatedMock.File != "" {
			mockedContent, err := os.Open(associatedMock.File)
			if err != nil {
				return nil, err
			}
			respBody = mockedContent
		} else if associatedMock.Body != "" {
			respBody = io.NopCloser(strings.NewReader(associatedMock.Body))
		}

		return &http.Response{
			StatusCode: associatedMock.StatusCode,
			Status:     fmt.Sprintf("%d %s", associatedMock.StatusCode, http.StatusText(associatedMock.StatusCode)),
			Body:       respBody,
			Header:     header,
			Request:    req,
		}, nil
	}
	if m.denyReqNotMocked {
		return nil, fmt.Errorf("request not mocked: %s %s", req.Method, fullUrl)
	}

	if len(body) > 0 {
		req.Body = io.NopCloser(bytes.NewReader(body))
	}
	return m.transport.RoundTrip(req)
}

// All requests seen so far, in order
func (m *MockTransport) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// NewMockTransport returns a transport with mocked responses
// if strictMode is true, all http requests that are not mocked will return an error
func NewMockTransport(strictMode bool, urlToMock map[string]MockResponse) *MockTransport {
	return &MockTransport{
		transport:        newLongLivedHttpTransport(),
		urlToMock:        urlToMock,
		denyReqNotMocked: strictMode,
	}
}

// NewMockedClient returns an http client with mocked responses
func NewMockedClient(strictMode bool, urlToMock map[string]MockResponse) *http.Client {
	return newClientFromRoundTrip(NewMockTransport(strictMode, urlToMock), DefaultTimeout)
}

// An http transport optimized for long-lived connections
func newLongLivedHttpTransport() http.RoundTripper {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          0,
		MaxIdleConnsPerHost:   0,
		MaxConnsPerHost:       0,
		IdleConnTimeout:       120 * time.Second,
		TLSHandshakeTimeout:   20 * time.Second,
		ExpectContinueTimeout: 2 * time.Second,
		DisableKeepAlives:     false,
		ForceAttemptHTTP2:     true,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			span := trace.SpanFromContext(ctx)
			if span != nil {
				span.AddEvent("HTTP connection")
			}
			return net.DialTimeout(network, addr, 30*time.Second)
		},
	}
}

// An http client that records redirects as span events
func newClientFromRoundTrip(transport http.RoundTripper, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			span := trace.SpanFromContext(req.Context())
			if span != nil {
				span.AddEvent("HTTP redirect")
			}
			return nil
		},
	}
}

// NewRepositoryHttpClient returns the http client used to talk to the repository.
// When retries is positive, connection errors and 5xx responses are retried
// with backoff; once retries run out the last response is still returned as
// is so callers can inspect the status themselves.
func NewRepositoryHttpClient(timeout time.Duration, retries int) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := otelhttp.NewTransport(newLongLivedHttpTransport())
	if retries <= 0 {
		return newClientFromRoundTrip(transport, timeout)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retries
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	// don't spam in the logs with DEBUG messages
	// we should define logs in the application
	// not the library level
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient = newClientFromRoundTrip(transport, timeout)

	return retryClient.StandardClient()
}
