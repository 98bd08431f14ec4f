// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fedora

import (
	"net/http"
	"testing"

	"github.com/internetofwater/fcrepo/internal/common"
	"github.com/internetofwater/fcrepo/internal/graph"
)

// an api backed by canned responses; unmocked requests fail
func newMockedApi(t *testing.T, mocks map[string]common.MockResponse) (*Api, *common.MockTransport) {
	t.Helper()
	transport := common.NewMockTransport(true, mocks)
	requester := NewHttpRequester(&http.Client{Transport: transport}, "", "", "")
	return NewApi(base, requester, graph.NewCodec()), transport
}

func newMockedClient(t *testing.T, mocks map[string]common.MockResponse) (*Client, *common.MockTransport) {
	t.Helper()
	api, transport := newMockedApi(t, mocks)
	return NewClient(api, nil), transport
}

func status(code int) common.MockResponse {
	return common.MockResponse{StatusCode: code}
}

func withHeader(code int, name, value string) common.MockResponse {
	header := http.Header{}
	header.Set(name, value)
	return common.MockResponse{StatusCode: code, Header: header}
}
