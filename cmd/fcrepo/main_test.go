// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	guuid "github.com/google/uuid"
	"github.com/internetofwater/fcrepo/internal/common"
	"github.com/stretchr/testify/require"
)

const base = "http://localhost:8080/fcrepo/rest"

type fakeCache struct {
	entries map[string]map[string]string
	deleted []string
	closed  bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]map[string]string{}}
}

func (f *fakeCache) Set(_ context.Context, transactionId, uuid, path string) (bool, error) {
	if f.entries[transactionId] == nil {
		f.entries[transactionId] = map[string]string{}
	}
	if _, ok := f.entries[transactionId][uuid]; ok {
		return false, nil
	}
	f.entries[transactionId][uuid] = path
	return true, nil
}

func (f *fakeCache) Delete(_ context.Context, transactionId string) error {
	f.deleted = append(f.deleted, transactionId)
	delete(f.entries, transactionId)
	return nil
}

func (f *fakeCache) Close() error {
	f.closed = true
	return nil
}

// run the cli against mocked responses and return what it printed
func runWithMocks(t *testing.T, args string, cache uuidCache, mocks map[string]common.MockResponse) (string, error) {
	t.Helper()
	runner, err := NewFcrepoRunner(strings.Fields(args))
	require.NoError(t, err)
	out := &bytes.Buffer{}
	runner.out = out
	runner.cache = cache
	err = runner.Run(context.Background(), common.NewMockedClient(true, mocks))
	return out.String(), err
}

func TestDefaultArgs(t *testing.T) {
	runner, err := NewFcrepoRunner([]string{"get", "obj"})
	require.NoError(t, err)
	require.Equal(t, base, runner.args.BaseUri)
	require.Equal(t, "fcrepo", runner.args.UserAgent)
	require.Equal(t, 90*time.Second, runner.args.Timeout)
	require.Equal(t, "islandora.ca", runner.args.Namespace)
	require.Equal(t, time.Hour, runner.args.TTL)
	require.Equal(t, "INFO", runner.args.LogLevel)
	require.Equal(t, "obj", runner.args.Get.Uri)
}

func TestNoSubcommand(t *testing.T) {
	_, err := NewFcrepoRunner([]string{"--log-level", "DEBUG"})
	require.ErrorContains(t, err, "no subcommand")
}

func TestMissingPositional(t *testing.T) {
	_, err := NewFcrepoRunner([]string{"copy", "only-one"})
	require.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := runWithMocks(t, "get obj --log-level LOUD", nil, nil)
	require.ErrorContains(t, err, "invalid log level")
}

func TestGet(t *testing.T) {
	out, err := runWithMocks(t, "get obj", nil, map[string]common.MockResponse{
		"GET " + base + "/obj": {StatusCode: http.StatusOK, Body: "SOME CONTENT"},
	})
	require.NoError(t, err)
	require.Equal(t, "SOME CONTENT", out)
}

func TestGetNotFound(t *testing.T) {
	_, err := runWithMocks(t, "get obj", nil, map[string]common.MockResponse{
		"GET " + base + "/obj": {StatusCode: http.StatusNotFound, Body: "Not Found"},
	})
	require.ErrorIs(t, err, errUnsuccessful)
}

func TestRawGetPrintsResponse(t *testing.T) {
	header := http.Header{}
	header.Set("Etag", `W/"abc"`)
	out, err := runWithMocks(t, "get obj --raw --tx tx:abc", nil, map[string]common.MockResponse{
		"GET " + base + "/tx:abc/obj": {StatusCode: http.StatusNotFound, Header: header, Body: "Not Found"},
	})
	require.NoError(t, err)
	require.Equal(t, "404 Not Found\nEtag: W/\"abc\"\n\nNot Found\n", out)
}

func TestHead(t *testing.T) {
	header := http.Header{}
	header.Set("Link", `<`+base+`/obj/fcr:versions>;rel="timemap"`)
	out, err := runWithMocks(t, "head obj", nil, map[string]common.MockResponse{
		"HEAD " + base + "/obj": {StatusCode: http.StatusOK, Header: header},
	})
	require.NoError(t, err)
	require.Contains(t, out, "Link: <"+base+"/obj/fcr:versions>")
}

func TestCreateWithFile(t *testing.T) {
	mocks := map[string]common.MockResponse{
		"POST " + base + "/parent": withLocation(http.StatusCreated, base+"/parent/child"),
	}
	runner, err := NewFcrepoRunner([]string{"create", "parent", "--file", "testdata/title.ttl", "--content-type", "text/turtle"})
	require.NoError(t, err)
	out := &bytes.Buffer{}
	runner.out = out
	transport := common.NewMockTransport(true, mocks)

	require.NoError(t, runner.Run(context.Background(), &http.Client{Transport: transport}))
	require.Equal(t, base+"/parent/child\n", out.String())

	req := transport.Requests()[0]
	require.Equal(t, "text/turtle", req.Header.Get("Content-Type"))
	require.Contains(t, req.Body, "From a file")
}

func TestCreateInTransactionCachesUuid(t *testing.T) {
	cache := newFakeCache()
	out, err := runWithMocks(t, "create parent --tx tx:abc", cache, map[string]common.MockResponse{
		"POST " + base + "/tx:abc/parent": withLocation(http.StatusCreated, base+"/tx:abc/parent/child"),
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, base+"/tx:abc/parent/child", lines[0])
	_, err = guuid.Parse(lines[1])
	require.NoError(t, err)
	require.Equal(t, base+"/tx:abc/parent/child", cache.entries["tx:abc"][lines[1]])
	require.True(t, cache.closed)
}

func TestCreateOutsideTransactionSkipsCache(t *testing.T) {
	cache := newFakeCache()
	out, err := runWithMocks(t, "create parent", cache, map[string]common.MockResponse{
		"POST " + base + "/parent": withLocation(http.StatusCreated, base+"/parent/child"),
	})
	require.NoError(t, err)
	require.Equal(t, base+"/parent/child\n", out)
	require.Empty(t, cache.entries)
}

func TestSavePatchDelete(t *testing.T) {
	mocks := map[string]common.MockResponse{
		"PUT " + base + "/obj":    withLocation(http.StatusNoContent, ""),
		"PATCH " + base + "/obj":  withLocation(http.StatusNoContent, ""),
		"DELETE " + base + "/obj": withLocation(http.StatusNoContent, ""),
		"DELETE " + base + "/bad": withLocation(http.StatusGone, ""),
	}
	_, err := runWithMocks(t, "save obj", nil, mocks)
	require.NoError(t, err)

	runner, err := NewFcrepoRunner([]string{"patch", "obj", `INSERT DATA { <> <http://purl.org/dc/terms/title> "t" }`})
	require.NoError(t, err)
	runner.out = &bytes.Buffer{}
	require.NoError(t, runner.Run(context.Background(), common.NewMockedClient(true, mocks)))

	_, err = runWithMocks(t, "delete obj", nil, mocks)
	require.NoError(t, err)
	_, err = runWithMocks(t, "delete bad", nil, mocks)
	require.ErrorIs(t, err, errUnsuccessful)
}

func TestCopyAndMove(t *testing.T) {
	mocks := map[string]common.MockResponse{
		"COPY " + base + "/src": withLocation(http.StatusCreated, base+"/copy"),
		"MOVE " + base + "/src": withLocation(http.StatusCreated, base+"/moved"),
	}
	out, err := runWithMocks(t, "copy src copy", nil, mocks)
	require.NoError(t, err)
	require.Equal(t, base+"/copy\n", out)

	out, err = runWithMocks(t, "move src moved", nil, mocks)
	require.NoError(t, err)
	require.Equal(t, base+"/moved\n", out)
}

func TestTransactionCommands(t *testing.T) {
	mocks := map[string]common.MockResponse{
		"POST " + base + "/fcr:tx":                     withLocation(http.StatusCreated, base+"/tx:abc"),
		"POST " + base + "/tx:abc/fcr:tx":              withLocation(http.StatusNoContent, ""),
		"POST " + base + "/tx:abc/fcr:tx/fcr:commit":   withLocation(http.StatusNoContent, ""),
		"POST " + base + "/tx:abc/fcr:tx/fcr:rollback": withLocation(http.StatusGone, ""),
	}

	out, err := runWithMocks(t, "tx begin", nil, mocks)
	require.NoError(t, err)
	require.Equal(t, "tx:abc\n", out)

	out, err = runWithMocks(t, "tx extend tx:abc", nil, mocks)
	require.NoError(t, err)
	require.Equal(t, "tx:abc open\n", out)

	cache := newFakeCache()
	out, err = runWithMocks(t, "tx commit tx:abc", cache, mocks)
	require.NoError(t, err)
	require.Equal(t, "tx:abc committed\n", out)
	require.Equal(t, []string{"tx:abc"}, cache.deleted)

	// an expired transaction still has its cache cleared
	cache = newFakeCache()
	_, err = runWithMocks(t, "tx rollback tx:abc", cache, mocks)
	require.ErrorIs(t, err, errUnsuccessful)
	require.ErrorContains(t, err, "expired")
	require.Equal(t, []string{"tx:abc"}, cache.deleted)
}

func TestVersioningCommands(t *testing.T) {
	timemap := base + "/obj/fcr:versions"
	mocks := map[string]common.MockResponse{
		"HEAD " + base + "/obj":   withHeader(http.StatusOK, "Link", "<"+timemap+">; rel=\"timemap\""),
		"HEAD " + base + "/plain": withHeader(http.StatusOK, "Link", `<http://www.w3.org/ns/ldp#Resource>; rel="type"`),
		"POST " + timemap:         withLocation(http.StatusCreated, timemap+"/20251016000000"),
		"GET " + timemap:          {StatusCode: http.StatusOK, Body: "<" + timemap + "/20251016000000>; rel=\"memento\""},
	}

	out, err := runWithMocks(t, "timemap obj", nil, mocks)
	require.NoError(t, err)
	require.Equal(t, timemap+"\n", out)

	out, err = runWithMocks(t, "version obj", nil, mocks)
	require.NoError(t, err)
	require.Equal(t, timemap+"/20251016000000\n", out)

	out, err = runWithMocks(t, "versions obj", nil, mocks)
	require.NoError(t, err)
	require.Contains(t, out, "rel=\"memento\"")

	_, err = runWithMocks(t, "timemap plain", nil, mocks)
	require.ErrorContains(t, err, "no timemap")
}

func TestGraphCommand(t *testing.T) {
	const resource = "4d/8b/2d/8e/4d8b2d8e-d063-4c9f-aac9-6b285b193ed6"
	out, err := runWithMocks(t, "graph "+resource, nil, map[string]common.MockResponse{
		"GET " + base + "/" + resource: {StatusCode: http.StatusOK, File: "../../internal/graph/testdata/resource.jsonld"},
	})
	require.NoError(t, err)
	require.Contains(t, out, "<http://purl.org/dc/terms/title> \"My Sweet Title\"")
}

func TestUuidCommand(t *testing.T) {
	out, err := runWithMocks(t, "uuid --name python.org --namespace 6ba7b810-9dad-11d1-80b4-00c04fd430c8", nil, nil)
	require.NoError(t, err)
	require.Equal(t, "886313e1-3b8a-5372-9b90-0c9aee199e5d\n", out)

	out, err = runWithMocks(t, "uuid", nil, nil)
	require.NoError(t, err)
	parsed, err := guuid.Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	require.Equal(t, guuid.Version(4), parsed.Version())
}

func TestConfigFileNamespace(t *testing.T) {
	namespace := guuid.NewSHA1(guuid.NameSpaceDNS, []byte("example.org"))
	expected := guuid.NewSHA1(namespace, []byte("object")).String()

	out, err := runWithMocks(t, "uuid --name object --cfg testdata/fcrepo.yaml", nil, nil)
	require.NoError(t, err)
	require.Equal(t, expected+"\n", out)
}

func TestConfigFileUserAgent(t *testing.T) {
	runner, err := NewFcrepoRunner([]string{"get", "obj", "--cfg", "testdata/fcrepo.yaml"})
	require.NoError(t, err)
	runner.out = &bytes.Buffer{}
	transport := common.NewMockTransport(true, map[string]common.MockResponse{
		"GET " + base + "/obj": {StatusCode: http.StatusOK, Body: "x"},
	})
	require.NoError(t, runner.Run(context.Background(), &http.Client{Transport: transport}))
	require.Equal(t, "fcrepo-from-file", transport.Requests()[0].Header.Get("User-Agent"))
}

func TestQueryCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Query().Get("query"), "ASK") {
			_, _ = w.Write([]byte(`{"head": {}, "boolean": false}`))
			return
		}
		_, _ = w.Write([]byte(`{"head": {"vars": ["s", "o"]}, "results": {"bindings": [
			{"s": {"type": "uri", "value": "http://example.org/a"}, "o": {"type": "literal", "value": "one"}},
			{"s": {"type": "uri", "value": "http://example.org/b"}}
		]}}`))
	}))
	defer server.Close()

	runner, err := NewFcrepoRunner([]string{"query", "SELECT ?s ?o WHERE { ?s ?p ?o }", "--sparql-endpoint", server.URL})
	require.NoError(t, err)
	out := &bytes.Buffer{}
	runner.out = out
	require.NoError(t, runner.Run(context.Background(), server.Client()))
	require.Equal(t, "s\to\nhttp://example.org/a\tone\nhttp://example.org/b\t\n", out.String())

	runner, err = NewFcrepoRunner([]string{"query", "ASK { ?s ?p ?o }", "--sparql-endpoint", server.URL})
	require.NoError(t, err)
	out = &bytes.Buffer{}
	runner.out = out
	require.NoError(t, runner.Run(context.Background(), server.Client()))
	require.Equal(t, "false\n", out.String())
}

func withLocation(code int, location string) common.MockResponse {
	if location == "" {
		return common.MockResponse{StatusCode: code}
	}
	return withHeader(code, "Location", location)
}

func withHeader(code int, name, value string) common.MockResponse {
	header := http.Header{}
	header.Set(name, value)
	return common.MockResponse{StatusCode: code, Header: header}
}

func TestVersionSendsContentType(t *testing.T) {
	timemap := base + "/obj/fcr:versions"
	for _, mode := range []string{"", "--raw"} {
		transport := common.NewMockTransport(true, map[string]common.MockResponse{
			"HEAD " + base + "/obj": withHeader(http.StatusOK, "Link", "<"+timemap+">; rel=\"timemap\""),
			"POST " + timemap:       withLocation(http.StatusCreated, timemap+"/20251016000000"),
		})
		args := []string{"version", "obj", "--timestamp", "Thu, 16 Oct 2025 00:00:00 GMT",
			"--file", "testdata/title.ttl", "--content-type", "text/turtle"}
		if mode != "" {
			args = append(args, mode)
		}
		runner, err := NewFcrepoRunner(args)
		require.NoError(t, err)
		runner.out = &bytes.Buffer{}
		require.NoError(t, runner.Run(context.Background(), &http.Client{Transport: transport}))

		post := transport.Requests()[1]
		require.Equal(t, http.MethodPost, post.Method, mode)
		require.Equal(t, "text/turtle", post.Header.Get("Content-Type"), mode)
		require.Equal(t, "Thu, 16 Oct 2025 00:00:00 GMT", post.Header.Get("Memento-Datetime"), mode)
		require.Contains(t, post.Body, "From a file", mode)
	}
}

func TestGoneInTransactionClearsCache(t *testing.T) {
	cache := newFakeCache()
	cache.entries["tx:abc"] = map[string]string{"some-uuid": base + "/tx:abc/obj"}

	_, err := runWithMocks(t, "get obj --tx tx:abc", cache, map[string]common.MockResponse{
		"GET " + base + "/tx:abc/obj": {StatusCode: http.StatusGone},
	})
	require.ErrorIs(t, err, errUnsuccessful)
	require.Equal(t, []string{"tx:abc"}, cache.deleted)
	require.Empty(t, cache.entries)
}

func TestNotFoundInTransactionKeepsCache(t *testing.T) {
	cache := newFakeCache()
	_, err := runWithMocks(t, "delete obj --tx tx:abc", cache, map[string]common.MockResponse{
		"DELETE " + base + "/tx:abc/obj": {StatusCode: http.StatusNotFound},
	})
	require.ErrorIs(t, err, errUnsuccessful)
	require.Empty(t, cache.deleted)
}
