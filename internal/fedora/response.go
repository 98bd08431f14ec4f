// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fedora

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Response is a fully read http response. The body has already been
// drained and closed by the transport so a Response can be passed around
// and inspected more than once.
type Response struct {
	StatusCode int
	// header lookups through Get/Values are case-insensitive
	Header http.Header
	Body   []byte
}

// Get the first value of a header or "" if not present
func (r *Response) HeaderValue(name string) string {
	if r == nil || r.Header == nil {
		return ""
	}
	return r.Header.Get(name)
}

// Get all values of a header, in the order they were received
func (r *Response) HeaderValues(name string) []string {
	if r == nil || r.Header == nil {
		return nil
	}
	return r.Header.Values(name)
}

// The location header is returned by fedora for any request that creates a resource
func (r *Response) Location() string {
	return r.HeaderValue("Location")
}

func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// Expect returns a StatusError unless the response has one of the given codes
func (r *Response) Expect(codes ...int) error {
	if slices.Contains(codes, r.StatusCode) {
		return nil
	}
	return &StatusError{StatusCode: r.StatusCode, Expected: codes, Body: r.Text()}
}

// StatusError is returned to callers that want a non-success
// status surfaced as an error instead of inspecting the response
type StatusError struct {
	Method     string
	Uri        string
	StatusCode int
	Expected   []int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("%s %s returned status %d, expected %v: %s", e.Method, e.Uri, e.StatusCode, e.Expected, e.Body)
	}
	return fmt.Sprintf("unexpected status %d, expected %v: %s", e.StatusCode, e.Expected, e.Body)
}

// Link is a single entry from a Link header
type Link struct {
	Uri    string
	Rel    string
	Params map[string]string
}

// HasRel reports whether rel is one of the space separated relation types of the link
func (l Link) HasRel(rel string) bool {
	return slices.Contains(strings.Fields(l.Rel), rel)
}

// ParseLinkHeader parses every Link header value into an ordered list of links.
// Each value may itself hold several comma separated links.
func ParseLinkHeader(values []string) []Link {
	var links []Link
	for _, value := range values {
		for _, entry := range splitOutsideDelimiters(value, ',') {
			parts := splitOutsideDelimiters(entry, ';')
			if len(parts) == 0 {
				continue
			}
			target := strings.Trim(parts[0], "<> \t\n\r\x00\x0B")
			if target == "" {
				continue
			}
			link := Link{Uri: target, Params: map[string]string{}}
			for _, param := range parts[1:] {
				key, val, _ := strings.Cut(param, "=")
				key = strings.ToLower(strings.TrimSpace(key))
				val = strings.Trim(strings.TrimSpace(val), `"`)
				if key == "" {
					continue
				}
				link.Params[key] = val
				if key == "rel" {
					link.Rel = val
				}
			}
			links = append(links, link)
		}
	}
	return links
}

// split s on sep, ignoring separators inside <...> or "..."
func splitOutsideDelimiters(s string, sep rune) []string {
	var parts []string
	var current strings.Builder
	inAngle, inQuote := false, false
	for _, c := range s {
		switch {
		case c == '"' && !inAngle:
			inQuote = !inQuote
		case c == '<' && !inQuote:
			inAngle = true
		case c == '>' && !inQuote:
			inAngle = false
		case c == sep && !inAngle && !inQuote:
			if strings.TrimSpace(current.String()) != "" {
				parts = append(parts, strings.TrimSpace(current.String()))
			}
			current.Reset()
			continue
		}
		current.WriteRune(c)
	}
	if strings.TrimSpace(current.String()) != "" {
		parts = append(parts, strings.TrimSpace(current.String()))
	}
	return parts
}
