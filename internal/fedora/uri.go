// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fedora

import "strings"

// Reserved path segments used by the transaction endpoints
const (
	TransactionSegment = "fcr:tx"
	commitSegment      = "fcr:commit"
	rollbackSegment    = "fcr:rollback"
)

// ResolveUri turns a possibly relative resource uri into an absolute uri
// under base, scoped to transaction when one is given.
//
// An empty uri, or one equal to base, addresses the repository root and
// resolves to base/transaction. A uri that already has transaction as one of
// its path segments is returned unchanged so resolving twice is a no-op.
func ResolveUri(base, uri, transaction string) string {
	base = strings.TrimRight(base, "/")

	if uri == "" {
		return base + "/" + transaction
	}

	if !hasBasePrefix(uri, base) {
		uri = base + "/" + strings.TrimLeft(uri, "/")
	}

	uri = strings.TrimRight(uri, "/")

	if uri == base {
		return base + "/" + transaction
	}

	if transaction == "" {
		return uri
	}

	relativePath := strings.TrimLeft(strings.TrimPrefix(uri, base), "/")

	// check whole segments; a substring match would treat a resource
	// named like another transaction as already scoped
	for _, segment := range strings.Split(relativePath, "/") {
		if segment == transaction {
			return uri
		}
	}

	return strings.Join([]string{base, transaction, relativePath}, "/")
}

// a uri only counts as being under base when base is followed by a path
// separator or nothing at all, so base "/rest" does not claim "/restricted"
func hasBasePrefix(uri, base string) bool {
	if !strings.HasPrefix(uri, base) {
		return false
	}
	rest := uri[len(base):]
	return rest == "" || strings.HasPrefix(rest, "/")
}

// TransactionIdFromLocation pulls the transaction id out of the Location
// returned when a transaction is created; it is the last path segment.
// Returns false when location has no usable segment.
func TransactionIdFromLocation(location string) (string, bool) {
	trimmed := strings.TrimRight(strings.TrimSpace(location), "/")
	if trimmed == "" {
		return "", false
	}
	segments := strings.Split(trimmed, "/")
	id := segments[len(segments)-1]
	if id == "" || strings.HasSuffix(id, ":") {
		return "", false
	}
	return id, true
}
