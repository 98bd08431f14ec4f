// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package uuid

import (
	"regexp"
	"testing"

	guuid "github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var v4Pattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestGenerateV4(t *testing.T) {
	generator := NewGenerator("")
	first, err := generator.GenerateV4()
	require.NoError(t, err)
	require.Regexp(t, v4Pattern, first)

	second, err := generator.GenerateV4()
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestGenerateV5(t *testing.T) {
	namespaceUuid := guuid.NewSHA1(guuid.NameSpaceDNS, []byte("islandora.ca"))
	expected := guuid.NewSHA1(namespaceUuid, []byte("test_object")).String()

	require.Equal(t, expected, NewGenerator("islandora.ca").GenerateV5("test_object", ""))
	// the default namespace is islandora.ca
	require.Equal(t, expected, NewGenerator("").GenerateV5("test_object", ""))
	require.Equal(t, expected, NewGenerator("example.org").GenerateV5("test_object", "islandora.ca"))
}

func TestGenerateV5WithUuidNamespace(t *testing.T) {
	// the DNS namespace used directly gives the well known python.org uuid
	generator := NewGenerator(guuid.NameSpaceDNS.String())
	require.Equal(t, "886313e1-3b8a-5372-9b90-0c9aee199e5d", generator.GenerateV5("python.org", ""))
	require.Equal(t, "886313e1-3b8a-5372-9b90-0c9aee199e5d",
		NewGenerator("").GenerateV5("python.org", "6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
}

func TestGenerateV5IsStable(t *testing.T) {
	generator := NewGenerator("islandora.ca")
	id := generator.GenerateV5("object", "")
	require.Equal(t, id, generator.GenerateV5("object", ""))
	require.NotEqual(t, id, generator.GenerateV5("other", ""))

	parsed, err := guuid.Parse(id)
	require.NoError(t, err)
	require.Equal(t, guuid.Version(5), parsed.Version())
}

func TestNonCanonicalUuidNamespacesAreHashed(t *testing.T) {
	generator := NewGenerator("")
	direct := generator.GenerateV5("python.org", "6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	for _, namespace := range []string{
		"urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		"{6ba7b810-9dad-11d1-80b4-00c04fd430c8}",
		"6ba7b8109dad11d180b400c04fd430c8",
	} {
		hashed := guuid.NewSHA1(guuid.NameSpaceDNS, []byte(namespace))
		expected := guuid.NewSHA1(hashed, []byte("python.org")).String()

		got := generator.GenerateV5("python.org", namespace)
		require.Equal(t, expected, got, namespace)
		require.NotEqual(t, direct, got, namespace)
	}
}
