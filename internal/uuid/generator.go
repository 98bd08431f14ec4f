// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package uuid

import (
	guuid "github.com/google/uuid"
)

const DefaultNamespace = "islandora.ca"

const canonicalLength = 36

// Generator mints random v4 uuids and name based v5 uuids
type Generator struct {
	namespace guuid.UUID
}

// NewGenerator uses namespace for v5 uuids. A namespace that is itself a
// uuid is used as is; any other string, such as a domain name, is first
// hashed into a uuid under the DNS namespace. Empty means DefaultNamespace.
func NewGenerator(namespace string) *Generator {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Generator{namespace: namespaceUuid(namespace)}
}

// only the canonical 8-4-4-4-12 form counts as a uuid; Parse alone would
// also take the urn, braced and unhyphenated forms
func namespaceUuid(namespace string) guuid.UUID {
	if len(namespace) == canonicalLength {
		if parsed, err := guuid.Parse(namespace); err == nil {
			return parsed
		}
	}
	return guuid.NewSHA1(guuid.NameSpaceDNS, []byte(namespace))
}

func (g *Generator) GenerateV4() (string, error) {
	id, err := guuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// GenerateV5 derives a uuid from name. namespace overrides the
// generator's namespace when not empty.
func (g *Generator) GenerateV5(name, namespace string) string {
	space := g.namespace
	if namespace != "" {
		space = namespaceUuid(namespace)
	}
	return guuid.NewSHA1(space, []byte(name)).String()
}
