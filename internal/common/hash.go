// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"crypto/sha1"
	"encoding/hex"
)

// Sha1Hex returns the hex encoded sha1 of text, the form fedora
// expects in a "Digest: sha1=<hex>" header
func Sha1Hex(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
