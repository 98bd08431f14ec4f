// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fedora

import "errors"

var (
	// The resource did not advertise a timemap so it cannot be versioned
	ErrNoTimemap = errors.New("no timemap link found for resource")

	// The repository did not hand back a usable transaction id
	ErrTransactionNotCreated = errors.New("transaction was not created")

	// The transaction was already committed, rolled back, or expired
	ErrTransactionFinished = errors.New("transaction is no longer open")

	ErrEmptyTransactionId = errors.New("transaction id must not be empty")
)
