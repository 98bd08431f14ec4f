// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fedora

import (
	"context"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type TransactionState int

const (
	TransactionNone TransactionState = iota
	TransactionOpen
	TransactionCommitted
	TransactionRolledBack
	TransactionExpired
)

func (s TransactionState) String() string {
	switch s {
	case TransactionNone:
		return "none"
	case TransactionOpen:
		return "open"
	case TransactionCommitted:
		return "committed"
	case TransactionRolledBack:
		return "rolled-back"
	case TransactionExpired:
		return "expired"
	default:
		return fmt.Sprintf("TransactionState(%d)", int(s))
	}
}

// No further operation against a transaction in a terminal state is meaningful
func (s TransactionState) Terminal() bool {
	return s == TransactionCommitted || s == TransactionRolledBack || s == TransactionExpired
}

// Per transaction state kept outside the repository that must be dropped
// once the transaction ends
type TransactionCache interface {
	Delete(ctx context.Context, transactionId string) error
}

// Transaction tracks the lifecycle of one repository transaction.
// It is not safe for concurrent use.
type Transaction struct {
	id    string
	state TransactionState
	api   *Api
	cache TransactionCache
	// called once the transaction reaches a terminal state
	onEnd func(id string)
}

// BeginTransaction opens a transaction on the repository
func (c *Client) BeginTransaction(ctx context.Context) (*Transaction, error) {
	resp, err := c.api.CreateTransaction(ctx, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: status %d", ErrTransactionNotCreated, resp.StatusCode)
	}
	id, ok := TransactionIdFromLocation(resp.Location())
	if !ok {
		return nil, fmt.Errorf("%w: no transaction id in location %q", ErrTransactionNotCreated, resp.Location())
	}
	log.Debugf("opened transaction %s", id)
	return c.track(id), nil
}

// ResumeTransaction wraps the id of a transaction opened elsewhere.
// It is assumed to still be open. Resuming an id the client already
// tracks returns the same Transaction.
func (c *Client) ResumeTransaction(id string) (*Transaction, error) {
	if id == "" {
		return nil, ErrEmptyTransactionId
	}
	return c.track(id), nil
}

// track registers an open transaction so responses of operations run
// inside it through this client are observed by it
func (c *Client) track(id string) *Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tx, ok := c.transactions[id]; ok {
		return tx
	}
	if c.transactions == nil {
		c.transactions = map[string]*Transaction{}
	}
	tx := &Transaction{id: id, state: TransactionOpen, api: c.api, cache: c.cache, onEnd: c.forget}
	c.transactions[id] = tx
	return tx
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.transactions, id)
}

// hand resp to the tracked transaction it was made in, if any
func (c *Client) observe(ctx context.Context, transaction string, resp *Response) {
	if transaction == "" {
		return
	}
	c.mu.Lock()
	tx, ok := c.transactions[transaction]
	c.mu.Unlock()
	if ok {
		tx.Observe(ctx, resp)
	}
}

func (t *Transaction) Id() string {
	return t.id
}

func (t *Transaction) State() TransactionState {
	return t.state
}

// Extend keeps the transaction open. Returns false if the server refused;
// a 410 means the transaction already expired.
func (t *Transaction) Extend(ctx context.Context) (bool, error) {
	return t.advance(ctx, "extend", t.api.ExtendTransaction, TransactionOpen)
}

// Commit the transaction; a failed commit is not retried
func (t *Transaction) Commit(ctx context.Context) (bool, error) {
	return t.advance(ctx, "commit", t.api.CommitTransaction, TransactionCommitted)
}

func (t *Transaction) Rollback(ctx context.Context) (bool, error) {
	return t.advance(ctx, "rollback", t.api.RollbackTransaction, TransactionRolledBack)
}

type transactionCall func(ctx context.Context, id string, headers http.Header) (*Response, error)

func (t *Transaction) advance(ctx context.Context, operation string, call transactionCall, onSuccess TransactionState) (bool, error) {
	if t.state.Terminal() {
		return false, fmt.Errorf("%w: cannot %s %s, it is %s", ErrTransactionFinished, operation, t.id, t.state)
	}

	resp, err := call(ctx, t.id, nil)
	if err != nil {
		return false, err
	}

	switch resp.StatusCode {
	case http.StatusNoContent:
		t.state = onSuccess
	case http.StatusGone:
		log.Warnf("transaction %s expired before %s", t.id, operation)
		t.state = TransactionExpired
	default:
		log.Debugf("%s of transaction %s returned status %d", operation, t.id, resp.StatusCode)
		return false, nil
	}

	if t.state.Terminal() {
		t.finish(ctx)
	}
	return t.state == onSuccess, nil
}

// Observe feeds the response of any request made inside the transaction
// into its state: a 410 means the repository already expired it. A 410
// that points at a tombstone is a deleted resource, not an expiry.
func (t *Transaction) Observe(ctx context.Context, resp *Response) {
	if resp == nil || resp.StatusCode != http.StatusGone || t.state.Terminal() {
		return
	}
	for _, link := range ParseLinkHeader(resp.HeaderValues("Link")) {
		if link.HasRel("hasTombstone") {
			return
		}
	}
	log.Warnf("transaction %s expired", t.id)
	t.state = TransactionExpired
	t.finish(ctx)
}

func (t *Transaction) finish(ctx context.Context) {
	if t.cache != nil {
		if err := t.cache.Delete(ctx, t.id); err != nil {
			// the transaction outcome stands even if the cache could not be cleared
			log.Warnf("failed to clear cache for transaction %s: %v", t.id, err)
		}
	}
	if t.onEnd != nil {
		t.onEnd(t.id)
	}
}
