// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/internetofwater/fcrepo/internal/fedora"
)

type TxIdCmd struct {
	Id string `arg:"positional,required" help:"transaction id, e.g. tx:abc-123"`
}

type TxCmd struct {
	Begin    *struct{} `arg:"subcommand:begin" help:"open a transaction and print its id"`
	Extend   *TxIdCmd  `arg:"subcommand:extend" help:"keep a transaction open"`
	Commit   *TxIdCmd  `arg:"subcommand:commit" help:"commit a transaction"`
	Rollback *TxIdCmd  `arg:"subcommand:rollback" help:"roll back a transaction"`
}

// commit and rollback go through a Transaction so
// the key cache of the transaction is cleared
func (f FcrepoRunner) transaction(ctx context.Context, client *fedora.Client) error {
	cmd := f.args.Tx
	switch {
	case cmd.Begin != nil:
		return f.beginTransaction(ctx, client)
	case cmd.Extend != nil:
		return f.advanceTransaction(ctx, client, "extend", cmd.Extend.Id, (*fedora.Transaction).Extend)
	case cmd.Commit != nil:
		return f.advanceTransaction(ctx, client, "commit", cmd.Commit.Id, (*fedora.Transaction).Commit)
	case cmd.Rollback != nil:
		return f.advanceTransaction(ctx, client, "rollback", cmd.Rollback.Id, (*fedora.Transaction).Rollback)
	default:
		return fmt.Errorf("tx needs one of begin, extend, commit, or rollback")
	}
}

func (f FcrepoRunner) beginTransaction(ctx context.Context, client *fedora.Client) error {
	if f.args.Raw {
		resp, err := client.Api().CreateTransaction(ctx, nil)
		if err != nil {
			return err
		}
		f.printResponse(resp)
		return nil
	}

	tx, err := client.BeginTransaction(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(f.out, tx.Id())
	return nil
}

type transactionStep func(t *fedora.Transaction, ctx context.Context) (bool, error)

func (f FcrepoRunner) advanceTransaction(ctx context.Context, client *fedora.Client, operation, id string, step transactionStep) error {
	if f.args.Raw {
		calls := map[string]func(context.Context, string, http.Header) (*fedora.Response, error){
			"extend":   client.Api().ExtendTransaction,
			"commit":   client.Api().CommitTransaction,
			"rollback": client.Api().RollbackTransaction,
		}
		resp, err := calls[operation](ctx, id, nil)
		if err != nil {
			return err
		}
		f.printResponse(resp)
		return nil
	}

	tx, err := client.ResumeTransaction(id)
	if err != nil {
		return err
	}
	ok, err := step(tx, ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s of transaction %s left it %s", errUnsuccessful, operation, id, tx.State())
	}
	fmt.Fprintf(f.out, "%s %s\n", id, tx.State())
	return nil
}
