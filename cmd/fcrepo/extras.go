// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/internetofwater/fcrepo/internal/config"
	"github.com/internetofwater/fcrepo/internal/fedora"
	"github.com/internetofwater/fcrepo/internal/graph"
	"github.com/internetofwater/fcrepo/internal/triplestore"
	"github.com/internetofwater/fcrepo/internal/uuid"
)

func newUuidGenerator(conf config.UuidConfig) *uuid.Generator {
	return uuid.NewGenerator(conf.Namespace)
}

// graph prints the rdf of a resource as n-triples
func (f FcrepoRunner) graph(ctx context.Context, client *fedora.Client) error {
	uri := f.args.Graph.Uri
	g, found, err := client.GetGraph(ctx, uri, nil, f.args.Transaction)
	if err != nil {
		return err
	}
	if !found {
		return unsuccessful("graph", uri)
	}
	nt, err := graph.NewCodec().SerializeNTriples(g)
	if err != nil {
		return err
	}
	fmt.Fprint(f.out, nt)
	return nil
}

func (f FcrepoRunner) uuid(conf config.UuidConfig) error {
	generator := newUuidGenerator(conf)
	if f.args.Uuid.Name != "" {
		fmt.Fprintln(f.out, generator.GenerateV5(f.args.Uuid.Name, f.args.Uuid.Namespace))
		return nil
	}
	id, err := generator.GenerateV4()
	if err != nil {
		return err
	}
	fmt.Fprintln(f.out, id)
	return nil
}

// query prints ASK results as true or false and SELECT results as
// tab separated rows under a header of variable names
func (f FcrepoRunner) query(ctx context.Context, conf config.SparqlConfig, httpClient *http.Client) error {
	var client *triplestore.Client
	var err error
	if httpClient == nil {
		client, err = triplestore.NewClientFromConfig(conf)
	} else {
		client, err = triplestore.NewClient(conf.Endpoint, httpClient)
	}
	if err != nil {
		return err
	}

	result, err := client.Query(ctx, f.args.Query.Sparql)
	if err != nil {
		return err
	}
	if result.Boolean != nil {
		fmt.Fprintln(f.out, *result.Boolean)
		return nil
	}

	fmt.Fprintln(f.out, strings.Join(result.Variables, "\t"))
	for _, row := range result.Bindings {
		values := make([]string, len(result.Variables))
		for i, variable := range result.Variables {
			values[i] = row[variable].Value
		}
		fmt.Fprintln(f.out, strings.Join(values, "\t"))
	}
	return nil
}
