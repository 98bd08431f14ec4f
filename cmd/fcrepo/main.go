// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/internetofwater/fcrepo/internal/config"
	"github.com/internetofwater/fcrepo/internal/fedora"
	"github.com/internetofwater/fcrepo/internal/graph"
	"github.com/internetofwater/fcrepo/internal/keycache"
	"github.com/internetofwater/fcrepo/internal/opentelemetry"

	"github.com/alexflint/go-arg"
	log "github.com/sirupsen/logrus"
	otelTrace "go.opentelemetry.io/otel/trace"
)

// A resource addressed relative to the base uri, or absolute under it
type UriCmd struct {
	Uri string `arg:"positional,required" help:"resource uri"`
}

type GetCmd struct {
	Uri    string `arg:"positional,required" help:"resource uri"`
	Accept string `arg:"--accept" help:"media type to ask for, e.g. text/turtle"`
}

type ContentCmd struct {
	Uri         string `arg:"positional,required" help:"resource uri"`
	File        string `arg:"--file" help:"file holding the content to send; no file sends no body"`
	ContentType string `arg:"--content-type" help:"media type of the content"`
}

type PatchCmd struct {
	Uri    string `arg:"positional,required" help:"resource uri"`
	Sparql string `arg:"positional,required" help:"SPARQL Update statement"`
}

type RelocateCmd struct {
	Uri         string `arg:"positional,required" help:"resource uri"`
	Destination string `arg:"positional,required" help:"destination uri"`
}

type VersionCmd struct {
	Uri         string `arg:"positional,required" help:"resource uri"`
	Timestamp   string `arg:"--timestamp" help:"Memento-Datetime of the version, e.g. Thu, 16 Oct 2025 00:00:00 GMT"`
	File        string `arg:"--file" help:"content of the version; only sent together with --timestamp"`
	ContentType string `arg:"--content-type" help:"media type of the content"`
}

type UuidCmd struct {
	Name      string `arg:"--name" help:"make a name based v5 uuid instead of a random v4 one"`
	Namespace string `arg:"--namespace" help:"namespace of the v5 uuid; defaults to --uuid-namespace"`
}

type QueryCmd struct {
	Sparql string `arg:"positional,required" help:"SPARQL query"`
}

type FcrepoArgs struct {
	// Subcommands that can be run
	Get      *GetCmd      `arg:"subcommand:get" help:"get the content of a resource"`
	Head     *UriCmd      `arg:"subcommand:head" help:"get the headers of a resource"`
	Options  *UriCmd      `arg:"subcommand:options" help:"get the options supported by a resource"`
	Create   *ContentCmd  `arg:"subcommand:create" help:"create a child of a resource and print its uri"`
	Save     *ContentCmd  `arg:"subcommand:save" help:"create or replace the resource at a uri"`
	Patch    *PatchCmd    `arg:"subcommand:patch" help:"modify a resource with a SPARQL Update statement"`
	Delete   *UriCmd      `arg:"subcommand:delete" help:"delete a resource"`
	Copy     *RelocateCmd `arg:"subcommand:copy" help:"copy a resource and print the uri of the copy"`
	Move     *RelocateCmd `arg:"subcommand:move" help:"move a resource and print its new uri"`
	Tx       *TxCmd       `arg:"subcommand:tx" help:"begin, extend, commit, or roll back a transaction"`
	Timemap  *UriCmd      `arg:"subcommand:timemap" help:"print the timemap uri of a resource"`
	Version  *VersionCmd  `arg:"subcommand:version" help:"create a version of a resource and print its uri"`
	Versions *UriCmd      `arg:"subcommand:versions" help:"print the versions of a resource"`
	Graph    *UriCmd      `arg:"subcommand:graph" help:"print the rdf of a resource as n-triples"`
	Uuid     *UuidCmd     `arg:"subcommand:uuid" help:"generate a uuid"`
	Query    *QueryCmd    `arg:"subcommand:query" help:"run a SPARQL query against the triplestore"`

	// Flags that can be set for config particular services / operations
	config.FedoraConfig
	config.CacheConfig
	config.SparqlConfig
	config.UuidConfig
	config.TelemetryConfig

	// Flags that can be set which affect all operations
	LogLevel    string `arg:"--log-level" default:"INFO"`
	Transaction string `arg:"--tx" help:"id of the transaction to work in, e.g. tx:abc-123"`
	Raw         bool   `arg:"--raw" help:"print the status, headers, and body of every response"`
	Cfg         string `arg:"--cfg" help:"yaml config file; when set it replaces the config flags"`
}

// ToStructuredConfig converts the args to a structured config
// that can be used for more config isolation
func (f FcrepoArgs) ToStructuredConfig() (config.FcrepoConfig, error) {
	if f.Cfg != "" {
		return config.ReadConfigFile(f.Cfg)
	}
	conf := config.FcrepoConfig{
		Fedora:    f.FedoraConfig,
		Cache:     f.CacheConfig,
		Sparql:    f.SparqlConfig,
		Uuid:      f.UuidConfig,
		Telemetry: f.TelemetryConfig,
	}
	return conf, conf.Fedora.Validate()
}

// The part of the key cache the cli uses
type uuidCache interface {
	fedora.TransactionCache
	Set(ctx context.Context, transactionId, uuid, path string) (bool, error)
	Close() error
}

type FcrepoRunner struct {
	args FcrepoArgs
	// where results are printed
	out io.Writer
	// set to skip connecting to redis
	cache uuidCache
}

func NewFcrepoRunner(cliArgs []string) (FcrepoRunner, error) {
	args := FcrepoArgs{}
	parser, err := arg.NewParser(arg.Config{Program: "fcrepo"}, &args)
	if err != nil {
		return FcrepoRunner{}, err
	}
	if err := parser.Parse(cliArgs); err != nil {
		if errors.Is(err, arg.ErrHelp) {
			parser.WriteHelp(os.Stdout)
		}
		return FcrepoRunner{}, err
	}
	if parser.Subcommand() == nil {
		parser.WriteHelp(os.Stderr)
		return FcrepoRunner{}, fmt.Errorf("no subcommand provided")
	}
	return FcrepoRunner{args: args, out: os.Stdout}, nil
}

// errUnsuccessful is returned when the repository answered but did not
// report success; use --raw to see the response
var errUnsuccessful = errors.New("operation did not succeed")

func unsuccessful(operation, uri string) error {
	return fmt.Errorf("%w: %s %s", errUnsuccessful, operation, uri)
}

// Run the subcommand. httpClient may be nil to build one from the config.
func (f FcrepoRunner) Run(ctx context.Context, httpClient *http.Client) error {
	level, err := log.ParseLevel(f.args.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %s: %w", f.args.LogLevel, err)
	}
	log.SetLevel(level)

	conf, err := f.args.ToStructuredConfig()
	if err != nil {
		return err
	}

	if conf.Telemetry.UseOtel {
		endpoint := conf.Telemetry.OtelEndpoint
		if endpoint == "" {
			endpoint = opentelemetry.DefaultTracingEndpoint
		}
		log.Infof("Starting opentelemetry traces and metrics and exporting to: %s", endpoint)
		if err := opentelemetry.InitTracer("fcrepo", endpoint); err != nil {
			return err
		}
		if err := opentelemetry.InitMetrics(endpoint); err != nil {
			return err
		}
		var span otelTrace.Span
		span, ctx = opentelemetry.SubSpanFromCtxWithName(ctx, strings.Join(os.Args, "_"))
		defer opentelemetry.Shutdown(context.Background())
		defer span.End()
	}

	// commands that never talk to the repository
	switch {
	case f.args.Uuid != nil:
		return f.uuid(conf.Uuid)
	case f.args.Query != nil:
		return f.query(ctx, conf.Sparql, httpClient)
	}

	api, err := newApi(conf.Fedora, httpClient)
	if err != nil {
		return err
	}

	cache := f.cache
	if cache == nil && conf.Cache.Address != "" {
		redisCache, err := keycache.NewRedisKeyCache(conf.Cache)
		if err != nil {
			return err
		}
		cache = redisCache
	}
	if cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				log.Errorf("error closing key cache: %v", err)
			}
		}()
	}

	var txCache fedora.TransactionCache
	if cache != nil {
		txCache = cache
	}
	client := fedora.NewClient(api, txCache)
	if f.args.Transaction != "" {
		// a 410 from any operation in the transaction expires it
		if _, err := client.ResumeTransaction(f.args.Transaction); err != nil {
			return err
		}
	}

	switch {
	case f.args.Get != nil:
		return f.get(ctx, client)
	case f.args.Head != nil:
		return f.head(ctx, client)
	case f.args.Options != nil:
		return f.options(ctx, client)
	case f.args.Create != nil:
		return f.create(ctx, client, cache, conf.Uuid)
	case f.args.Save != nil:
		return f.save(ctx, client)
	case f.args.Patch != nil:
		return f.patch(ctx, client)
	case f.args.Delete != nil:
		return f.delete(ctx, client)
	case f.args.Copy != nil:
		return f.relocate(ctx, "copy", *f.args.Copy, client.Api().CopyResource, client.CopyResource)
	case f.args.Move != nil:
		return f.relocate(ctx, "move", *f.args.Move, client.Api().MoveResource, client.MoveResource)
	case f.args.Tx != nil:
		return f.transaction(ctx, client)
	case f.args.Timemap != nil:
		return f.timemap(ctx, client)
	case f.args.Version != nil:
		return f.version(ctx, client)
	case f.args.Versions != nil:
		return f.versions(ctx, client)
	case f.args.Graph != nil:
		return f.graph(ctx, client)
	default:
		return fmt.Errorf("unknown fcrepo subcommand")
	}
}

func newApi(conf config.FedoraConfig, httpClient *http.Client) (*fedora.Api, error) {
	if httpClient == nil {
		return fedora.NewApiFromConfig(conf)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	requester := fedora.NewHttpRequester(httpClient, conf.Username, conf.Password, conf.UserAgent)
	return fedora.NewApi(conf.BaseUri, requester, graph.NewCodec()), nil
}

func main() {
	runner, err := NewFcrepoRunner(os.Args[1:])
	if errors.Is(err, arg.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}
	if err := runner.Run(context.Background(), nil); err != nil {
		log.Fatal(err)
	}
}
