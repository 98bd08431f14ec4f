// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// The top level config for all fcrepo operations
type FcrepoConfig struct {
	Fedora    FedoraConfig    `yaml:"fedora"`
	Cache     CacheConfig     `yaml:"cache"`
	Sparql    SparqlConfig    `yaml:"sparql"`
	Uuid      UuidConfig      `yaml:"uuid"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// The config for talking to the repository
type FedoraConfig struct {
	BaseUri   string `arg:"--base-uri,env:FCREPO_BASE_URI" help:"base uri of the repository" default:"http://localhost:8080/fcrepo/rest" yaml:"baseUri"`
	Username  string `arg:"--username,env:FCREPO_USERNAME" help:"basic auth user" yaml:"username"`
	Password  string `arg:"--password,env:FCREPO_PASSWORD" help:"basic auth password" yaml:"password"`
	UserAgent string `arg:"--user-agent" help:"user agent sent with every request" default:"fcrepo" yaml:"userAgent"`
	// zero means the default http timeout
	Timeout time.Duration `arg:"--timeout" help:"timeout for a single request" default:"90s" yaml:"timeout"`
	// retries happen at the transport level only for
	// connection errors and 5xx responses
	Retries int `arg:"--retries" help:"number of times to retry a failed request" default:"0" yaml:"retries"`
}

// The config for the transaction key cache
type CacheConfig struct {
	Address  string        `arg:"--cache-address,env:FCREPO_CACHE_ADDRESS" help:"address of the redis server; empty disables the cache" yaml:"address"`
	Password string        `arg:"--cache-password,env:FCREPO_CACHE_PASSWORD" help:"redis password" yaml:"password"`
	DB       int           `arg:"--cache-db" help:"redis database number" default:"0" yaml:"db"`
	TTL      time.Duration `arg:"--cache-ttl" help:"how long a transaction's keys live" default:"1h" yaml:"ttl"`
}

// The config for sparql queries against the triplestore
type SparqlConfig struct {
	Endpoint string `arg:"--sparql-endpoint,env:FCREPO_SPARQL_ENDPOINT" help:"sparql query endpoint of the triplestore" yaml:"endpoint"`
}

type UuidConfig struct {
	Namespace string `arg:"--uuid-namespace" help:"namespace for v5 uuids" default:"islandora.ca" yaml:"namespace"`
}

type TelemetryConfig struct {
	UseOtel      bool   `arg:"--use-otel" help:"export traces with opentelemetry" yaml:"useOtel"`
	OtelEndpoint string `arg:"--otel-endpoint" help:"endpoint of the otel collector" default:"127.0.0.1:4317" yaml:"otelEndpoint"`
}

// Defaults mirrors the go-arg defaults for configs loaded from a file
func Defaults() FcrepoConfig {
	return FcrepoConfig{
		Fedora: FedoraConfig{
			BaseUri:   "http://localhost:8080/fcrepo/rest",
			UserAgent: "fcrepo",
			Timeout:   90 * time.Second,
		},
		Cache:     CacheConfig{TTL: time.Hour},
		Uuid:      UuidConfig{Namespace: "islandora.ca"},
		Telemetry: TelemetryConfig{OtelEndpoint: "127.0.0.1:4317"},
	}
}

// ReadConfigFile reads a yaml config on top of the defaults.
// Unknown keys are an error.
func ReadConfigFile(path string) (FcrepoConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FcrepoConfig{}, err
	}

	conf := Defaults()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&conf); err != nil {
		return FcrepoConfig{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := conf.Fedora.Validate(); err != nil {
		return FcrepoConfig{}, err
	}
	return conf, nil
}

// Validate checks that the base uri is an absolute http(s) url
func (c FedoraConfig) Validate() error {
	if c.BaseUri == "" {
		return fmt.Errorf("missing required field: fedora.baseUri")
	}
	parsed, err := url.Parse(c.BaseUri)
	if err != nil {
		return fmt.Errorf("invalid base uri %s: %w", c.BaseUri, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return fmt.Errorf("base uri %s must be an absolute http or https url", c.BaseUri)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}
	return nil
}
