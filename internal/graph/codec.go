// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/internetofwater/fcrepo/internal/common"

	"github.com/knakk/rdf"
	"github.com/piprate/json-gold/ld"
	log "github.com/sirupsen/logrus"
)

// Codec converts between graphs and their JSON-LD and Turtle serializations
type Codec struct {
	processor *ld.JsonLdProcessor
	options   *ld.JsonLdOptions
}

// NewCodec returns a codec that fetches remote JSON-LD contexts on demand
func NewCodec() *Codec {
	processor, options := newJsonldProcessor()
	return &Codec{processor: processor, options: options}
}

// NewCodecWithContexts returns a codec that serves the JSON-LD contexts in
// prefixToFile from local files instead of fetching them
func NewCodecWithContexts(prefixToFile map[string]string) (*Codec, error) {
	processor, options := newJsonldProcessor()
	if len(prefixToFile) == 0 {
		return &Codec{processor: processor, options: options}, nil
	}

	for prefix, file := range prefixToFile {
		if !fileExists(file) {
			return nil, fmt.Errorf("context file %s for %s does not exist or could not be accessed", file, prefix)
		}
	}

	// the fallbackLoader is what is used if the
	// context cannot be retrieved from the cache
	fallbackLoader := ld.NewDefaultDocumentLoader(common.NewRepositoryHttpClient(common.DefaultTimeout, 3))
	cachingLoader := ld.NewCachingDocumentLoader(fallbackLoader)
	if err := cachingLoader.PreloadWithMapping(prefixToFile); err != nil {
		return nil, err
	}
	options.DocumentLoader = cachingLoader
	return &Codec{processor: processor, options: options}, nil
}

func newJsonldProcessor() (*ld.JsonLdProcessor, *ld.JsonLdOptions) {
	processor := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")
	options.ProcessingMode = ld.JsonLd_1_1
	options.Format = "application/nquads"
	return processor, options
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Errorf("error checking file existence: %v", err)
		}
		return false
	}
	return !info.IsDir()
}

// ParseJSONLD converts a JSON-LD document into a graph. Triples from named
// graphs are merged into the one graph. Empty input yields an empty graph.
func (c *Codec) ParseJSONLD(text string) (*Graph, error) {
	if strings.TrimSpace(text) == "" {
		return New(), nil
	}

	var document interface{}
	if err := json.Unmarshal([]byte(text), &document); err != nil {
		return nil, fmt.Errorf("invalid JSON-LD document: %w", err)
	}

	nquads, err := c.processor.ToRDF(document, c.options)
	if err != nil {
		return nil, fmt.Errorf("failed to convert JSON-LD to rdf: %w", err)
	}
	nquadsText, ok := nquads.(string)
	if !ok {
		return nil, fmt.Errorf("JSON-LD processor returned %T instead of n-quads", nquads)
	}
	return parseNQuads(nquadsText)
}

// parse n-quads and drop the graph name of each quad
func parseNQuads(nquads string) (*Graph, error) {
	if strings.TrimSpace(nquads) == "" {
		return New(), nil
	}
	quads, err := rdf.NewQuadDecoder(strings.NewReader(nquads), rdf.NQuads).DecodeAll()
	if err != nil {
		return nil, fmt.Errorf("failed to decode n-quads: %w", err)
	}
	g := New()
	for _, quad := range quads {
		g.Add(quad.Triple)
	}
	return g, nil
}

func (c *Codec) ParseTurtle(text string) (*Graph, error) {
	if strings.TrimSpace(text) == "" {
		return New(), nil
	}
	triples, err := rdf.NewTripleDecoder(strings.NewReader(text), rdf.Turtle).DecodeAll()
	if err != nil {
		return nil, fmt.Errorf("failed to decode turtle: %w", err)
	}
	return New(triples...), nil
}

// SerializeTurtle writes the graph as turtle using full iris
func (c *Codec) SerializeTurtle(g *Graph) (string, error) {
	return serialize(g, rdf.Turtle)
}

func (c *Codec) SerializeNTriples(g *Graph) (string, error) {
	return serialize(g, rdf.NTriples)
}

func serialize(g *Graph, format rdf.Format) (string, error) {
	if g == nil {
		g = New()
	}
	var buf bytes.Buffer
	encoder := rdf.NewTripleEncoder(&buf, format)
	if err := encoder.EncodeAll(g.Triples()); err != nil {
		return "", fmt.Errorf("failed to encode triples: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to flush encoded triples: %w", err)
	}
	return buf.String(), nil
}
