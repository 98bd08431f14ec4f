// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"github.com/knakk/rdf"
)

// Graph is an ordered set of triples describing one or more resources
type Graph struct {
	triples []rdf.Triple
}

func New(triples ...rdf.Triple) *Graph {
	g := &Graph{}
	g.Add(triples...)
	return g
}

// Add triples, skipping any already in the graph
func (g *Graph) Add(triples ...rdf.Triple) {
	for _, t := range triples {
		if !g.Contains(t) {
			g.triples = append(g.triples, t)
		}
	}
}

func (g *Graph) Contains(t rdf.Triple) bool {
	key := t.Serialize(rdf.NTriples)
	for _, existing := range g.triples {
		if existing.Serialize(rdf.NTriples) == key {
			return true
		}
	}
	return false
}

func (g *Graph) Triples() []rdf.Triple {
	return append([]rdf.Triple(nil), g.triples...)
}

func (g *Graph) Len() int {
	return len(g.triples)
}

// Values returns every object of the given subject and predicate iri
func (g *Graph) Values(subject, predicate string) []rdf.Object {
	var objects []rdf.Object
	for _, t := range g.triples {
		if t.Subj.String() == subject && t.Pred.String() == predicate {
			objects = append(objects, t.Obj)
		}
	}
	return objects
}

// Get the first object of the given subject and predicate iri
func (g *Graph) Get(subject, predicate string) (rdf.Object, bool) {
	values := g.Values(subject, predicate)
	if len(values) == 0 {
		return nil, false
	}
	return values[0], true
}

// Subjects in the order they first appear
func (g *Graph) Subjects() []string {
	seen := map[string]bool{}
	var subjects []string
	for _, t := range g.triples {
		s := t.Subj.String()
		if !seen[s] {
			seen[s] = true
			subjects = append(subjects, s)
		}
	}
	return subjects
}

// Build a triple whose subject and predicate are iris
func NewTriple(subject, predicate string, object rdf.Object) (rdf.Triple, error) {
	subj, err := rdf.NewIRI(subject)
	if err != nil {
		return rdf.Triple{}, err
	}
	pred, err := rdf.NewIRI(predicate)
	if err != nil {
		return rdf.Triple{}, err
	}
	return rdf.Triple{Subj: subj, Pred: pred, Obj: object}, nil
}
