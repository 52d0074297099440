// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package memory holds the capture buffer for raw athlete observations
// and the extraction contract that turns them into graph updates.
package memory

// NodeDelta is one node-level consequence of a memory: create or merge
// the node under Key. Score sets the score absolutely, ScoreDelta
// adjusts it; both optional.
type NodeDelta struct {
	Key        string
	Category   string
	Status     string
	Score      *int
	ScoreDelta *int
	Notes      string
}

// EdgeDelta is one correlation-level consequence of a memory
type EdgeDelta struct {
	From         string
	To           string
	Relationship string
	Increment    int
}

// Extraction is everything an extractor derived from one memory
type Extraction struct {
	Nodes []NodeDelta
	Edges []EdgeDelta
}

// Extractor maps a memory's type and content into node and edge
// deltas. Implementations must be deterministic for a given input;
// the distiller applies their output without further interpretation.
// The built-in RuleExtractor is pattern-based; an LLM-backed
// implementation can be swapped in behind this interface.
type Extractor interface {
	Extract(memoryType, content string) (Extraction, error)
}
