// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package distill turns buffered raw observations into knowledge-graph
// updates. A pass reads an athlete's unprocessed memories in
// extraction order, maps each one to node and edge deltas, applies
// them, and flips the processed flag. Passes are serialized per
// athlete; replaying a processed memory is a no-op.
package distill

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wolfpackai/wolfden-mcp/internal/graph"
	"github.com/wolfpackai/wolfden-mcp/internal/locking"
	"github.com/wolfpackai/wolfden-mcp/internal/memory"
)

// Result summarizes one distillation pass
type Result struct {
	AthleteID    string `json:"athlete_id"`
	Processed    int    `json:"processed"`
	NodesUpdated int    `json:"nodes_updated"`
	EdgesUpdated int    `json:"edges_updated"`
	SkippedEmpty int    `json:"skipped_empty"`
}

// Distiller runs distillation passes
type Distiller struct {
	buffer    *memory.Buffer
	nodes     *graph.NodeStore
	edges     *graph.CorrelationGraph
	extractor memory.Extractor
	locker    *locking.Locker
	logger    *zap.Logger
}

// New creates a distiller over the given stores
func New(buffer *memory.Buffer, nodes *graph.NodeStore, edges *graph.CorrelationGraph, extractor memory.Extractor, locker *locking.Locker, logger *zap.Logger) *Distiller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Distiller{
		buffer:    buffer,
		nodes:     nodes,
		edges:     edges,
		extractor: extractor,
		locker:    locker,
		logger:    logger,
	}
}

// Distill runs one pass for the athlete under the per-athlete lock.
// Returns *locking.LockError when another pass is already running.
func (d *Distiller) Distill(ctx context.Context, athleteID string) (*Result, error) {
	if athleteID == "" {
		return nil, fmt.Errorf("distill requires an athlete id")
	}

	ownerID := "distill-" + uuid.NewString()
	result := &Result{AthleteID: athleteID}

	err := d.locker.WithLock(athleteID, ownerID, func() error {
		return d.runPass(ctx, athleteID, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Distiller) runPass(ctx context.Context, athleteID string, result *Result) error {
	mems, err := d.buffer.Unprocessed(athleteID)
	if err != nil {
		return err
	}

	for _, mem := range mems {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Claim the memory before touching the graph: the flag is the
		// idempotence guard, so a replay (or a racing pass) sees zero
		// rows affected and skips without mutating anything.
		claimed, err := d.buffer.MarkProcessed(mem.ID)
		if err != nil {
			return err
		}
		if claimed == 0 {
			continue
		}

		extraction, err := d.extractor.Extract(mem.MemoryType, mem.Content)
		if err != nil {
			return fmt.Errorf("extraction failed for memory %s: %w", mem.UUID, err)
		}

		if len(extraction.Nodes) == 0 && len(extraction.Edges) == 0 {
			result.Processed++
			result.SkippedEmpty++
			continue
		}

		for _, delta := range extraction.Nodes {
			if _, err := d.nodes.Upsert(athleteID, graph.NodeUpdate{
				Key:        delta.Key,
				Category:   delta.Category,
				Status:     delta.Status,
				Score:      delta.Score,
				ScoreDelta: delta.ScoreDelta,
				Notes:      delta.Notes,
			}); err != nil {
				return fmt.Errorf("node upsert failed for memory %s: %w", mem.UUID, err)
			}
			result.NodesUpdated++
		}

		for _, delta := range extraction.Edges {
			if _, err := d.edges.Observe(athleteID, graph.Observation{
				FromNode:     delta.From,
				ToNode:       delta.To,
				Relationship: delta.Relationship,
				Increment:    delta.Increment,
			}); err != nil {
				return fmt.Errorf("correlation upsert failed for memory %s: %w", mem.UUID, err)
			}
			result.EdgesUpdated++
		}

		result.Processed++
	}

	d.logger.Info("distillation pass complete",
		zap.String("athlete", athleteID),
		zap.Int("processed", result.Processed),
		zap.Int("nodes_updated", result.NodesUpdated),
		zap.Int("edges_updated", result.EdgesUpdated))

	return nil
}

// DistillAll runs a pass for every athlete with unprocessed memories.
// Lock conflicts are skipped, not fatal: the holder is already doing
// the work.
func (d *Distiller) DistillAll(ctx context.Context) ([]Result, error) {
	athletes, err := d.buffer.UnprocessedAthletes()
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(athletes))
	for _, athleteID := range athletes {
		res, err := d.Distill(ctx, athleteID)
		if err != nil {
			var lockErr *locking.LockError
			if errors.As(err, &lockErr) {
				d.logger.Debug("skipping locked athlete", zap.String("athlete", athleteID))
				continue
			}
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}
