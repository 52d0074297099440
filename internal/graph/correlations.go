// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package graph

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wolfpackai/wolfden-mcp/internal/database"
	"github.com/wolfpackai/wolfden-mcp/internal/scoring"
)

// Reinforcement constants. A new edge is seeded low; each
// re-observation nudges strength toward 1 with diminishing returns:
// strength' = strength + (1 - strength) * ReinforcementK.
const (
	SeedStrength   = 0.3
	ReinforcementK = 0.15
)

// Observation describes one correlation upsert. Increment is how many
// observations to record (minimum 1); Seed overrides the default seed
// strength when the edge is first created.
type Observation struct {
	FromNode     string
	ToNode       string
	Relationship string
	Increment    int
	Seed         *float64
}

// CorrelationGraph manages the typed edges between node keys. Edges
// may anticipate nodes: neither endpoint has to exist in the node
// store. Strength is clamped to [0,1] on every write.
type CorrelationGraph struct {
	db *gorm.DB
}

// NewCorrelationGraph creates a correlation graph over db
func NewCorrelationGraph(db *gorm.DB) *CorrelationGraph {
	return &CorrelationGraph{db: db}
}

// Observe upserts the edge keyed by (athleteID, from, to,
// relationship). First observation creates the edge with the seed
// strength; re-observation increments observedCount and reinforces
// strength once per increment. Count strictly increases and strength
// never decreases.
func (g *CorrelationGraph) Observe(athleteID string, obs Observation) (*database.WolfCorrelation, error) {
	if athleteID == "" || obs.FromNode == "" || obs.ToNode == "" {
		return nil, fmt.Errorf("correlation requires athlete id and both endpoints")
	}
	if !database.IsValidRelationship(obs.Relationship) {
		return nil, fmt.Errorf("invalid relationship %q", obs.Relationship)
	}

	increment := obs.Increment
	if increment < 1 {
		increment = 1
	}
	now := time.Now()

	var edge database.WolfCorrelation
	err := g.db.Where(
		"athlete_id = ? AND from_node = ? AND to_node = ? AND relationship = ?",
		athleteID, obs.FromNode, obs.ToNode, obs.Relationship,
	).First(&edge).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		seed := SeedStrength
		if obs.Seed != nil {
			seed = *obs.Seed
		}
		edge = database.WolfCorrelation{
			AthleteID:     athleteID,
			FromNode:      obs.FromNode,
			ToNode:        obs.ToNode,
			Relationship:  obs.Relationship,
			Strength:      scoring.Clamp(seed, 0, 1),
			ObservedAt:    now,
			ObservedCount: 1,
		}
		// An increment above 1 on a new edge counts the extra
		// observations as reinforcements.
		for i := 1; i < increment; i++ {
			edge.ObservedCount++
			edge.Strength = reinforce(edge.Strength)
		}
		if err := g.db.Create(&edge).Error; err != nil {
			return nil, fmt.Errorf("failed to create correlation %s->%s: %w", obs.FromNode, obs.ToNode, err)
		}
		return &edge, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up correlation %s->%s: %w", obs.FromNode, obs.ToNode, err)
	}

	for i := 0; i < increment; i++ {
		edge.ObservedCount++
		edge.Strength = reinforce(edge.Strength)
	}
	edge.ObservedAt = now

	if err := g.db.Save(&edge).Error; err != nil {
		return nil, fmt.Errorf("failed to update correlation %s->%s: %w", obs.FromNode, obs.ToNode, err)
	}
	return &edge, nil
}

func reinforce(strength float64) float64 {
	return scoring.Clamp(strength+(1-strength)*ReinforcementK, 0, 1)
}

// Get returns the edge for the full tuple, or gorm.ErrRecordNotFound
func (g *CorrelationGraph) Get(athleteID, from, to, relationship string) (*database.WolfCorrelation, error) {
	var edge database.WolfCorrelation
	err := g.db.Where(
		"athlete_id = ? AND from_node = ? AND to_node = ? AND relationship = ?",
		athleteID, from, to, relationship,
	).First(&edge).Error
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// All returns every edge for the athlete, strongest first
func (g *CorrelationGraph) All(athleteID string) ([]database.WolfCorrelation, error) {
	var edges []database.WolfCorrelation
	err := g.db.Where("athlete_id = ?", athleteID).
		Order("strength desc, from_node asc").
		Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list correlations: %w", err)
	}
	return edges, nil
}
