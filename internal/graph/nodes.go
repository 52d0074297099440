// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package graph holds the upsert-oriented stores behind the athlete
// knowledge graph: scored nodes and confidence-weighted correlations.
package graph

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wolfpackai/wolfden-mcp/internal/database"
	"github.com/wolfpackai/wolfden-mcp/internal/scoring"
)

// BaseScore is the score a node starts from when it is created by a
// delta-only update.
const BaseScore = 6

// NodeUpdate describes one node upsert. Score sets the score
// absolutely; ScoreDelta adjusts the current score (or BaseScore on
// create). When both are set, Score wins and the delta is ignored.
type NodeUpdate struct {
	Key        string
	Category   string
	Status     string
	Score      *int
	ScoreDelta *int
	Notes      string
}

// NodeStore manages athlete nodes. Scores are clamped to [1,10] on
// every write; out-of-range values come from heuristic extraction, so
// they are corrected rather than rejected.
type NodeStore struct {
	db *gorm.DB
}

// NewNodeStore creates a node store over db
func NewNodeStore(db *gorm.DB) *NodeStore {
	return &NodeStore{db: db}
}

// Upsert creates the node on first reference or merges the update into
// the existing row: status and notes are last-write-wins when
// non-empty, score is absolute or delta-adjusted, lastUpdated is bumped
// on every write. Nodes are never deleted.
func (s *NodeStore) Upsert(athleteID string, update NodeUpdate) (*database.WolfNode, error) {
	if athleteID == "" || update.Key == "" {
		return nil, fmt.Errorf("node upsert requires athlete id and key")
	}

	now := time.Now()

	var node database.WolfNode
	err := s.db.Where("athlete_id = ? AND key = ?", athleteID, update.Key).First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		node = database.WolfNode{
			AthleteID:   athleteID,
			Key:         update.Key,
			Category:    update.Category,
			Status:      update.Status,
			Notes:       update.Notes,
			LastUpdated: now,
		}
		if node.Category == "" {
			node.Category = database.NodeCategoryMetric
		}
		if node.Status == "" {
			node.Status = "Noted"
		}
		score := BaseScore
		if update.Score != nil {
			score = *update.Score
		}
		if update.Score == nil && update.ScoreDelta != nil {
			score += *update.ScoreDelta
		}
		node.Score = scoring.ClampInt(score, 1, 10)
		if err := s.db.Create(&node).Error; err != nil {
			return nil, fmt.Errorf("failed to create node %s: %w", update.Key, err)
		}
		return &node, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up node %s: %w", update.Key, err)
	}

	if update.Category != "" {
		node.Category = update.Category
	}
	if update.Status != "" {
		node.Status = update.Status
	}
	if update.Notes != "" {
		node.Notes = update.Notes
	}
	score := node.Score
	if update.Score != nil {
		score = *update.Score
	} else if update.ScoreDelta != nil {
		score += *update.ScoreDelta
	}
	node.Score = scoring.ClampInt(score, 1, 10)
	node.LastUpdated = now

	if err := s.db.Save(&node).Error; err != nil {
		return nil, fmt.Errorf("failed to update node %s: %w", update.Key, err)
	}
	return &node, nil
}

// Get returns the node for (athleteID, key), or gorm.ErrRecordNotFound
func (s *NodeStore) Get(athleteID, key string) (*database.WolfNode, error) {
	var node database.WolfNode
	err := s.db.Where("athlete_id = ? AND key = ?", athleteID, key).First(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// All returns every node for the athlete, ordered by key. An athlete
// with no nodes yields an empty slice, not an error.
func (s *NodeStore) All(athleteID string) ([]database.WolfNode, error) {
	var nodes []database.WolfNode
	err := s.db.Where("athlete_id = ?", athleteID).Order("key asc").Find(&nodes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return nodes, nil
}
