// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package assemble renders an athlete's knowledge graph into compact
// summaries for the next orchestration prompt. Read-only: an athlete
// with zero nodes and edges yields an empty summary, not an error.
package assemble

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/wolfpackai/wolfden-mcp/internal/database"
	"github.com/wolfpackai/wolfden-mcp/internal/graph"
	"github.com/wolfpackai/wolfden-mcp/internal/scoring"
)

// CriticalThreshold marks a node as a red flag: anything the athlete
// is actively struggling with (score below 6) always makes the
// context, whatever the topic.
const CriticalThreshold = 6

// HealthyThreshold marks a node as healthy in graph summaries
const HealthyThreshold = 8

// maxCorrelations bounds the correlation lines in one context
const maxCorrelations = 10

// maxRecentInsights bounds the raw memory lines in one context
const maxRecentInsights = 5

// activityKeywords maps activity words in the athlete's query to the
// node keys they load, so "can I dunk today" pulls ankle and knee
// state into context.
var activityKeywords = map[string][]string{
	"dunk":   {"ankle", "knee", "vertical", "calf", "hip"},
	"jump":   {"ankle", "knee", "vertical", "calf"},
	"run":    {"ankle", "knee", "hip", "hamstring", "calf"},
	"shoot":  {"shoulder", "wrist", "elbow", "confidence"},
	"sprint": {"hamstring", "hip", "ankle", "quad"},
	"lift":   {"back", "shoulder", "knee", "core"},
}

// NodeLine is one node rendered for prompt inclusion
type NodeLine struct {
	Key       string `json:"key"`
	Status    string `json:"status"`
	Score     int    `json:"score"`
	Notes     string `json:"notes,omitempty"`
	Formatted string `json:"formatted"`
}

// CorrelationLine is one edge rendered for prompt inclusion
type CorrelationLine struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	Relationship string  `json:"relationship"`
	Strength     float64 `json:"strength"`
	Formatted    string  `json:"formatted"`
}

// Stats summarizes the assembled context
type Stats struct {
	TotalNodes      int  `json:"total_nodes"`
	CriticalCount   int  `json:"critical_count"`
	HasActiveIssues bool `json:"has_active_issues"`
}

// AthleteContext is the assembled summary for one athlete and query
type AthleteContext struct {
	RedFlags          []NodeLine        `json:"red_flags"`
	RelevantContext   []NodeLine        `json:"relevant_context"`
	KnownCorrelations []CorrelationLine `json:"known_correlations"`
	RecentInsights    []string          `json:"recent_insights"`
	Stats             Stats             `json:"stats"`
}

// GraphSummary is the dashboard view of the full graph
type GraphSummary struct {
	Total     int `json:"total"`
	Critical  int `json:"critical"`
	Healthy   int `json:"healthy"`
	Improving int `json:"improving"`
}

// FullGraph is the complete node/edge dump for one athlete
type FullGraph struct {
	Nodes        []database.WolfNode            `json:"nodes"`
	Correlations []database.WolfCorrelation     `json:"correlations"`
	ByCategory   map[string][]database.WolfNode `json:"by_category"`
	Summary      GraphSummary                   `json:"summary"`
}

// Assembler builds athlete context from the graph stores
type Assembler struct {
	db    *gorm.DB
	nodes *graph.NodeStore
	edges *graph.CorrelationGraph
}

// New creates an assembler over the graph stores
func New(db *gorm.DB, nodes *graph.NodeStore, edges *graph.CorrelationGraph) *Assembler {
	return &Assembler{db: db, nodes: nodes, edges: edges}
}

// Assemble builds the context for one athlete. The red list (score
// below 6) is always included; the rest of the nodes are filtered to
// ones relevant to the query's keywords and activity words.
func (a *Assembler) Assemble(athleteID, userQuery string) (*AthleteContext, error) {
	allNodes, err := a.nodes.All(athleteID)
	if err != nil {
		return nil, err
	}
	allEdges, err := a.edges.All(athleteID)
	if err != nil {
		return nil, err
	}

	ctx := &AthleteContext{
		RedFlags:          []NodeLine{},
		RelevantContext:   []NodeLine{},
		KnownCorrelations: []CorrelationLine{},
		RecentInsights:    []string{},
	}

	relevantKeys := relevantNodeKeys(userQuery, allNodes)

	for _, node := range allNodes {
		if node.Score < CriticalThreshold {
			ctx.RedFlags = append(ctx.RedFlags, NodeLine{
				Key:    node.Key,
				Status: node.Status,
				Score:  node.Score,
				Notes:  node.Notes,
				Formatted: fmt.Sprintf("%s is CRITICAL - %s (Score: %d/10)",
					humanize(node.Key), node.Status, node.Score),
			})
			continue
		}
		if _, ok := relevantKeys[node.Key]; ok {
			ctx.RelevantContext = append(ctx.RelevantContext, NodeLine{
				Key:    node.Key,
				Status: node.Status,
				Score:  node.Score,
				Formatted: fmt.Sprintf("%s: %s (%d/10)",
					humanize(node.Key), node.Status, node.Score),
			})
		}
	}

	for i, edge := range allEdges {
		if i >= maxCorrelations {
			break
		}
		ctx.KnownCorrelations = append(ctx.KnownCorrelations, CorrelationLine{
			From:         edge.FromNode,
			To:           edge.ToNode,
			Relationship: edge.Relationship,
			Strength:     edge.Strength,
			Formatted: fmt.Sprintf("%s %s %s (%s)",
				edge.FromNode, edge.Relationship, edge.ToNode,
				scoring.FormatConfidence(edge.Strength)),
		})
	}

	insights, err := a.recentInsights(athleteID)
	if err != nil {
		return nil, err
	}
	ctx.RecentInsights = insights

	ctx.Stats = Stats{
		TotalNodes:      len(allNodes),
		CriticalCount:   len(ctx.RedFlags),
		HasActiveIssues: len(ctx.RedFlags) > 0,
	}

	return ctx, nil
}

// Graph returns the full node/edge dump grouped by category
func (a *Assembler) Graph(athleteID string) (*FullGraph, error) {
	nodes, err := a.nodes.All(athleteID)
	if err != nil {
		return nil, err
	}
	edges, err := a.edges.All(athleteID)
	if err != nil {
		return nil, err
	}

	fg := &FullGraph{
		Nodes:        nodes,
		Correlations: edges,
		ByCategory:   make(map[string][]database.WolfNode),
	}
	for _, node := range nodes {
		fg.ByCategory[node.Category] = append(fg.ByCategory[node.Category], node)
		fg.Summary.Total++
		if node.Score < CriticalThreshold {
			fg.Summary.Critical++
		}
		if node.Score >= HealthyThreshold {
			fg.Summary.Healthy++
		}
		if node.Status == "Improving" {
			fg.Summary.Improving++
		}
	}

	return fg, nil
}

// HasActiveIssues reports whether the athlete has any critical node
func (a *Assembler) HasActiveIssues(athleteID string) (bool, int, error) {
	var count int64
	err := a.db.Model(&database.WolfNode{}).
		Where("athlete_id = ? AND score < ?", athleteID, CriticalThreshold).
		Count(&count).Error
	if err != nil {
		return false, 0, fmt.Errorf("failed to count critical nodes: %w", err)
	}
	return count > 0, int(count), nil
}

func (a *Assembler) recentInsights(athleteID string) ([]string, error) {
	var mems []database.WolfMemory
	err := a.db.Where("athlete_id = ?", athleteID).
		Order("extracted_at desc, id desc").
		Limit(maxRecentInsights).
		Find(&mems).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent memories: %w", err)
	}
	insights := make([]string, 0, len(mems))
	for _, m := range mems {
		insights = append(insights, m.Content)
	}
	return insights, nil
}

// relevantNodeKeys matches query keywords against node keys, both
// directly and through the activity mappings.
func relevantNodeKeys(userQuery string, nodes []database.WolfNode) map[string]struct{} {
	keys := make(map[string]struct{})
	keywords := strings.Fields(strings.ToLower(userQuery))

	for _, node := range nodes {
		for _, kw := range keywords {
			if len(kw) > 3 && strings.Contains(node.Key, kw) {
				keys[node.Key] = struct{}{}
			}
		}
	}

	for _, kw := range keywords {
		parts, ok := activityKeywords[kw]
		if !ok {
			continue
		}
		for _, node := range nodes {
			for _, part := range parts {
				if strings.Contains(node.Key, part) {
					keys[node.Key] = struct{}{}
				}
			}
		}
	}

	return keys
}

func humanize(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}
