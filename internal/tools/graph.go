// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wolfpackai/wolfden-mcp/internal/graph"
	"github.com/wolfpackai/wolfden-mcp/internal/registry"
)

// UpdateNodeInput is the update_node tool input. Score and scoreDelta
// are deliberately unbounded here: out-of-range values are clamped at
// the store, not rejected.
type UpdateNodeInput struct {
	AthleteID  string `json:"athleteId,omitempty"`
	Key        string `json:"key" validate:"required"`
	Category   string `json:"category,omitempty" validate:"omitempty,oneof=body_part metric mental recovery"`
	Status     string `json:"status,omitempty"`
	Score      *int   `json:"score,omitempty"`
	ScoreDelta *int   `json:"scoreDelta,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// NewUpdateNodeTool creates the update_node tool for manual coach
// adjustments outside the distillation pipeline.
func NewUpdateNodeTool(tc *ToolContext) *registry.Tool {
	return &registry.Tool{
		Definition: mcp.NewTool("update_node",
			mcp.WithDescription("Create or update one node in the athlete's knowledge graph directly. Scores are clamped to 1-10."),
			mcp.WithString("key",
				mcp.Required(),
				mcp.Description("Node key, e.g. left_knee or shooting_confidence"),
			),
			mcp.WithString("category",
				mcp.Description("Node category: body_part, metric, mental, recovery"),
			),
			mcp.WithString("status",
				mcp.Description("Status label, e.g. Healthy, Sore, Improving"),
			),
			mcp.WithNumber("score",
				mcp.Description("Absolute score (clamped to 1-10)"),
			),
			mcp.WithNumber("scoreDelta",
				mcp.Description("Adjustment to the current score (ignored when score is set)"),
			),
			mcp.WithString("notes",
				mcp.Description("Free text context"),
			),
			mcp.WithString("athleteId",
				mcp.Description("Athlete to update (defaults to the conversation's athlete)"),
			),
		),
		Category:    registry.CategoryGraph,
		SideEffects: true,
		NewInput:    func() any { return &UpdateNodeInput{} },
		Execute: func(ctx context.Context, input any, rc registry.Context) (any, error) {
			in := input.(*UpdateNodeInput)
			athleteID, err := resolveAthlete(in.AthleteID, rc)
			if err != nil {
				return nil, err
			}
			return tc.Nodes.Upsert(athleteID, graph.NodeUpdate{
				Key:        in.Key,
				Category:   in.Category,
				Status:     in.Status,
				Score:      in.Score,
				ScoreDelta: in.ScoreDelta,
				Notes:      in.Notes,
			})
		},
	}
}

// AddCorrelationInput is the add_correlation tool input
type AddCorrelationInput struct {
	AthleteID    string   `json:"athleteId,omitempty"`
	FromNode     string   `json:"fromNode" validate:"required"`
	ToNode       string   `json:"toNode" validate:"required"`
	Relationship string   `json:"relationship" validate:"required,oneof=CAUSES IMPROVES BLOCKS CORRELATES"`
	Strength     *float64 `json:"strength,omitempty"`
	Increment    int      `json:"increment,omitempty"`
}

// NewAddCorrelationTool creates the add_correlation tool. Repeated
// observations of the same edge reinforce it rather than duplicating.
func NewAddCorrelationTool(tc *ToolContext) *registry.Tool {
	return &registry.Tool{
		Definition: mcp.NewTool("add_correlation",
			mcp.WithDescription("Record that one factor affects another for this athlete (e.g. poor_sleep CAUSES knee_pain). First observation seeds a low-confidence edge; re-observing strengthens it."),
			mcp.WithString("fromNode",
				mcp.Required(),
				mcp.Description("Source node key"),
			),
			mcp.WithString("toNode",
				mcp.Required(),
				mcp.Description("Target node key"),
			),
			mcp.WithString("relationship",
				mcp.Required(),
				mcp.Description("Relationship type: CAUSES, IMPROVES, BLOCKS, CORRELATES"),
			),
			mcp.WithNumber("strength",
				mcp.Description("Seed strength for a new edge (0-1, clamped); ignored for existing edges"),
			),
			mcp.WithNumber("increment",
				mcp.Description("How many observations to record (default 1)"),
			),
			mcp.WithString("athleteId",
				mcp.Description("Athlete to update (defaults to the conversation's athlete)"),
			),
		),
		Category:    registry.CategoryGraph,
		SideEffects: true,
		NewInput:    func() any { return &AddCorrelationInput{} },
		Execute: func(ctx context.Context, input any, rc registry.Context) (any, error) {
			in := input.(*AddCorrelationInput)
			athleteID, err := resolveAthlete(in.AthleteID, rc)
			if err != nil {
				return nil, err
			}
			return tc.Edges.Observe(athleteID, graph.Observation{
				FromNode:     in.FromNode,
				ToNode:       in.ToNode,
				Relationship: in.Relationship,
				Increment:    in.Increment,
				Seed:         in.Strength,
			})
		},
	}
}
