// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wolfpackai/wolfden-mcp/internal/registry"
)

// ContextInput is the athlete_context tool input
type ContextInput struct {
	AthleteID string `json:"athleteId,omitempty"`
	Query     string `json:"query,omitempty"`
}

// NewContextTool creates the athlete_context tool
func NewContextTool(tc *ToolContext) *registry.Tool {
	return &registry.Tool{
		Definition: mcp.NewTool("athlete_context",
			mcp.WithDescription("Assemble the athlete's current state for the conversation: critical issues (always included), nodes relevant to the query, known correlations, and recent observations. Safe for unknown athletes (empty context)."),
			mcp.WithString("athleteId",
				mcp.Description("Athlete to summarize (defaults to the conversation's athlete)"),
			),
			mcp.WithString("query",
				mcp.Description("What the athlete is asking about, used to pick relevant nodes"),
			),
		),
		Category: registry.CategoryGraph,
		NewInput: func() any { return &ContextInput{} },
		Execute: func(ctx context.Context, input any, rc registry.Context) (any, error) {
			in := input.(*ContextInput)
			athleteID, err := resolveAthlete(in.AthleteID, rc)
			if err != nil {
				return nil, err
			}
			return tc.Assembler.Assemble(athleteID, in.Query)
		},
	}
}

// GraphInput is the athlete_graph tool input
type GraphInput struct {
	AthleteID string `json:"athleteId,omitempty"`
}

// NewGraphTool creates the athlete_graph tool
func NewGraphTool(tc *ToolContext) *registry.Tool {
	return &registry.Tool{
		Definition: mcp.NewTool("athlete_graph",
			mcp.WithDescription("Dump the athlete's full knowledge graph: every node grouped by category, every correlation, and summary counts (critical, healthy, improving)."),
			mcp.WithString("athleteId",
				mcp.Description("Athlete to dump (defaults to the conversation's athlete)"),
			),
		),
		Category: registry.CategoryGraph,
		NewInput: func() any { return &GraphInput{} },
		Execute: func(ctx context.Context, input any, rc registry.Context) (any, error) {
			in := input.(*GraphInput)
			athleteID, err := resolveAthlete(in.AthleteID, rc)
			if err != nil {
				return nil, err
			}
			return tc.Assembler.Graph(athleteID)
		},
	}
}
