// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wolfpackai/wolfden-mcp/internal/registry"
)

// DistillInput is the memory_distill tool input
type DistillInput struct {
	AthleteID string `json:"athleteId,omitempty"`
}

// NewDistillTool creates the memory_distill tool
func NewDistillTool(tc *ToolContext) *registry.Tool {
	return &registry.Tool{
		Definition: mcp.NewTool("memory_distill",
			mcp.WithDescription("Run a distillation pass: fold the athlete's unprocessed memories into their knowledge graph (node scores, statuses, correlations). Each memory is applied at most once; a pass with nothing pending is a no-op."),
			mcp.WithString("athleteId",
				mcp.Description("Athlete to distill (defaults to the conversation's athlete)"),
			),
		),
		Category:    registry.CategoryMemory,
		SideEffects: true,
		NewInput:    func() any { return &DistillInput{} },
		Execute: func(ctx context.Context, input any, rc registry.Context) (any, error) {
			in := input.(*DistillInput)
			athleteID, err := resolveAthlete(in.AthleteID, rc)
			if err != nil {
				return nil, err
			}
			return tc.Distiller.Distill(ctx, athleteID)
		},
	}
}
