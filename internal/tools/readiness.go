// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wolfpackai/wolfden-mcp/internal/registry"
	"github.com/wolfpackai/wolfden-mcp/internal/scoring"
)

// NewReadinessTool creates the readiness_check tool. Pure: same
// inputs, same recommendation, no stored state.
func NewReadinessTool(tc *ToolContext) *registry.Tool {
	return &registry.Tool{
		Definition: mcp.NewTool("readiness_check",
			mcp.WithDescription("Assess how ready the athlete is to train today based on sleep, energy, soreness, motivation, stress, and recovery. Missing factors default to neutral values. Returns a recommendation (full_send, moderate, light, rest) with per-factor scores, warnings, and suggestions."),
			mcp.WithNumber("sleepHours",
				mcp.Description("Hours slept last night (0-12)"),
			),
			mcp.WithNumber("sleepQuality",
				mcp.Description("Sleep quality (1-10)"),
			),
			mcp.WithNumber("energyLevel",
				mcp.Description("Current energy level (1-10)"),
			),
			mcp.WithNumber("sorenessLevel",
				mcp.Description("Muscle soreness (1-10, higher = more sore)"),
			),
			mcp.WithNumber("motivationLevel",
				mcp.Description("Motivation to train (1-10)"),
			),
			mcp.WithNumber("stressLevel",
				mcp.Description("Life stress (1-10, higher = more stressed)"),
			),
			mcp.WithNumber("daysSinceRest",
				mcp.Description("Days since the last full rest day"),
			),
			mcp.WithString("feelingDescription",
				mcp.Description("How the athlete says they feel, in their own words"),
			),
		),
		Category: registry.CategoryAssessment,
		NewInput: func() any { return &scoring.ReadinessInput{} },
		Execute: func(ctx context.Context, input any, rc registry.Context) (any, error) {
			in := input.(*scoring.ReadinessInput)
			return scoring.EvaluateReadiness(*in), nil
		},
	}
}
