// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/wolfpackai/wolfden-mcp/internal/database"
	"github.com/wolfpackai/wolfden-mcp/internal/memory"
	"github.com/wolfpackai/wolfden-mcp/internal/registry"
	"github.com/wolfpackai/wolfden-mcp/internal/scoring"
)

// InjuryToolInput wraps the assessment input with an optional athlete
// id for the memory side effect.
type InjuryToolInput struct {
	scoring.InjuryInput
	AthleteID string `json:"athleteId,omitempty"`
}

// NewInjuryTool creates the injury_protocol tool. Side effect: a
// moderate or worse assessment appends an injury memory for the
// athlete, so the next distillation pass lowers the affected node.
func NewInjuryTool(tc *ToolContext) *registry.Tool {
	return &registry.Tool{
		Definition: mcp.NewTool("injury_protocol",
			mcp.WithDescription("Triage a reported injury into a severity band (minor, moderate, serious, emergency), select a recovery protocol, and flag anything needing professional attention. Moderate or worse assessments are recorded in the athlete's memory."),
			mcp.WithString("bodyPart",
				mcp.Required(),
				mcp.Description("Affected body part (e.g. ankle, knee, hamstring)"),
			),
			mcp.WithString("injuryType",
				mcp.Required(),
				mcp.Description("Type of pain/injury: soreness, sharp_pain, dull_ache, swelling, stiffness, instability, weakness, numbness, popping"),
			),
			mcp.WithNumber("painLevel",
				mcp.Required(),
				mcp.Description("Pain level (1-10)"),
			),
			mcp.WithString("mechanism",
				mcp.Description("How it happened"),
			),
			mcp.WithString("duration",
				mcp.Required(),
				mcp.Description("How long ago it started: just_now, today, few_days, week_plus"),
			),
			mcp.WithBoolean("canFunction",
				mcp.Required(),
				mcp.Description("Can the athlete bear weight / use the area?"),
			),
			mcp.WithString("athleteId",
				mcp.Description("Athlete to record the injury against (defaults to the conversation's athlete)"),
			),
		),
		Category:    registry.CategoryAssessment,
		SideEffects: true,
		NewInput:    func() any { return &InjuryToolInput{} },
		Execute: func(ctx context.Context, input any, rc registry.Context) (any, error) {
			in := input.(*InjuryToolInput)
			out := scoring.AssessInjury(in.InjuryInput)

			if out.Severity != scoring.SeverityMinor {
				athleteID, err := resolveAthlete(in.AthleteID, rc)
				if err != nil {
					// Assessment still stands; only the memory is lost
					tc.Logger.Warn("injury not recorded, no athlete id", zap.Error(err))
					return out, nil
				}

				content := fmt.Sprintf("Reported %s %s, pain %d/10, severity %s",
					in.BodyPart, in.InjuryType, in.PainLevel, out.Severity)
				if _, err := tc.Buffer.Capture(memory.CaptureRequest{
					AthleteID:     athleteID,
					Content:       content,
					MemoryType:    database.MemoryTypeInjury,
					SourceMessage: in.Mechanism,
				}); err != nil {
					return nil, fmt.Errorf("failed to record injury memory: %w", err)
				}
			}

			return out, nil
		},
	}
}
