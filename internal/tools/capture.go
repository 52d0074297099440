// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wolfpackai/wolfden-mcp/internal/memory"
	"github.com/wolfpackai/wolfden-mcp/internal/registry"
)

// CaptureInput is the memory_capture tool input. With a memoryType it
// stores the content as one memory; without one it scans the content
// for pain, progress, and goal mentions and stores whatever it finds.
type CaptureInput struct {
	AthleteID     string `json:"athleteId,omitempty"`
	Content       string `json:"content" validate:"required"`
	MemoryType    string `json:"memoryType,omitempty" validate:"omitempty,oneof=injury goal progress emotion preference context"`
	SourceMessage string `json:"sourceMessage,omitempty"`
}

// CaptureResult reports what was stored
type CaptureResult struct {
	AthleteID string   `json:"athlete_id"`
	Captured  int      `json:"captured"`
	UUIDs     []string `json:"uuids"`
}

// NewCaptureTool creates the memory_capture tool
func NewCaptureTool(tc *ToolContext) *registry.Tool {
	return &registry.Tool{
		Definition: mcp.NewTool("memory_capture",
			mcp.WithDescription("Store an observation about the athlete for later distillation into their knowledge graph. Provide memoryType to store the content as-is, or omit it to auto-scan the content for pain, progress, and goal mentions."),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("The observation text, or the raw athlete message to scan"),
			),
			mcp.WithString("memoryType",
				mcp.Description("Memory type: injury, goal, progress, emotion, preference, context. Omit to auto-scan."),
			),
			mcp.WithString("sourceMessage",
				mcp.Description("Original athlete utterance, kept for audit"),
			),
			mcp.WithString("athleteId",
				mcp.Description("Athlete to record against (defaults to the conversation's athlete)"),
			),
		),
		Category:    registry.CategoryMemory,
		SideEffects: true,
		NewInput:    func() any { return &CaptureInput{} },
		Execute: func(ctx context.Context, input any, rc registry.Context) (any, error) {
			in := input.(*CaptureInput)
			athleteID, err := resolveAthlete(in.AthleteID, rc)
			if err != nil {
				return nil, err
			}

			result := &CaptureResult{AthleteID: athleteID, UUIDs: []string{}}

			if in.MemoryType != "" {
				mem, err := tc.Buffer.Capture(memory.CaptureRequest{
					AthleteID:     athleteID,
					Content:       in.Content,
					MemoryType:    in.MemoryType,
					SourceMessage: in.SourceMessage,
				})
				if err != nil {
					return nil, err
				}
				result.Captured = 1
				result.UUIDs = append(result.UUIDs, mem.UUID)
				return result, nil
			}

			for _, obs := range memory.ScanMessage(in.Content) {
				mem, err := tc.Buffer.Capture(memory.CaptureRequest{
					AthleteID:     athleteID,
					Content:       obs.Content,
					MemoryType:    obs.MemoryType,
					SourceMessage: in.Content,
				})
				if err != nil {
					return nil, err
				}
				result.Captured++
				result.UUIDs = append(result.UUIDs, mem.UUID)
			}

			return result, nil
		},
	}
}
