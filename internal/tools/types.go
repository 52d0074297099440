// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package tools defines the MCP tool surface: the readiness and injury
// assessments, the memory pipeline entry points, and the graph
// query/mutation tools, all registered through internal/registry.
package tools

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wolfpackai/wolfden-mcp/internal/assemble"
	"github.com/wolfpackai/wolfden-mcp/internal/distill"
	"github.com/wolfpackai/wolfden-mcp/internal/graph"
	"github.com/wolfpackai/wolfden-mcp/internal/memory"
	"github.com/wolfpackai/wolfden-mcp/internal/registry"
)

// ToolContext holds shared dependencies for all tools
type ToolContext struct {
	Buffer    *memory.Buffer
	Nodes     *graph.NodeStore
	Edges     *graph.CorrelationGraph
	Distiller *distill.Distiller
	Assembler *assemble.Assembler
	Logger    *zap.Logger
}

// NewToolContext creates a tool context
func NewToolContext(buffer *memory.Buffer, nodes *graph.NodeStore, edges *graph.CorrelationGraph, distiller *distill.Distiller, assembler *assemble.Assembler, logger *zap.Logger) *ToolContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToolContext{
		Buffer:    buffer,
		Nodes:     nodes,
		Edges:     edges,
		Distiller: distiller,
		Assembler: assembler,
		Logger:    logger,
	}
}

// resolveAthlete picks the athlete id from the tool input, falling
// back to the conversation context.
func resolveAthlete(inputID string, rc registry.Context) (string, error) {
	if inputID != "" {
		return inputID, nil
	}
	if rc.UserID != "" {
		return rc.UserID, nil
	}
	return "", fmt.Errorf("no athlete id: provide athleteId or set the conversation context")
}

// RegisterAll registers every tool into the registry
func RegisterAll(reg *registry.Registry, tc *ToolContext) {
	reg.Register(NewReadinessTool(tc))
	reg.Register(NewInjuryTool(tc))
	reg.Register(NewCaptureTool(tc))
	reg.Register(NewDistillTool(tc))
	reg.Register(NewContextTool(tc))
	reg.Register(NewGraphTool(tc))
	reg.Register(NewUpdateNodeTool(tc))
	reg.Register(NewAddCorrelationTool(tc))
}
