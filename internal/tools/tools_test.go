// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wolfpackai/wolfden-mcp/internal/assemble"
	"github.com/wolfpackai/wolfden-mcp/internal/database"
	"github.com/wolfpackai/wolfden-mcp/internal/distill"
	"github.com/wolfpackai/wolfden-mcp/internal/graph"
	"github.com/wolfpackai/wolfden-mcp/internal/locking"
	"github.com/wolfpackai/wolfden-mcp/internal/memory"
	"github.com/wolfpackai/wolfden-mcp/internal/registry"
	"github.com/wolfpackai/wolfden-mcp/internal/scoring"
)

type fixture struct {
	db  *gorm.DB
	reg *registry.Registry
	tc  *ToolContext
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect(&database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:   gormlogger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	buffer := memory.NewBuffer(db, nil, nil)
	nodes := graph.NewNodeStore(db)
	edges := graph.NewCorrelationGraph(db)
	distiller := distill.New(buffer, nodes, edges, memory.NewRuleExtractor(), locking.NewLocker(db), nil)
	assembler := assemble.New(db, nodes, edges)

	tc := NewToolContext(buffer, nodes, edges, distiller, assembler, nil)
	reg := registry.New(nil)
	RegisterAll(reg, tc)

	return &fixture{db: db, reg: reg, tc: tc}
}

func (f *fixture) call(t *testing.T, tool string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	registered := f.reg.Get(tool)
	require.NotNil(t, registered, "tool %s not registered", tool)

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	result, err := f.reg.Handler(registered)(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestRegisterAll(t *testing.T) {
	f := setup(t)

	names := []string{}
	for _, tool := range f.reg.Tools() {
		names = append(names, tool.Definition.Name)
	}
	assert.Equal(t, []string{
		"add_correlation",
		"athlete_context",
		"athlete_graph",
		"injury_protocol",
		"memory_capture",
		"memory_distill",
		"readiness_check",
		"update_node",
	}, names)
}

func TestReadinessTool(t *testing.T) {
	f := setup(t)

	result := f.call(t, "readiness_check", map[string]any{
		"sleepHours":    8.0,
		"sleepQuality":  9.0,
		"energyLevel":   9.0,
		"sorenessLevel": 2.0,
	})

	out, ok := result.StructuredContent.(scoring.ReadinessOutput)
	require.True(t, ok)
	assert.Equal(t, scoring.RecommendationFullSend, out.Recommendation)
	assert.Empty(t, out.Warnings)
}

func TestReadinessTool_RejectsOutOfRange(t *testing.T) {
	f := setup(t)

	result := f.call(t, "readiness_check", map[string]any{
		"sleepQuality": 14.0,
	})
	assert.True(t, result.IsError)
}

func TestInjuryTool_MinorLeavesNoMemory(t *testing.T) {
	f := setup(t)

	result := f.call(t, "injury_protocol", map[string]any{
		"bodyPart":    "hamstring",
		"injuryType":  "soreness",
		"painLevel":   2.0,
		"duration":    "today",
		"canFunction": true,
	})

	out, ok := result.StructuredContent.(scoring.InjuryOutput)
	require.True(t, ok)
	assert.Equal(t, scoring.SeverityMinor, out.Severity)

	var count int64
	require.NoError(t, f.db.Model(&database.WolfMemory{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestInjuryTool_SeriousCapturesMemory(t *testing.T) {
	f := setup(t)
	f.reg.SetContext(registry.Context{UserID: "athlete-9"})

	result := f.call(t, "injury_protocol", map[string]any{
		"bodyPart":    "knee",
		"injuryType":  "sharp_pain",
		"painLevel":   8.0,
		"duration":    "today",
		"canFunction": false,
	})

	out, ok := result.StructuredContent.(scoring.InjuryOutput)
	require.True(t, ok)
	assert.Equal(t, scoring.SeveritySerious, out.Severity)

	mems, err := f.tc.Buffer.Unprocessed("athlete-9")
	require.NoError(t, err)
	require.Len(t, mems, 1)
	assert.Equal(t, "injury", mems[0].MemoryType)
	assert.Contains(t, mems[0].Content, "knee")
	assert.Contains(t, mems[0].Content, "pain 8/10")
}

func TestInjuryTool_ModerateWithoutAthleteStillAssesses(t *testing.T) {
	f := setup(t)

	result := f.call(t, "injury_protocol", map[string]any{
		"bodyPart":    "ankle",
		"injuryType":  "swelling",
		"painLevel":   6.0,
		"duration":    "today",
		"canFunction": true,
	})

	out, ok := result.StructuredContent.(scoring.InjuryOutput)
	require.True(t, ok)
	assert.Equal(t, scoring.SeverityModerate, out.Severity)
}

func TestCaptureTool_TypedMemory(t *testing.T) {
	f := setup(t)

	result := f.call(t, "memory_capture", map[string]any{
		"athleteId":  "athlete-1",
		"content":    "Wants to dunk by summer",
		"memoryType": "goal",
	})

	out, ok := result.StructuredContent.(*CaptureResult)
	require.True(t, ok)
	assert.Equal(t, 1, out.Captured)
	require.Len(t, out.UUIDs, 1)

	mem, err := f.tc.Buffer.ByUUID(out.UUIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "goal", mem.MemoryType)
}

func TestCaptureTool_AutoScan(t *testing.T) {
	f := setup(t)

	result := f.call(t, "memory_capture", map[string]any{
		"athleteId": "athlete-1",
		"content":   "my knee hurts and I improved my hamstring flexibility",
	})

	out, ok := result.StructuredContent.(*CaptureResult)
	require.True(t, ok)
	assert.Equal(t, 2, out.Captured)

	mems, err := f.tc.Buffer.Unprocessed("athlete-1")
	require.NoError(t, err)
	require.Len(t, mems, 2)
	for _, m := range mems {
		assert.Equal(t, "my knee hurts and I improved my hamstring flexibility", m.SourceMessage)
	}
}

func TestCaptureTool_FallsBackToConversationAthlete(t *testing.T) {
	f := setup(t)
	f.reg.SetContext(registry.Context{UserID: "conv-athlete"})

	result := f.call(t, "memory_capture", map[string]any{
		"content":    "prefers morning sessions",
		"memoryType": "preference",
	})

	out, ok := result.StructuredContent.(*CaptureResult)
	require.True(t, ok)
	assert.Equal(t, "conv-athlete", out.AthleteID)
}

func TestCaptureTool_NoAthleteErrors(t *testing.T) {
	f := setup(t)

	registered := f.reg.Get("memory_capture")
	req := mcp.CallToolRequest{}
	req.Params.Name = "memory_capture"
	req.Params.Arguments = map[string]any{"content": "knee hurts"}

	_, err := f.reg.Handler(registered)(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no athlete id")
}

func TestDistillTool_RunsPipeline(t *testing.T) {
	f := setup(t)

	f.call(t, "memory_capture", map[string]any{
		"athleteId": "athlete-1",
		"content":   "my knee hurts after practice",
	})

	result := f.call(t, "memory_distill", map[string]any{
		"athleteId": "athlete-1",
	})

	out, ok := result.StructuredContent.(*distill.Result)
	require.True(t, ok)
	assert.Equal(t, 1, out.Processed)
	assert.Equal(t, 1, out.NodesUpdated)

	node, err := f.tc.Nodes.Get("athlete-1", "knee")
	require.NoError(t, err)
	assert.Equal(t, "Sore", node.Status)
}

func TestUpdateNodeTool(t *testing.T) {
	f := setup(t)

	result := f.call(t, "update_node", map[string]any{
		"athleteId": "athlete-1",
		"key":       "left_knee",
		"category":  "body_part",
		"status":    "Recovering",
		"score":     15.0,
	})

	node, ok := result.StructuredContent.(*database.WolfNode)
	require.True(t, ok)
	assert.Equal(t, 10, node.Score)
	assert.Equal(t, "Recovering", node.Status)
}

func TestUpdateNodeTool_RejectsBadCategory(t *testing.T) {
	f := setup(t)

	result := f.call(t, "update_node", map[string]any{
		"athleteId": "athlete-1",
		"key":       "jump_rope",
		"category":  "equipment",
	})
	assert.True(t, result.IsError)
}

func TestAddCorrelationTool_SeedsAndReinforces(t *testing.T) {
	f := setup(t)

	first := f.call(t, "add_correlation", map[string]any{
		"athleteId":    "athlete-1",
		"fromNode":     "poor_sleep",
		"toNode":       "knee_pain",
		"relationship": "CAUSES",
	})
	corr, ok := first.StructuredContent.(*database.WolfCorrelation)
	require.True(t, ok)
	assert.InDelta(t, graph.SeedStrength, corr.Strength, 1e-9)

	second := f.call(t, "add_correlation", map[string]any{
		"athleteId":    "athlete-1",
		"fromNode":     "poor_sleep",
		"toNode":       "knee_pain",
		"relationship": "CAUSES",
	})
	corr2, ok := second.StructuredContent.(*database.WolfCorrelation)
	require.True(t, ok)
	assert.Greater(t, corr2.Strength, corr.Strength)
	assert.Equal(t, 2, corr2.ObservedCount)
}

func TestAddCorrelationTool_RejectsBadRelationship(t *testing.T) {
	f := setup(t)

	result := f.call(t, "add_correlation", map[string]any{
		"athleteId":    "athlete-1",
		"fromNode":     "a",
		"toNode":       "b",
		"relationship": "DESTROYS",
	})
	assert.True(t, result.IsError)
}

func TestContextTool_SurfacesRedFlags(t *testing.T) {
	f := setup(t)

	f.call(t, "update_node", map[string]any{
		"athleteId": "athlete-1",
		"key":       "left_knee",
		"category":  "body_part",
		"status":    "Injured",
		"score":     3.0,
	})

	result := f.call(t, "athlete_context", map[string]any{
		"athleteId": "athlete-1",
		"query":     "can I practice dunks today",
	})

	out, ok := result.StructuredContent.(*assemble.AthleteContext)
	require.True(t, ok)
	require.Len(t, out.RedFlags, 1)
	assert.Contains(t, out.RedFlags[0].Formatted, "Left Knee is CRITICAL")
	assert.True(t, out.Stats.HasActiveIssues)
}

func TestGraphTool(t *testing.T) {
	f := setup(t)

	f.call(t, "update_node", map[string]any{
		"athleteId": "athlete-1",
		"key":       "vertical_jump",
		"category":  "metric",
		"status":    "Improving",
		"score":     8.0,
	})

	result := f.call(t, "athlete_graph", map[string]any{
		"athleteId": "athlete-1",
	})

	out, ok := result.StructuredContent.(*assemble.FullGraph)
	require.True(t, ok)
	assert.Equal(t, 1, out.Summary.Total)
	assert.Equal(t, 1, out.Summary.Healthy)
	require.Len(t, out.ByCategory["metric"], 1)
}
