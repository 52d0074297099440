// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wolfpackai/wolfden-mcp/internal/database"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:   logger.Silent,
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestBuffer_CaptureDefaults(t *testing.T) {
	buf := NewBuffer(testDB(t), nil, nil)

	mem, err := buf.Capture(CaptureRequest{
		AthleteID:  "athlete-1",
		Content:    "Athlete reported: my knee hurts",
		MemoryType: database.MemoryTypeInjury,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, mem.UUID)
	assert.False(t, mem.Processed)
	assert.False(t, mem.ExtractedAt.IsZero())
}

func TestBuffer_CaptureRejectsInvalidType(t *testing.T) {
	buf := NewBuffer(testDB(t), nil, nil)

	_, err := buf.Capture(CaptureRequest{
		AthleteID:  "athlete-1",
		Content:    "something",
		MemoryType: "gossip",
	})
	assert.Error(t, err)
}

func TestBuffer_UnprocessedOrdering(t *testing.T) {
	buf := NewBuffer(testDB(t), nil, nil)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, content := range []string{"third", "first", "second"} {
		offset := []time.Duration{2 * time.Hour, 0, time.Hour}[i]
		_, err := buf.Capture(CaptureRequest{
			AthleteID:   "athlete-1",
			Content:     content,
			MemoryType:  database.MemoryTypeContext,
			ExtractedAt: base.Add(offset),
		})
		require.NoError(t, err)
	}

	mems, err := buf.Unprocessed("athlete-1")
	require.NoError(t, err)
	require.Len(t, mems, 3)
	assert.Equal(t, "first", mems[0].Content)
	assert.Equal(t, "second", mems[1].Content)
	assert.Equal(t, "third", mems[2].Content)
}

func TestBuffer_MarkProcessedOnce(t *testing.T) {
	buf := NewBuffer(testDB(t), nil, nil)

	mem, err := buf.Capture(CaptureRequest{
		AthleteID:  "athlete-1",
		Content:    "note",
		MemoryType: database.MemoryTypeContext,
	})
	require.NoError(t, err)

	affected, err := buf.MarkProcessed(mem.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// Second flip is a no-op, signalled by zero rows affected
	affected, err = buf.MarkProcessed(mem.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	mems, err := buf.Unprocessed("athlete-1")
	require.NoError(t, err)
	assert.Empty(t, mems)
}

func TestBuffer_UnprocessedAthletes(t *testing.T) {
	buf := NewBuffer(testDB(t), nil, nil)

	for _, athlete := range []string{"beta", "alpha", "beta"} {
		_, err := buf.Capture(CaptureRequest{
			AthleteID:  athlete,
			Content:    "note",
			MemoryType: database.MemoryTypeContext,
		})
		require.NoError(t, err)
	}

	ids, err := buf.UnprocessedAthletes()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, ids)
}

func TestScanMessage_FindsPainProgressGoals(t *testing.T) {
	obs := ScanMessage("My knee hurts after practice. I hit 32 inch vertical last week. I want to dunk.")

	var types []string
	for _, o := range obs {
		types = append(types, o.MemoryType)
	}
	assert.Contains(t, types, database.MemoryTypeInjury)
	assert.Contains(t, types, database.MemoryTypeProgress)
	assert.Contains(t, types, database.MemoryTypeGoal)
}

func TestScanMessage_CleanMessage(t *testing.T) {
	obs := ScanMessage("See you at the gym tomorrow")
	assert.Empty(t, obs)
}

func TestRuleExtractor_PainLowersBodyPart(t *testing.T) {
	ex, err := NewRuleExtractor().Extract(database.MemoryTypeInjury, "my knee hurts when I land")
	require.NoError(t, err)
	require.Len(t, ex.Nodes, 1)

	node := ex.Nodes[0]
	assert.Equal(t, "knee", node.Key)
	assert.Equal(t, database.NodeCategoryBodyPart, node.Category)
	assert.Equal(t, "Sore", node.Status)
	require.NotNil(t, node.ScoreDelta)
	assert.Equal(t, -2, *node.ScoreDelta)
}

func TestRuleExtractor_ProgressRaisesBodyPart(t *testing.T) {
	ex, err := NewRuleExtractor().Extract(database.MemoryTypeProgress, "my hamstring finally improved this week")
	require.NoError(t, err)
	require.Len(t, ex.Nodes, 1)

	node := ex.Nodes[0]
	assert.Equal(t, "hamstring", node.Key)
	assert.Equal(t, "Improving", node.Status)
	require.NotNil(t, node.ScoreDelta)
	assert.Equal(t, 1, *node.ScoreDelta)
}

func TestRuleExtractor_PainWinsOverProgress(t *testing.T) {
	ex, err := NewRuleExtractor().Extract(database.MemoryTypeInjury, "improved my squat but my knee hurts")
	require.NoError(t, err)

	var kneeDeltas int
	for _, n := range ex.Nodes {
		if n.Key == "knee" {
			kneeDeltas++
			assert.Equal(t, "Sore", n.Status)
		}
	}
	assert.Equal(t, 1, kneeDeltas, "one delta per body part, pain takes precedence")
}

func TestRuleExtractor_GoalFallbackNode(t *testing.T) {
	ex, err := NewRuleExtractor().Extract(database.MemoryTypeGoal, "Goal mentioned: i want to dunk")
	require.NoError(t, err)
	require.Len(t, ex.Nodes, 1)
	assert.Equal(t, "current_goal", ex.Nodes[0].Key)
	assert.Equal(t, database.NodeCategoryMental, ex.Nodes[0].Category)
	assert.Nil(t, ex.Nodes[0].ScoreDelta)
}

func TestRuleExtractor_NoMatchNoDeltas(t *testing.T) {
	ex, err := NewRuleExtractor().Extract(database.MemoryTypeContext, "prefers morning sessions")
	require.NoError(t, err)
	assert.Empty(t, ex.Nodes)
	assert.Empty(t, ex.Edges)
}
