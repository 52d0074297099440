// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package rebuild reconstructs the memory table from the journal's
// markdown files. Rebuilt rows come back unprocessed so the next
// distillation pass can rebuild the graph from them.
package rebuild

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wolfpackai/wolfden-mcp/internal/database"
	"github.com/wolfpackai/wolfden-mcp/internal/journal"
)

// Options configures rebuild behavior
type Options struct {
	// AthleteID limits the rebuild to one athlete; empty means all
	AthleteID string
	// Force clears existing memories before rebuilding
	Force bool
}

// Result contains statistics from the rebuild
type Result struct {
	EntriesProcessed int
	MemoriesCreated  int
	MemoriesSkipped  int
	Errors           []string
}

// Rebuild replays journal entries into the memory table. Without
// Force it refuses to run over existing rows; with Force it clears
// them first. Entries whose UUID already exists are skipped either
// way, so rerunning a rebuild cannot create duplicates.
func Rebuild(db *gorm.DB, j *journal.Journal, opts Options, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := handleExistingData(db, opts, logger); err != nil {
		return nil, err
	}

	entries, err := loadEntries(j, opts.AthleteID)
	if err != nil {
		return nil, err
	}

	logger.Info("rebuilding memories from journal", zap.Int("entries", len(entries)))

	result := &Result{}
	for _, entry := range entries {
		result.EntriesProcessed++

		if entry.UUID == "" || entry.AthleteID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("entry missing uuid or athlete id (uuid=%q)", entry.UUID))
			continue
		}
		if !database.IsValidMemoryType(entry.MemoryType) {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: invalid memory type %q", entry.UUID, entry.MemoryType))
			continue
		}

		var existing database.WolfMemory
		err := db.Where("uuid = ?", entry.UUID).First(&existing).Error
		if err == nil {
			result.MemoriesSkipped++
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check for existing memory %s: %w", entry.UUID, err)
		}

		mem := database.WolfMemory{
			UUID:          entry.UUID,
			AthleteID:     entry.AthleteID,
			Content:       entry.Content,
			MemoryType:    entry.MemoryType,
			Processed:     false,
			SourceMessage: entry.SourceMessage,
			ExtractedAt:   entry.ExtractedAt,
		}
		if err := db.Create(&mem).Error; err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.UUID, err))
			continue
		}
		result.MemoriesCreated++
	}

	logger.Info("rebuild complete",
		zap.Int("created", result.MemoriesCreated),
		zap.Int("skipped", result.MemoriesSkipped),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

func handleExistingData(db *gorm.DB, opts Options, logger *zap.Logger) error {
	query := db.Model(&database.WolfMemory{})
	if opts.AthleteID != "" {
		query = query.Where("athlete_id = ?", opts.AthleteID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count existing memories: %w", err)
	}

	if count > 0 && !opts.Force {
		return fmt.Errorf("database contains %d existing memories; use --force to clear and rebuild", count)
	}

	if opts.Force && count > 0 {
		logger.Info("force rebuild: clearing existing memories", zap.Int64("count", count))
		del := db.Where("1 = 1")
		if opts.AthleteID != "" {
			del = db.Where("athlete_id = ?", opts.AthleteID)
		}
		if err := del.Delete(&database.WolfMemory{}).Error; err != nil {
			return fmt.Errorf("failed to clear memories: %w", err)
		}
	}

	return nil
}

func loadEntries(j *journal.Journal, athleteID string) ([]*journal.Entry, error) {
	if athleteID != "" {
		return j.Entries(athleteID)
	}
	return j.AllEntries()
}
