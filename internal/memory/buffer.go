// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wolfpackai/wolfden-mcp/internal/database"
)

// Journal receives a copy of every captured memory for the audit
// trail. Implemented by internal/journal; nil disables journaling.
type Journal interface {
	Record(mem *database.WolfMemory) error
}

// Buffer is the append-and-flag store for raw observations. Rows go in
// with processed=false and are flipped exactly once by the distiller.
type Buffer struct {
	db      *gorm.DB
	journal Journal
	logger  *zap.Logger
}

// NewBuffer creates a capture buffer. journal may be nil.
func NewBuffer(db *gorm.DB, journal Journal, logger *zap.Logger) *Buffer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Buffer{db: db, journal: journal, logger: logger}
}

// CaptureRequest is one observation to append
type CaptureRequest struct {
	AthleteID     string
	Content       string
	MemoryType    string
	SourceMessage string
	// ExtractedAt defaults to now when zero
	ExtractedAt time.Time
}

// Capture appends a memory with processed=false and mirrors it into
// the journal. A journal failure is logged but does not fail the
// capture; the database row is the source of truth.
func (b *Buffer) Capture(req CaptureRequest) (*database.WolfMemory, error) {
	if req.AthleteID == "" {
		return nil, fmt.Errorf("capture requires an athlete id")
	}
	if req.Content == "" {
		return nil, fmt.Errorf("capture requires content")
	}
	if !database.IsValidMemoryType(req.MemoryType) {
		return nil, fmt.Errorf("invalid memory type %q", req.MemoryType)
	}

	extractedAt := req.ExtractedAt
	if extractedAt.IsZero() {
		extractedAt = time.Now()
	}

	mem := database.WolfMemory{
		UUID:          uuid.NewString(),
		AthleteID:     req.AthleteID,
		Content:       req.Content,
		MemoryType:    req.MemoryType,
		Processed:     false,
		SourceMessage: req.SourceMessage,
		ExtractedAt:   extractedAt,
	}

	if err := b.db.Create(&mem).Error; err != nil {
		return nil, fmt.Errorf("failed to capture memory: %w", err)
	}

	if b.journal != nil {
		if err := b.journal.Record(&mem); err != nil {
			b.logger.Warn("journal write failed",
				zap.String("memory", mem.UUID),
				zap.Error(err))
		}
	}

	return &mem, nil
}

// Unprocessed returns the athlete's undistilled memories in extraction
// order, ties broken by primary key, so later score deltas land after
// earlier ones.
func (b *Buffer) Unprocessed(athleteID string) ([]database.WolfMemory, error) {
	var mems []database.WolfMemory
	err := b.db.Where("athlete_id = ? AND processed = ?", athleteID, false).
		Order("extracted_at asc, id asc").
		Find(&mems).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed memories: %w", err)
	}
	return mems, nil
}

// MarkProcessed flips the processed flag. Returns the number of rows
// changed: 0 means the memory was already processed (or unknown), so
// callers can use the result as an idempotence check.
func (b *Buffer) MarkProcessed(memoryID uint) (int64, error) {
	res := b.db.Model(&database.WolfMemory{}).
		Where("id = ? AND processed = ?", memoryID, false).
		Update("processed", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark memory processed: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ByUUID returns one memory by its UUID
func (b *Buffer) ByUUID(id string) (*database.WolfMemory, error) {
	var mem database.WolfMemory
	if err := b.db.Where("uuid = ?", id).First(&mem).Error; err != nil {
		return nil, err
	}
	return &mem, nil
}

// UnprocessedAthletes returns the distinct athlete ids that currently
// have undistilled memories. Used by the background scheduler.
func (b *Buffer) UnprocessedAthletes() ([]string, error) {
	var ids []string
	err := b.db.Model(&database.WolfMemory{}).
		Where("processed = ?", false).
		Distinct("athlete_id").
		Order("athlete_id asc").
		Pluck("athlete_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list athletes with unprocessed memories: %w", err)
	}
	return ids, nil
}
