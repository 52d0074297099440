// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"time"
)

// WolfNode is a named, scored fact about one athlete. A node is created the
// first time a distillation pass references its key and mutated in place
// afterwards; it is never deleted, so the row doubles as longitudinal
// history ("Improving" supersedes "Injured" rather than erasing it).
type WolfNode struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AthleteID   string    `gorm:"index:idx_nodes_athlete_key,unique;not null" json:"athlete_id"`
	Key         string    `gorm:"index:idx_nodes_athlete_key,unique;not null" json:"key"`
	Category    string    `gorm:"not null" json:"category"`
	Status      string    `gorm:"not null" json:"status"`
	Score       int       `gorm:"not null" json:"score"` // clamped to [1,10] at the store boundary
	Notes       string    `gorm:"type:text" json:"notes,omitempty"`
	LastUpdated time.Time `gorm:"not null" json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for WolfNode
func (WolfNode) TableName() string {
	return "wolf_nodes"
}

// WolfCorrelation is a directed, typed, confidence-weighted edge between two
// node keys. Edges may anticipate nodes: neither endpoint has to exist yet.
// Upserts are keyed by (athlete_id, from_node, to_node, relationship).
type WolfCorrelation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AthleteID     string    `gorm:"index:idx_corr_tuple,unique;not null" json:"athlete_id"`
	FromNode      string    `gorm:"index:idx_corr_tuple,unique;not null" json:"from_node"`
	ToNode        string    `gorm:"index:idx_corr_tuple,unique;not null" json:"to_node"`
	Relationship  string    `gorm:"index:idx_corr_tuple,unique;not null" json:"relationship"`
	Strength      float64   `gorm:"not null" json:"strength"` // clamped to [0,1] at the store boundary
	ObservedAt    time.Time `gorm:"not null" json:"observed_at"`
	ObservedCount int       `gorm:"not null;default:1" json:"observed_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for WolfCorrelation
func (WolfCorrelation) TableName() string {
	return "wolf_correlations"
}

// WolfMemory is a raw observation awaiting distillation. Rows are written by
// the extraction collaborator, flipped to processed exactly once by the
// distiller, and retained indefinitely as an audit trail.
type WolfMemory struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UUID          string    `gorm:"uniqueIndex;not null" json:"uuid"`
	AthleteID     string    `gorm:"index;not null" json:"athlete_id"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	MemoryType    string    `gorm:"not null" json:"memory_type"`
	Processed     bool      `gorm:"index;not null;default:false" json:"processed"`
	SourceMessage string    `gorm:"type:text" json:"source_message,omitempty"`
	ExtractedAt   time.Time `gorm:"not null" json:"extracted_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for WolfMemory
func (WolfMemory) TableName() string {
	return "wolf_memories"
}

// WolfDistillLock serializes distillation passes per athlete. Two passes for
// the same athlete both read-modify-write the same node rows, so the lock
// row guards against lost updates.
type WolfDistillLock struct {
	AthleteID string    `gorm:"primaryKey" json:"athlete_id"`
	Version   int64     `gorm:"not null;default:1" json:"version"`
	LockedBy  string    `gorm:"not null" json:"locked_by"`
	LockedAt  time.Time `gorm:"not null" json:"locked_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

// TableName specifies the table name for WolfDistillLock
func (WolfDistillLock) TableName() string {
	return "wolf_distill_locks"
}

// IsExpired returns true if the lock has passed its TTL
func (l *WolfDistillLock) IsExpired() bool {
	return time.Now().After(l.ExpiresAt)
}

// NodeCategory constants for athlete nodes
const (
	NodeCategoryBodyPart = "body_part"
	NodeCategoryMetric   = "metric"
	NodeCategoryMental   = "mental"
	NodeCategoryRecovery = "recovery"
)

// ValidNodeCategories returns all valid node categories
func ValidNodeCategories() []string {
	return []string{
		NodeCategoryBodyPart,
		NodeCategoryMetric,
		NodeCategoryMental,
		NodeCategoryRecovery,
	}
}

// IsValidNodeCategory checks if a node category is valid
func IsValidNodeCategory(category string) bool {
	return isValidValue(category, ValidNodeCategories())
}

// Relationship constants for correlations
const (
	RelationshipCauses     = "CAUSES"
	RelationshipImproves   = "IMPROVES"
	RelationshipBlocks     = "BLOCKS"
	RelationshipCorrelates = "CORRELATES"
)

// ValidRelationships returns all valid correlation relationships
func ValidRelationships() []string {
	return []string{
		RelationshipCauses,
		RelationshipImproves,
		RelationshipBlocks,
		RelationshipCorrelates,
	}
}

// IsValidRelationship checks if a relationship is valid
func IsValidRelationship(relationship string) bool {
	return isValidValue(relationship, ValidRelationships())
}

// MemoryType constants for captured memories
const (
	MemoryTypeInjury     = "injury"
	MemoryTypeGoal       = "goal"
	MemoryTypeProgress   = "progress"
	MemoryTypeEmotion    = "emotion"
	MemoryTypePreference = "preference"
	MemoryTypeContext    = "context"
)

// ValidMemoryTypes returns all valid memory types
func ValidMemoryTypes() []string {
	return []string{
		MemoryTypeInjury,
		MemoryTypeGoal,
		MemoryTypeProgress,
		MemoryTypeEmotion,
		MemoryTypePreference,
		MemoryTypeContext,
	}
}

// IsValidMemoryType checks if a memory type is valid
func IsValidMemoryType(memoryType string) bool {
	return isValidValue(memoryType, ValidMemoryTypes())
}

// isValidValue checks if a value is in a list of valid values
func isValidValue(value string, valid []string) bool {
	for _, v := range valid {
		if value == v {
			return true
		}
	}
	return false
}
