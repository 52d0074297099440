// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// AllModels returns all database models for migration
func AllModels() []interface{} {
	return []interface{}{
		&WolfNode{},
		&WolfCorrelation{},
		&WolfMemory{},
		&WolfDistillLock{},
	}
}

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// DropAllTables drops all tables (use with caution!)
func DropAllTables(db *gorm.DB) error {
	models := []interface{}{
		&WolfDistillLock{},
		&WolfMemory{},
		&WolfCorrelation{},
		&WolfNode{},
	}

	for _, model := range models {
		if err := db.Migrator().DropTable(model); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}

	return nil
}

// CreateIndexes creates additional indexes for better query performance
func CreateIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		columns []string
		name    string
	}{
		{
			table:   "wolf_memories",
			columns: []string{"athlete_id", "processed"},
			name:    "idx_memories_athlete_processed",
		},
		{
			table:   "wolf_memories",
			columns: []string{"athlete_id", "extracted_at"},
			name:    "idx_memories_athlete_extracted",
		},
		{
			table:   "wolf_nodes",
			columns: []string{"athlete_id", "score"},
			name:    "idx_nodes_athlete_score",
		},
		{
			table:   "wolf_nodes",
			columns: []string{"athlete_id", "category"},
			name:    "idx_nodes_athlete_category",
		},
		{
			table:   "wolf_correlations",
			columns: []string{"athlete_id", "from_node"},
			name:    "idx_correlations_athlete_from",
		},
	}

	for _, idx := range indexes {
		hasIndex := db.Migrator().HasIndex(idx.table, idx.name)
		if !hasIndex {
			sql := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				idx.name,
				idx.table,
				strings.Join(idx.columns, ", "))

			if err := db.Exec(sql).Error; err != nil {
				return fmt.Errorf("failed to create index %s: %w", idx.name, err)
			}
		}
	}

	return nil
}
