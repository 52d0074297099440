// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Connect(&Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestConnect_SQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "dir", "test.db")

	db, err := Connect(&Config{
		Type:       "sqlite",
		SQLitePath: dbPath,
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	defer func() { _ = Close(db) }()

	require.NoError(t, Ping(db))

	// the parent directory is created on demand
	_, err = os.Stat(filepath.Dir(dbPath))
	assert.NoError(t, err)
}

func TestConnect_UnsupportedType(t *testing.T) {
	_, err := Connect(&Config{Type: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := testDB(t)

	for _, table := range []string{"wolf_nodes", "wolf_correlations", "wolf_memories", "wolf_distill_locks"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestCreateIndexes(t *testing.T) {
	db := testDB(t)
	require.NoError(t, CreateIndexes(db))
	// rerunning must not fail on existing indexes
	require.NoError(t, CreateIndexes(db))
}

func TestDropAllTables(t *testing.T) {
	db := testDB(t)
	require.NoError(t, DropAllTables(db))
	assert.False(t, db.Migrator().HasTable("wolf_nodes"))
}

func TestNodeUniquePerAthleteAndKey(t *testing.T) {
	db := testDB(t)

	node := WolfNode{AthleteID: "a1", Key: "knee", Category: NodeCategoryBodyPart, Status: "Sore", Score: 4, LastUpdated: time.Now()}
	require.NoError(t, db.Create(&node).Error)

	dup := WolfNode{AthleteID: "a1", Key: "knee", Category: NodeCategoryBodyPart, Status: "Healthy", Score: 8, LastUpdated: time.Now()}
	assert.Error(t, db.Create(&dup).Error)

	other := WolfNode{AthleteID: "a2", Key: "knee", Category: NodeCategoryBodyPart, Status: "Healthy", Score: 8, LastUpdated: time.Now()}
	assert.NoError(t, db.Create(&other).Error)
}

func TestCorrelationUniquePerTuple(t *testing.T) {
	db := testDB(t)

	edge := WolfCorrelation{AthleteID: "a1", FromNode: "poor_sleep", ToNode: "knee_pain", Relationship: RelationshipCauses, Strength: 0.3, ObservedAt: time.Now(), ObservedCount: 1}
	require.NoError(t, db.Create(&edge).Error)

	dup := edge
	dup.ID = 0
	assert.Error(t, db.Create(&dup).Error)

	// same endpoints under a different relationship is a distinct edge
	improves := WolfCorrelation{AthleteID: "a1", FromNode: "poor_sleep", ToNode: "knee_pain", Relationship: RelationshipImproves, Strength: 0.3, ObservedAt: time.Now(), ObservedCount: 1}
	assert.NoError(t, db.Create(&improves).Error)
}

func TestDistillLockIsExpired(t *testing.T) {
	expired := WolfDistillLock{ExpiresAt: time.Now().Add(-time.Minute)}
	assert.True(t, expired.IsExpired())

	live := WolfDistillLock{ExpiresAt: time.Now().Add(time.Minute)}
	assert.False(t, live.IsExpired())
}

func TestValidators(t *testing.T) {
	assert.True(t, IsValidNodeCategory("body_part"))
	assert.False(t, IsValidNodeCategory("equipment"))

	assert.True(t, IsValidRelationship("CAUSES"))
	assert.False(t, IsValidRelationship("causes"))

	assert.True(t, IsValidMemoryType("injury"))
	assert.False(t, IsValidMemoryType("dream"))
}
