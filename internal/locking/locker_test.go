// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package locking

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

func setupTestDB(t *testing.T) *gorm.DB {
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

func TestLocker_AcquireSuccess(t *testing.T) {
	locker := NewLocker(setupTestDB(t))

	acquired, err := locker.Acquire("athlete-1", "distiller-1")
	require.NoError(t, err)
	assert.True(t, acquired)

	isLocked, lockedBy, err := locker.IsLocked("athlete-1")
	require.NoError(t, err)
	assert.True(t, isLocked)
	assert.Equal(t, "distiller-1", lockedBy)
}

func TestLocker_AcquireAlreadyLocked(t *testing.T) {
	locker := NewLocker(setupTestDB(t))

	acquired, err := locker.Acquire("athlete-1", "distiller-1")
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = locker.Acquire("athlete-1", "distiller-2")
	require.NoError(t, err)
	assert.False(t, acquired)
}

func TestLocker_SameOwnerReacquires(t *testing.T) {
	locker := NewLocker(setupTestDB(t))

	for i := 0; i < 2; i++ {
		acquired, err := locker.Acquire("athlete-1", "distiller-1")
		require.NoError(t, err)
		assert.True(t, acquired)
	}
}

func TestLocker_DifferentAthletesIndependent(t *testing.T) {
	locker := NewLocker(setupTestDB(t))

	a, err := locker.Acquire("athlete-1", "distiller-1")
	require.NoError(t, err)
	b, err := locker.Acquire("athlete-2", "distiller-2")
	require.NoError(t, err)
	assert.True(t, a)
	assert.True(t, b)
}

func TestLocker_ExpiredLockTakenOver(t *testing.T) {
	locker := NewLocker(setupTestDB(t)).WithTTL(-time.Second)

	acquired, err := locker.Acquire("athlete-1", "distiller-1")
	require.NoError(t, err)
	require.True(t, acquired)

	locker.lockTTL = DefaultLockTTL
	acquired, err = locker.Acquire("athlete-1", "distiller-2")
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestLocker_ReleaseOnlyByOwner(t *testing.T) {
	locker := NewLocker(setupTestDB(t))

	_, err := locker.Acquire("athlete-1", "distiller-1")
	require.NoError(t, err)

	require.NoError(t, locker.Release("athlete-1", "distiller-2"))
	isLocked, _, err := locker.IsLocked("athlete-1")
	require.NoError(t, err)
	assert.True(t, isLocked, "release by non-owner must not drop the lock")

	require.NoError(t, locker.Release("athlete-1", "distiller-1"))
	isLocked, _, err = locker.IsLocked("athlete-1")
	require.NoError(t, err)
	assert.False(t, isLocked)
}

func TestLocker_ExtendRequiresOwnership(t *testing.T) {
	locker := NewLocker(setupTestDB(t))

	_, err := locker.Acquire("athlete-1", "distiller-1")
	require.NoError(t, err)

	assert.NoError(t, locker.Extend("athlete-1", "distiller-1"))

	err = locker.Extend("athlete-1", "distiller-2")
	var lockErr *LockError
	assert.ErrorAs(t, err, &lockErr)
}

func TestLocker_CleanupExpired(t *testing.T) {
	db := setupTestDB(t)
	locker := NewLocker(db).WithTTL(-time.Second)

	_, err := locker.Acquire("athlete-1", "distiller-1")
	require.NoError(t, err)

	removed, err := locker.CleanupExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestLocker_WithLockReleasesAfter(t *testing.T) {
	locker := NewLocker(setupTestDB(t))

	ran := false
	err := locker.WithLock("athlete-1", "distiller-1", func() error {
		ran = true
		isLocked, lockedBy, err := locker.IsLocked("athlete-1")
		require.NoError(t, err)
		assert.True(t, isLocked)
		assert.Equal(t, "distiller-1", lockedBy)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	isLocked, _, err := locker.IsLocked("athlete-1")
	require.NoError(t, err)
	assert.False(t, isLocked)
}

func TestLocker_WithLockConflict(t *testing.T) {
	locker := NewLocker(setupTestDB(t))

	_, err := locker.Acquire("athlete-1", "distiller-1")
	require.NoError(t, err)

	err = locker.WithLock("athlete-1", "distiller-2", func() error {
		t.Fatal("must not run while another owner holds the lock")
		return nil
	})

	var lockErr *LockError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, "distiller-1", lockErr.LockedBy)
}
