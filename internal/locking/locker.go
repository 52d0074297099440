// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package locking serializes distillation passes per athlete through a
// TTL'd lock row. Two passes for the same athlete read-modify-write
// the same node rows, so only one may hold the lock at a time;
// different athletes are fully independent.
package locking

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wolfpackai/wolfden-mcp/internal/database"
)

// DefaultLockTTL bounds how long a crashed distiller can hold an
// athlete's lock.
const DefaultLockTTL = 5 * time.Minute

// ConflictError reports a lost optimistic-update race on the lock row
type ConflictError struct {
	AthleteID       string
	ExpectedVersion int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("lock version conflict for athlete %s (expected version %d)", e.AthleteID, e.ExpectedVersion)
}

// LockError reports a lock that could not be acquired
type LockError struct {
	AthleteID string
	LockedBy  string
	Message   string
}

func (e *LockError) Error() string {
	return e.Message
}

// Locker manages per-athlete distillation locks
type Locker struct {
	db      *gorm.DB
	lockTTL time.Duration
}

// NewLocker creates a locker with the default TTL
func NewLocker(db *gorm.DB) *Locker {
	return &Locker{db: db, lockTTL: DefaultLockTTL}
}

// WithTTL sets a custom TTL for locks
func (l *Locker) WithTTL(ttl time.Duration) *Locker {
	l.lockTTL = ttl
	return l
}

// Acquire attempts to take the athlete's lock for ownerID. Returns
// true when acquired; false when another owner holds an unexpired
// lock. The same owner can reacquire its own lock.
func (l *Locker) Acquire(athleteID, ownerID string) (bool, error) {
	now := time.Now()
	expiresAt := now.Add(l.lockTTL)

	var existing database.WolfDistillLock
	err := l.db.Where("athlete_id = ?", athleteID).First(&existing).Error
	if err != nil {
		lock := database.WolfDistillLock{
			AthleteID: athleteID,
			Version:   1,
			LockedBy:  ownerID,
			LockedAt:  now,
			ExpiresAt: expiresAt,
		}
		if createErr := l.db.Create(&lock).Error; createErr != nil {
			// Lost the create race; someone else owns it now
			return false, nil
		}
		return true, nil
	}

	if existing.IsExpired() || existing.LockedBy == ownerID {
		// Version-guarded takeover so two racing acquirers cannot
		// both win.
		result := l.db.Model(&database.WolfDistillLock{}).
			Where("athlete_id = ? AND version = ?", athleteID, existing.Version).
			Updates(map[string]interface{}{
				"locked_by":  ownerID,
				"locked_at":  now,
				"expires_at": expiresAt,
				"version":    existing.Version + 1,
			})
		if result.Error != nil {
			return false, result.Error
		}
		return result.RowsAffected > 0, nil
	}

	return false, nil
}

// Release removes the athlete's lock if held by ownerID
func (l *Locker) Release(athleteID, ownerID string) error {
	return l.db.Where("athlete_id = ? AND locked_by = ?", athleteID, ownerID).
		Delete(&database.WolfDistillLock{}).Error
}

// IsLocked reports whether the athlete has an unexpired lock and who
// holds it.
func (l *Locker) IsLocked(athleteID string) (bool, string, error) {
	var lock database.WolfDistillLock
	err := l.db.Where("athlete_id = ?", athleteID).First(&lock).Error
	if err != nil {
		return false, "", nil
	}
	if lock.IsExpired() {
		return false, "", nil
	}
	return true, lock.LockedBy, nil
}

// Extend pushes out the TTL of a lock held by ownerID
func (l *Locker) Extend(athleteID, ownerID string) error {
	result := l.db.Model(&database.WolfDistillLock{}).
		Where("athlete_id = ? AND locked_by = ?", athleteID, ownerID).
		Update("expires_at", time.Now().Add(l.lockTTL))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &LockError{
			AthleteID: athleteID,
			LockedBy:  ownerID,
			Message:   fmt.Sprintf("lock for athlete %s not held by %s", athleteID, ownerID),
		}
	}
	return nil
}

// CleanupExpired removes expired lock rows, returning how many
func (l *Locker) CleanupExpired() (int64, error) {
	result := l.db.Where("expires_at < ?", time.Now()).Delete(&database.WolfDistillLock{})
	return result.RowsAffected, result.Error
}

// WithLock runs fn while holding the athlete's lock and releases it
// afterwards. Returns *LockError when the lock is held elsewhere.
func (l *Locker) WithLock(athleteID, ownerID string, fn func() error) error {
	acquired, err := l.Acquire(athleteID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to acquire lock for athlete %s: %w", athleteID, err)
	}
	if !acquired {
		_, lockedBy, _ := l.IsLocked(athleteID)
		return &LockError{
			AthleteID: athleteID,
			LockedBy:  lockedBy,
			Message:   fmt.Sprintf("distillation already running for athlete %s", athleteID),
		}
	}
	defer l.Release(athleteID, ownerID) //nolint:errcheck

	return fn()
}
