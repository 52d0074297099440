// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package scheduler runs background distillation sweeps so captured
// memories reach the knowledge graph even when no conversation asks
// for a distill explicitly.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wolfpackai/wolfden-mcp/internal/distill"
)

// Scheduler periodically distills every athlete with unprocessed
// memories.
type Scheduler struct {
	distiller *distill.Distiller
	interval  time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
}

// New creates a scheduler sweeping every intervalMinutes minutes
func New(distiller *distill.Distiller, intervalMinutes int, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		distiller: distiller,
		interval:  time.Duration(intervalMinutes) * time.Minute,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the background sweep loop
func (s *Scheduler) Start() {
	ticker := time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
	s.logger.Info("distillation scheduler started",
		zap.Duration("interval", s.interval))
}

// Stop stops the sweep loop. Safe to call once.
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// sweep distills all athletes with pending memories. Locked athletes
// are skipped inside DistillAll, so an overlapping manual distill is
// not an error.
func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	results, err := s.distiller.DistillAll(ctx)
	if err != nil {
		s.logger.Error("distillation sweep failed", zap.Error(err))
		return
	}

	processed := 0
	for _, r := range results {
		processed += r.Processed
	}
	if processed > 0 {
		s.logger.Info("distillation sweep completed",
			zap.Int("athletes", len(results)),
			zap.Int("processed", processed))
	}
}
