/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bike-rental-go/internal/metrics"
	"bike-rental-go/internal/store"

	"go.uber.org/zap"
)

// Drift is a station whose recorded occupancy disagrees with the bikes the
// ledger places there.
type Drift struct {
	StationId int64
	Recorded  int
	Derived   int
}

func (d Drift) Delta() int {
	return d.Recorded - d.Derived
}

// Report is the outcome of one audit pass
type Report struct {
	Stations int
	Drifts   []Drift
	RanAt    time.Time
}

type Config struct {
	Store    store.LedgerStore
	Recorder *metrics.Recorder
	Interval time.Duration
}

// OccupancyAuditor periodically reconciles station occupancy against the
// operation history. It only reports; it never rewrites counters.
type OccupancyAuditor struct {
	store    store.LedgerStore
	recorder *metrics.Recorder
	interval time.Duration

	mu   sync.Mutex
	last *Report

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

func NewOccupancyAuditor(cfg Config) *OccupancyAuditor {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &OccupancyAuditor{
		store:    cfg.Store,
		recorder: cfg.Recorder,
		interval: cfg.Interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start runs one pass immediately and then keeps auditing in the background
func (a *OccupancyAuditor) Start(ctx context.Context) {
	zap.L().Info("Starting occupancy auditor", zap.Duration("interval", a.interval))
	go a.pollLoop(ctx)
}

// Stop waits for the running pass to finish
func (a *OccupancyAuditor) Stop() {
	a.stopOnce.Do(func() {
		zap.L().Info("Stopping occupancy auditor")
		close(a.stopChan)
	})
	<-a.doneChan
	zap.L().Info("Occupancy auditor stopped")
}

func (a *OccupancyAuditor) LastReport() *Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

func (a *OccupancyAuditor) pollLoop(ctx context.Context) {
	defer close(a.doneChan)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			a.runOnce(ctx)
		case <-a.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (a *OccupancyAuditor) runOnce(ctx context.Context) {
	if _, err := a.Audit(ctx); err != nil {
		zap.L().Error("Occupancy audit failed", zap.Error(err))
	}
}

// Audit compares every active station's counter with the derived count.
func (a *OccupancyAuditor) Audit(ctx context.Context) (*Report, error) {
	stations, err := a.store.GetStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	derived, err := a.store.CountDockedBikes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count docked bikes: %w", err)
	}

	report := &Report{Stations: len(stations), RanAt: time.Now().UTC()}
	for _, station := range stations {
		d := Drift{StationId: station.Id, Recorded: station.NumBikes, Derived: derived[station.Id]}
		if a.recorder != nil {
			a.recorder.OccupancyDrift(station.Id, d.Delta())
		}
		if d.Delta() == 0 {
			continue
		}
		report.Drifts = append(report.Drifts, d)
		zap.L().Warn("Station occupancy drift",
			zap.Int64("station_id", d.StationId),
			zap.Int("recorded", d.Recorded),
			zap.Int("derived", d.Derived))
	}

	if a.recorder != nil {
		a.recorder.AuditCompleted()
	}
	a.mu.Lock()
	a.last = report
	a.mu.Unlock()

	zap.L().Debug("Occupancy audit complete",
		zap.Int("stations", report.Stations),
		zap.Int("drifts", len(report.Drifts)))
	return report, nil
}
