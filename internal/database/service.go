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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bike-rental-go/internal/models"
	"bike-rental-go/internal/store"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.LedgerStore.
var _ store.LedgerStore = (*Service)(nil)

type Service struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}
	if cfg.BusyTimeout <= 0 {
		return nil, fmt.Errorf("busy timeout must be positive, got %v", cfg.BusyTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_foreign_keys=on&_busy_timeout=%d&_txlock=immediate",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close database after ping failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close database after schema failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	if cfg.SeedDemoData {
		if err := service.seedDemoFleet(ctx); err != nil {
			zap.L().Error("Failed to seed demo fleet", zap.Error(err))
		}
	} else {
		zap.L().Info("Skipping demo fleet creation (SEED_DEMO_DATA=false)")
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return store.Storage("ping database", err)
	}
	return nil
}

func (s *Service) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL,
		credit_card TEXT NOT NULL,
		smart_card TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		street TEXT NOT NULL,
		city TEXT NOT NULL,
		province TEXT NOT NULL,
		region TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS admins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		num_slots INTEGER NOT NULL CHECK (num_slots >= 0),
		num_bikes INTEGER NOT NULL CHECK (num_bikes >= 0 AND num_bikes <= num_slots),
		street TEXT NOT NULL,
		city TEXT NOT NULL,
		province TEXT NOT NULL,
		region TEXT NOT NULL,
		latitude REAL NOT NULL DEFAULT 0,
		longitude REAL NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bikes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tag_code TEXT NOT NULL UNIQUE,
		latitude TEXT NOT NULL DEFAULT '0',
		longitude TEXT NOT NULL DEFAULT '0',
		distance_traveled INTEGER NOT NULL DEFAULT 0 CHECK (distance_traveled >= 0),
		gps_device TEXT NOT NULL,
		home_station_id INTEGER REFERENCES stations(id),
		version INTEGER NOT NULL DEFAULT 1,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL
	);

	-- Append-only rental ledger
	CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL CHECK (kind IN ('checkout', 'return')),
		occurred_date TEXT NOT NULL,
		occurred_time TEXT NOT NULL,
		distance INTEGER NOT NULL DEFAULT 0 CHECK (distance >= 0),
		user_id INTEGER NOT NULL REFERENCES users(id),
		bike_id INTEGER NOT NULL REFERENCES bikes(id),
		station_id INTEGER NOT NULL REFERENCES stations(id),
		fare INTEGER,
		reference TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_operations_bike_id ON operations(bike_id, id);
	CREATE INDEX IF NOT EXISTS idx_operations_user_id ON operations(user_id, id);
	CREATE INDEX IF NOT EXISTS idx_operations_station_id ON operations(station_id);
	CREATE INDEX IF NOT EXISTS idx_bikes_home_station ON bikes(home_station_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// seedDemoFleet creates two stations and docks three bikes when the database is empty.
func (s *Service) seedDemoFleet(ctx context.Context) error {
	stations, err := s.GetStations(ctx)
	if err != nil {
		return err
	}
	if len(stations) > 0 {
		zap.L().Info("Demo fleet skipped, stations already exist", zap.Int("stations", len(stations)))
		return nil
	}

	demo := []store.CreateStationParams{
		{NumSlots: 10, NumBikes: 0, Street: "Piazza Duomo 1", City: "Milano", Province: "MI", Region: "Lombardia", Latitude: 45.4642, Longitude: 9.1900},
		{NumSlots: 6, NumBikes: 0, Street: "Corso Buenos Aires 2", City: "Milano", Province: "MI", Region: "Lombardia", Latitude: 45.4781, Longitude: 9.2108},
	}

	for i, params := range demo {
		station, err := s.CreateStation(ctx, params)
		if err != nil {
			return fmt.Errorf("seed station %d: %w", i, err)
		}
		for j := 0; j < 2-i; j++ {
			bike, err := s.CreateBike(ctx, store.CreateBikeParams{
				TagCode:   fmt.Sprintf("DEMO%02d", i*10+j),
				GpsDevice: fmt.Sprintf("GPS%02d", i*10+j),
			})
			if err != nil {
				return fmt.Errorf("seed bike: %w", err)
			}
			if err := s.PlaceBike(ctx, bike.Id, station.Id); err != nil {
				return fmt.Errorf("seed placement: %w", err)
			}
			zap.L().Info("Demo bike docked", zap.Int64("bike_id", bike.Id), zap.Int64("station_id", station.Id))
		}
	}
	return nil
}

// inTx runs fn inside a single transaction. The transaction is rolled back on
// every path that does not reach Commit.
func (s *Service) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Storage(op+": begin transaction", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to roll back transaction", zap.String("op", op), zap.Error(err))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return store.Storage(op+": commit transaction", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
