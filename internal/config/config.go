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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bike-rental-go/internal/models"
)

const (
	defaultJwtSecret   = "dev-secret-key-change-in-production"
	defaultMaxDistance = 1_000_000
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	busyTimeout, err := getEnvDuration("DB_BUSY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	lockTimeout, err := getEnvDuration("LEDGER_LOCK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	maxDistance, err := getEnvInt64("LEDGER_MAX_DISTANCE", defaultMaxDistance)
	if err != nil {
		return nil, err
	}
	if maxDistance <= 0 {
		return nil, fmt.Errorf("LEDGER_MAX_DISTANCE must be positive, got %d", maxDistance)
	}

	cacheTTL, err := getEnvDuration("CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	tokenTTL, err := getEnvDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	auditInterval, err := getEnvDuration("AUDIT_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	backend := strings.ToLower(getEnvString("CACHE_BACKEND", "none"))
	switch backend {
	case "none", "memory", "redis":
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q (want none, memory or redis)", backend)
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "bikeshare.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
			BusyTimeout:     busyTimeout,
			SeedDemoData:    getEnvBool("SEED_DEMO_DATA", false),
		},
		Ledger: models.LedgerConfig{
			TariffFile:             getEnvString("TARIFF_FILE", ""),
			LockTimeout:            lockTimeout,
			MaxDistance:            maxDistance,
			AllowThirdPartyReturns: getEnvBool("ALLOW_THIRD_PARTY_RETURNS", false),
		},
		Cache: models.CacheConfig{
			Backend:  backend,
			RedisURL: getEnvString("REDIS_URL", "redis://localhost:6379"),
			TTL:      cacheTTL,
		},
		Server: models.ServerConfig{
			Addr:            getEnvString("SERVER_ADDR", ":8080"),
			ShutdownTimeout: shutdownTimeout,
		},
		Auth: models.AuthConfig{
			JwtSecret:     getEnvString("JWT_SECRET", defaultJwtSecret),
			TokenTTL:      tokenTTL,
			AdminEmail:    getEnvString("ADMIN_EMAIL", ""),
			AdminPassword: getEnvString("ADMIN_PASSWORD", ""),
		},
		Audit: models.AuditConfig{
			Interval: auditInterval,
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	if value := os.Getenv(key); value != "" {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %q (%w)", key, value, err)
		}
		return intValue, nil
	}
	return defaultValue, nil
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
