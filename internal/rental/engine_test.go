package rental

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"bike-rental-go/internal/cache"
	"bike-rental-go/internal/database"
	"bike-rental-go/internal/ledger"
	"bike-rental-go/internal/metrics"
	"bike-rental-go/internal/models"
	"bike-rental-go/internal/query"
	"bike-rental-go/internal/store"
	"bike-rental-go/internal/tariff"
)

type testEnv struct {
	db      *database.Service
	engine  *Engine
	user    int64
	station int64
	bike    int64
}

func setupEngine(t *testing.T) (*testEnv, func()) {
	ctx := context.Background()
	db, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "rental_test.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		PingTimeout:  5 * time.Second,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	statusCache := cache.NewMemory(time.Minute)
	l := ledger.New(db, statusCache, tariff.Default(), metrics.NewRecorder(), models.LedgerConfig{})
	engine := NewEngine(db, l, query.NewFacade(db, statusCache))

	user, err := db.CreateUser(ctx, store.CreateUserParams{Email: "rider@example.com", SmartCard: "CARD0001", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	station, err := db.CreateStation(ctx, store.CreateStationParams{NumSlots: 5, NumBikes: 1})
	if err != nil {
		t.Fatalf("CreateStation failed: %v", err)
	}
	bike, err := db.CreateBike(ctx, store.CreateBikeParams{TagCode: "ENG001", GpsDevice: "G"})
	if err != nil {
		t.Fatalf("CreateBike failed: %v", err)
	}
	if err := l.DockBike(ctx, bike.Id, station.Id); err != nil {
		t.Fatalf("DockBike failed: %v", err)
	}

	env := &testEnv{db: db, engine: engine, user: user.Id, station: station.Id, bike: bike.Id}
	return env, func() {
		statusCache.Close()
		db.Close()
	}
}

func TestCheckoutAndReturn(t *testing.T) {
	env, cleanup := setupEngine(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := env.engine.Checkout(ctx, env.user, env.bike, env.station); err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	status, err := env.engine.BikeStatus(ctx, env.bike)
	if err != nil {
		t.Fatalf("BikeStatus failed: %v", err)
	}
	if !status.CheckedOut {
		t.Error("Expected bike to be checked out")
	}

	op, err := env.engine.ReturnBike(ctx, env.user, env.bike, env.station, 12)
	if err != nil {
		t.Fatalf("ReturnBike failed: %v", err)
	}
	if op.Fare == nil || *op.Fare != 460 {
		t.Errorf("Expected fare 460, got %v", op.Fare)
	}

	status, err = env.engine.BikeStatus(ctx, env.bike)
	if err != nil {
		t.Fatalf("BikeStatus failed: %v", err)
	}
	if status.CheckedOut || status.DistanceTraveled != 12 {
		t.Errorf("Expected docked bike with 12 km, got %+v", status)
	}

	history, err := env.engine.UserHistory(ctx, env.user)
	if err != nil {
		t.Fatalf("UserHistory failed: %v", err)
	}
	if len(history) != 2 || history[0].Kind != models.OperationReturn {
		t.Errorf("Expected return then checkout, got %+v", history)
	}

	station, err := env.db.GetStation(ctx, env.station)
	if err != nil {
		t.Fatalf("GetStation failed: %v", err)
	}
	if station.NumBikes != 2 {
		t.Errorf("Expected 2 bikes, got %d", station.NumBikes)
	}
}

func TestValidation(t *testing.T) {
	env, cleanup := setupEngine(t)
	defer cleanup()

	// Validation runs before the context is consulted.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		call func() error
	}{
		{"checkout zero user", func() error { _, err := env.engine.Checkout(ctx, 0, env.bike, env.station); return err }},
		{"checkout negative bike", func() error { _, err := env.engine.Checkout(ctx, env.user, -1, env.station); return err }},
		{"checkout zero station", func() error { _, err := env.engine.Checkout(ctx, env.user, env.bike, 0); return err }},
		{"return negative distance", func() error {
			_, err := env.engine.ReturnBike(ctx, env.user, env.bike, env.station, -5)
			return err
		}},
		{"return distance above maximum", func() error {
			_, err := env.engine.ReturnBike(ctx, env.user, env.bike, env.station, 1_000_001)
			return err
		}},
		{"return distance at int64 limit", func() error {
			_, err := env.engine.ReturnBike(ctx, env.user, env.bike, env.station, math.MaxInt64)
			return err
		}},
		{"status zero bike", func() error { _, err := env.engine.BikeStatus(ctx, 0); return err }},
		{"history zero user", func() error { _, err := env.engine.UserHistory(ctx, 0); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, store.ErrValidation) {
				t.Errorf("Expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	env, cleanup := setupEngine(t)
	defer cleanup()

	ctx := context.Background()
	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"unknown user", func() error { _, err := env.engine.Checkout(ctx, 999, env.bike, env.station); return err }, store.ErrUserNotFound},
		{"unknown bike", func() error { _, err := env.engine.Checkout(ctx, env.user, 999, env.station); return err }, store.ErrBikeNotFound},
		{"unknown station", func() error { _, err := env.engine.Checkout(ctx, env.user, env.bike, 999); return err }, store.ErrStationNotFound},
		{"return to unknown station", func() error {
			_, err := env.engine.ReturnBike(ctx, env.user, env.bike, 999, 1)
			return err
		}, store.ErrStationNotFound},
		{"history of unknown user", func() error { _, err := env.engine.UserHistory(ctx, 999); return err }, store.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, store.ErrNotFound) {
				t.Errorf("Expected NotFound class, got %v", err)
			}
		})
	}
}

func TestCancelledRequestHasNoEffect(t *testing.T) {
	env, cleanup := setupEngine(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := env.engine.Checkout(ctx, env.user, env.bike, env.station); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	status, err := env.engine.BikeStatus(context.Background(), env.bike)
	if err != nil {
		t.Fatalf("BikeStatus failed: %v", err)
	}
	if status.CheckedOut {
		t.Error("Expected cancelled checkout to leave the bike docked")
	}
}

func TestConflicts(t *testing.T) {
	env, cleanup := setupEngine(t)
	defer cleanup()

	ctx := context.Background()
	other, err := env.db.CreateUser(ctx, store.CreateUserParams{Email: "other@example.com", SmartCard: "CARD0002", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if _, err := env.engine.ReturnBike(ctx, env.user, env.bike, env.station, 1); !errors.Is(err, store.ErrBikeNotCheckedOut) {
		t.Errorf("Expected ErrBikeNotCheckedOut, got %v", err)
	}
	if _, err := env.engine.Checkout(ctx, env.user, env.bike, env.station); err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if _, err := env.engine.Checkout(ctx, other.Id, env.bike, env.station); !errors.Is(err, store.ErrBikeAlreadyCheckedOut) {
		t.Errorf("Expected ErrBikeAlreadyCheckedOut, got %v", err)
	}
	if _, err := env.engine.ReturnBike(ctx, other.Id, env.bike, env.station, 5); !errors.Is(err, store.ErrReturnByWrongUser) {
		t.Errorf("Expected ErrReturnByWrongUser, got %v", err)
	}
}
