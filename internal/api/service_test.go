package api

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bike-rental-go/internal/auth"
	"bike-rental-go/internal/cache"
	"bike-rental-go/internal/database"
	"bike-rental-go/internal/ledger"
	"bike-rental-go/internal/metrics"
	"bike-rental-go/internal/models"
	"bike-rental-go/internal/query"
	"bike-rental-go/internal/rental"
	"bike-rental-go/internal/store"
	"bike-rental-go/internal/tariff"
)

func setupTestService(t *testing.T) (*Service, func()) {
	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "api_test.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		PingTimeout:  5 * time.Second,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	statusCache := cache.Nop{}
	l := ledger.New(db, statusCache, tariff.Default(), metrics.NewRecorder(), models.LedgerConfig{})
	q := query.NewFacade(db, statusCache)
	service := NewService(db, l, rental.NewEngine(db, l, q), q, auth.NewTokenIssuer("test-secret", time.Hour))
	return service, db.Close
}

func registerRider(t *testing.T, service *Service, email string) *models.User {
	user, err := service.Register(context.Background(), models.RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  "bicycle-built",
		City:      "Torino",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return user
}

func intPtr(v int) *int { return &v }

func TestRegister(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	user := registerRider(t, service, "Ada@Example.com")
	if user.Email != "ada@example.com" {
		t.Errorf("Expected normalized email, got %s", user.Email)
	}
	if len(user.SmartCard) != auth.SmartCardLength {
		t.Errorf("Expected %d-character smart card, got %q", auth.SmartCardLength, user.SmartCard)
	}
	if user.PasswordHash == "bicycle-built" {
		t.Error("Expected password to be hashed")
	}

	_, err := service.Register(context.Background(), models.RegisterRequest{
		FirstName: "Other", LastName: "Rider", Email: "ada@example.com", Password: "another-pass",
	})
	if !errors.Is(err, store.ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	tests := []struct {
		name string
		req  models.RegisterRequest
	}{
		{"missing first name", models.RegisterRequest{LastName: "L", Email: "a@b.it", Password: "password1"}},
		{"bad email", models.RegisterRequest{FirstName: "F", LastName: "L", Email: "not-an-email", Password: "password1"}},
		{"short password", models.RegisterRequest{FirstName: "F", LastName: "L", Email: "a@b.it", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.Register(context.Background(), tt.req); !errors.Is(err, store.ErrValidation) {
				t.Errorf("Expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	user := registerRider(t, service, "rider@example.com")
	if _, err := service.EnsureAdmin(ctx, "ops@example.com", "admin-pass"); err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}

	result, err := service.Login(ctx, models.LoginRequest{Email: "rider@example.com", Password: "bicycle-built"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Role != auth.RoleUser || result.User == nil || result.User.Id != user.Id {
		t.Errorf("Expected user login for %d, got %+v", user.Id, result)
	}
	claims, err := service.Tokens().Parse(result.Token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.UserId != user.Id || claims.Role != auth.RoleUser {
		t.Errorf("Expected claims for user %d, got %+v", user.Id, claims)
	}

	result, err = service.Login(ctx, models.LoginRequest{Email: "ops@example.com", Password: "admin-pass"})
	if err != nil {
		t.Fatalf("Admin login failed: %v", err)
	}
	if result.Role != auth.RoleAdmin || result.Admin == nil {
		t.Errorf("Expected admin login, got %+v", result)
	}

	if _, err := service.Login(ctx, models.LoginRequest{Email: "rider@example.com", Password: "wrong-pass"}); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := service.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "whatever"}); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	first, err := service.EnsureAdmin(ctx, "ops@example.com", "admin-pass")
	if err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}
	second, err := service.EnsureAdmin(ctx, "OPS@example.com", "admin-pass")
	if err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}
	if first.Id != second.Id {
		t.Errorf("Expected same admin, got %d and %d", first.Id, second.Id)
	}
}

func TestFleetAndRentals(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	user := registerRider(t, service, "rider@example.com")

	if _, err := service.CreateStation(ctx, models.CreateStationRequest{Street: "Via Po", City: "Torino", Province: "TO", Region: "Piemonte"}); !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected ErrValidation without slot counts, got %v", err)
	}

	station, err := service.CreateStation(ctx, models.CreateStationRequest{
		NumSlots: intPtr(4), NumBikes: intPtr(0), Street: "Via Po", City: "Torino", Province: "TO", Region: "Piemonte",
	})
	if err != nil {
		t.Fatalf("CreateStation failed: %v", err)
	}

	bike, err := service.CreateBike(ctx, models.CreateBikeRequest{StationId: &station.Id})
	if err != nil {
		t.Fatalf("CreateBike failed: %v", err)
	}
	if len(bike.TagCode) != auth.DeviceCodeLength || len(bike.GpsDevice) != auth.DeviceCodeLength {
		t.Errorf("Expected generated codes, got %q and %q", bike.TagCode, bike.GpsDevice)
	}
	if bike.HomeStationId == nil || *bike.HomeStationId != station.Id {
		t.Errorf("Expected bike docked at %d, got %v", station.Id, bike.HomeStationId)
	}

	if _, err := service.SubmitOperation(ctx, user.Id, models.OperationRequest{Kind: "borrow", BikeId: bike.Id, StationId: station.Id}); !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected ErrValidation for unknown kind, got %v", err)
	}
	if _, err := service.SubmitOperation(ctx, user.Id, models.OperationRequest{Kind: models.OperationCheckout, BikeId: bike.Id, StationId: station.Id}); err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if err := service.DeleteBike(ctx, bike.Id); !errors.Is(err, store.ErrBikeAlreadyCheckedOut) {
		t.Errorf("Expected rented bike to be undeletable, got %v", err)
	}
	op, err := service.SubmitOperation(ctx, user.Id, models.OperationRequest{Kind: models.OperationReturn, BikeId: bike.Id, StationId: station.Id, Distance: 3})
	if err != nil {
		t.Fatalf("Return failed: %v", err)
	}
	if op.Fare == nil || *op.Fare != 150 {
		t.Errorf("Expected fare 150, got %v", op.Fare)
	}

	history, err := service.History(ctx, user.Id)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("Expected 2 operations, got %d", len(history))
	}

	if err := service.UpdateBikePosition(ctx, bike.Id, models.PositionUpdate{Latitude: "45.07", Longitude: "7.68"}); err != nil {
		t.Fatalf("UpdateBikePosition failed: %v", err)
	}
	if err := service.DeleteBike(ctx, bike.Id); err != nil {
		t.Fatalf("DeleteBike failed: %v", err)
	}
	if err := service.DeleteStation(ctx, station.Id); err != nil {
		t.Fatalf("DeleteStation failed: %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	if err := service.HealthCheck(context.Background()); err != nil {
		t.Errorf("Expected healthy database, got %v", err)
	}
	if info := service.Info(); info.Currency != "EUR" || len(info.Endpoints) == 0 {
		t.Errorf("Expected EUR info with endpoints, got %+v", info)
	}
}
