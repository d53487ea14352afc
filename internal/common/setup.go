package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"bike-rental-go/internal/api"
	"bike-rental-go/internal/auth"
	"bike-rental-go/internal/cache"
	"bike-rental-go/internal/database"
	"bike-rental-go/internal/ledger"
	"bike-rental-go/internal/metrics"
	"bike-rental-go/internal/models"
	"bike-rental-go/internal/query"
	"bike-rental-go/internal/rental"
	"bike-rental-go/internal/tariff"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// A missing .env is fine; variables may come from the shell or the container
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService   *database.Service
	StatusCache cache.StatusCache
	Tariff      *tariff.Tariff
	Metrics     *metrics.Recorder
	Ledger      *ledger.Ledger
	Query       *query.Facade
	Engine      *rental.Engine
	Api         *api.Service
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the store, cache, tariff and ledger into the
// application service. The bootstrap admin is created when configured.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	statusCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	fares, err := tariff.LoadOrDefault(cfg.Ledger.TariffFile)
	if err != nil {
		statusCache.Close()
		dbService.Close()
		return nil, err
	}
	zap.L().Info("Using tariff",
		zap.String("currency", fares.Currency()),
		zap.Int64("minimum_charge", fares.MinimumCharge()),
		zap.String("source", tariffSource(cfg.Ledger.TariffFile)))

	recorder := metrics.NewRecorder()
	l := ledger.New(dbService, statusCache, fares, recorder, cfg.Ledger)
	q := query.NewFacade(dbService, statusCache)
	engine := rental.NewEngine(dbService, l, q)
	tokens := auth.NewTokenIssuer(cfg.Auth.JwtSecret, cfg.Auth.TokenTTL)

	services := &Services{
		DbService:   dbService,
		StatusCache: statusCache,
		Tariff:      fares,
		Metrics:     recorder,
		Ledger:      l,
		Query:       q,
		Engine:      engine,
		Api:         api.NewService(dbService, l, engine, q, tokens),
	}

	if cfg.Auth.AdminEmail != "" {
		if cfg.Auth.AdminPassword == "" {
			services.Close()
			return nil, fmt.Errorf("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
		}
		admin, err := services.Api.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
		if err != nil {
			services.Close()
			return nil, err
		}
		zap.L().Info("Bootstrap admin ready", zap.Int64("admin_id", admin.Id), zap.String("email", admin.Email))
	}

	return services, nil
}

// InitializeDatabaseOnly opens just the database for read-only reports
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.StatusCache != nil {
		cs.StatusCache.Close()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func tariffSource(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
