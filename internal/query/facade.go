package query

import (
	"context"

	"bike-rental-go/internal/cache"
	"bike-rental-go/internal/models"
	"bike-rental-go/internal/store"

	"go.uber.org/zap"
)

// Facade serves read-only projections of committed ledger state. It takes no
// ledger locks and never writes to the status cache.
type Facade struct {
	store store.LedgerStore
	cache cache.StatusCache
}

func NewFacade(st store.LedgerStore, statusCache cache.StatusCache) *Facade {
	if statusCache == nil {
		statusCache = cache.Nop{}
	}
	return &Facade{store: st, cache: statusCache}
}

// GetUserOperations returns the user's operations, most recent first.
func (f *Facade) GetUserOperations(ctx context.Context, userId int64) ([]models.Operation, error) {
	if _, err := f.store.GetUserById(ctx, userId); err != nil {
		return nil, err
	}

	operations, err := f.store.GetUserOperations(ctx, userId)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("Retrieved user operations",
		zap.Int64("user_id", userId),
		zap.Int("count", len(operations)))
	return operations, nil
}

// GetBikeStatus returns the bike snapshot. A cache hit is served only while
// its version matches the store, so commits made through another ledger
// sharing the database are never hidden by a stale entry.
func (f *Facade) GetBikeStatus(ctx context.Context, bikeId int64) (*models.BikeStatus, error) {
	if status, ok := f.cache.Get(ctx, bikeId); ok {
		version, err := f.store.GetBikeVersion(ctx, bikeId)
		if err != nil {
			return nil, err
		}
		if version == status.Version {
			zap.L().Debug("Bike status served from cache", zap.Int64("bike_id", bikeId))
			return status, nil
		}
		zap.L().Debug("Cached bike status is stale",
			zap.Int64("bike_id", bikeId),
			zap.Int64("cached_version", status.Version),
			zap.Int64("version", version))
	}
	return f.store.GetBikeStatus(ctx, bikeId)
}
