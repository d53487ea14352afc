package rental

import (
	"context"
	"fmt"

	"bike-rental-go/internal/ledger"
	"bike-rental-go/internal/models"
	"bike-rental-go/internal/query"
	"bike-rental-go/internal/store"

	"go.uber.org/zap"
)

// Engine validates rental requests and hands them to the ledger.
type Engine struct {
	store  store.LedgerStore
	ledger *ledger.Ledger
	query  *query.Facade
}

func NewEngine(st store.LedgerStore, l *ledger.Ledger, q *query.Facade) *Engine {
	return &Engine{store: st, ledger: l, query: q}
}

// Checkout rents a bike from a station.
func (e *Engine) Checkout(ctx context.Context, userId, bikeId, stationId int64) (*models.Operation, error) {
	if err := validateIds(userId, bikeId, stationId); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("checkout cancelled: %w", err)
	}
	if err := e.requireEntities(ctx, userId, bikeId, stationId); err != nil {
		return nil, err
	}

	op, err := e.ledger.ApplyCheckout(ctx, userId, bikeId, stationId)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Bike checked out",
		zap.Int64("user_id", userId),
		zap.Int64("bike_id", bikeId),
		zap.Int64("station_id", stationId),
		zap.String("reference", op.Reference))
	return op, nil
}

// ReturnBike docks a rented bike and charges the fare for the distance covered.
func (e *Engine) ReturnBike(ctx context.Context, userId, bikeId, stationId, distance int64) (*models.Operation, error) {
	if err := validateIds(userId, bikeId, stationId); err != nil {
		return nil, err
	}
	if err := e.ledger.ValidateDistance(distance); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("return cancelled: %w", err)
	}
	if err := e.requireEntities(ctx, userId, bikeId, stationId); err != nil {
		return nil, err
	}

	op, err := e.ledger.ApplyReturn(ctx, userId, bikeId, stationId, distance)
	if err != nil {
		return nil, err
	}

	var fare int64
	if op.Fare != nil {
		fare = *op.Fare
	}
	zap.L().Info("Bike returned",
		zap.Int64("user_id", userId),
		zap.Int64("bike_id", bikeId),
		zap.Int64("station_id", stationId),
		zap.Int64("distance", distance),
		zap.Int64("fare", fare),
		zap.String("reference", op.Reference))
	return op, nil
}

func (e *Engine) BikeStatus(ctx context.Context, bikeId int64) (*models.BikeStatus, error) {
	if bikeId <= 0 {
		return nil, store.Validationf("bike id must be positive, got %d", bikeId)
	}
	return e.query.GetBikeStatus(ctx, bikeId)
}

func (e *Engine) UserHistory(ctx context.Context, userId int64) ([]models.Operation, error) {
	if userId <= 0 {
		return nil, store.Validationf("user id must be positive, got %d", userId)
	}
	return e.query.GetUserOperations(ctx, userId)
}

func validateIds(userId, bikeId, stationId int64) error {
	switch {
	case userId <= 0:
		return store.Validationf("user id must be positive, got %d", userId)
	case bikeId <= 0:
		return store.Validationf("bike id must be positive, got %d", bikeId)
	case stationId <= 0:
		return store.Validationf("station id must be positive, got %d", stationId)
	}
	return nil
}

// requireEntities reports the first missing entity as its NotFound error.
func (e *Engine) requireEntities(ctx context.Context, userId, bikeId, stationId int64) error {
	if _, err := e.store.GetUserById(ctx, userId); err != nil {
		return err
	}
	if _, err := e.store.GetBike(ctx, bikeId); err != nil {
		return err
	}
	if _, err := e.store.GetStation(ctx, stationId); err != nil {
		return err
	}
	return nil
}
