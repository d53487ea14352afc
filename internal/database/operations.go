package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"bike-rental-go/internal/models"
	"bike-rental-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

func scanOperation(row rowScanner) (*models.Operation, error) {
	var op models.Operation
	var kind string
	var fare sql.NullInt64
	err := row.Scan(&op.Id, &kind, &op.OccurredDate, &op.OccurredTime, &op.Distance,
		&op.UserId, &op.BikeId, &op.StationId, &fare, &op.Reference, &op.CreatedAt)
	if err != nil {
		return nil, err
	}
	op.Kind = models.OperationKind(kind)
	if fare.Valid {
		amount := fare.Int64
		op.Fare = &amount
	}
	return &op, nil
}

func getLatestBikeOperation(ctx context.Context, q querier, bikeId int64) (*models.Operation, error) {
	op, err := scanOperation(q.QueryRowContext(ctx, queryGetLatestBikeOperation, bikeId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, store.Storage("query latest bike operation", err)
	}
	return op, nil
}

// insertOperation appends a ledger entry. The date and time are captured here
// and never change afterwards.
func insertOperation(ctx context.Context, tx *sql.Tx, kind models.OperationKind, userId, bikeId, stationId, distance int64, fare *int64) (*models.Operation, error) {
	now := nowUTC()
	var fareArg sql.NullInt64
	if fare != nil {
		fareArg = sql.NullInt64{Int64: *fare, Valid: true}
	}

	op, err := scanOperation(tx.QueryRowContext(ctx, queryInsertOperation,
		string(kind), now.Format(dateLayout), now.Format(timeLayout), distance,
		userId, bikeId, stationId, fareArg, uuid.New().String(), now))
	if err != nil {
		return nil, store.Storage("insert operation", err)
	}
	return op, nil
}

// CommitCheckout validates and applies a checkout in one transaction: the
// bike's state is re-derived from the ledger, the station gives up one bike
// and a checkout entry is appended. Nothing is written unless all of it is.
func (s *Service) CommitCheckout(ctx context.Context, params store.CheckoutParams) (*models.Operation, error) {
	zap.L().Info("Processing checkout",
		zap.Int64("user_id", params.UserId),
		zap.Int64("bike_id", params.BikeId),
		zap.Int64("station_id", params.StationId))

	var op *models.Operation
	err := s.inTx(ctx, "checkout", func(tx *sql.Tx) error {
		status, err := getBikeStatus(ctx, tx, params.BikeId)
		if err != nil {
			return err
		}

		switch {
		case status.CheckedOut:
			return store.ErrBikeAlreadyCheckedOut
		case status.CurrentStationId == nil:
			return store.ErrBikeNotPlaced
		case *status.CurrentStationId != params.StationId:
			return fmt.Errorf("%w: bike %d is at station %d", store.ErrBikeNotAtStation, params.BikeId, *status.CurrentStationId)
		}

		station, err := getStation(ctx, tx, params.StationId)
		if err != nil {
			return err
		}
		if !station.HasAvailableBike() {
			return store.ErrStationHasNoBike
		}

		if err := execGuarded(ctx, tx, queryTakeStationBike, store.ErrStationHasNoBike, params.StationId); err != nil {
			return err
		}
		if err := execGuarded(ctx, tx, queryTouchBike, store.ErrBikeNotFound, params.BikeId); err != nil {
			return err
		}

		op, err = insertOperation(ctx, tx, models.OperationCheckout, params.UserId, params.BikeId, params.StationId, 0, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Checkout committed",
		zap.Int64("operation_id", op.Id),
		zap.String("reference", op.Reference),
		zap.Int64("user_id", op.UserId),
		zap.Int64("bike_id", op.BikeId),
		zap.Int64("station_id", op.StationId))
	return op, nil
}

// CommitReturn validates and applies a return in one transaction: the bike
// must be checked out (by the same user unless third-party returns are
// allowed), the station takes one bike, the bike's distance grows and a
// return entry carrying the fare is appended.
func (s *Service) CommitReturn(ctx context.Context, params store.ReturnParams) (*models.Operation, error) {
	zap.L().Info("Processing return",
		zap.Int64("user_id", params.UserId),
		zap.Int64("bike_id", params.BikeId),
		zap.Int64("station_id", params.StationId),
		zap.Int64("distance", params.Distance))

	if params.Distance < 0 {
		return nil, store.Validationf("distance must be >= 0, got %d", params.Distance)
	}

	var op *models.Operation
	err := s.inTx(ctx, "return", func(tx *sql.Tx) error {
		status, err := getBikeStatus(ctx, tx, params.BikeId)
		if err != nil {
			return err
		}
		if !status.CheckedOut {
			return store.ErrBikeNotCheckedOut
		}
		if *status.RentedBy != params.UserId && !params.AllowThirdParty {
			return fmt.Errorf("%w: rented by user %d", store.ErrReturnByWrongUser, *status.RentedBy)
		}

		station, err := getStation(ctx, tx, params.StationId)
		if err != nil {
			return err
		}
		if !station.HasFreeSlot() {
			return store.ErrStationFull
		}

		if err := execGuarded(ctx, tx, queryDockStationBike, store.ErrStationFull, params.StationId); err != nil {
			return err
		}
		overflow := store.Validationf("distance %d overflows the odometer of bike %d", params.Distance, params.BikeId)
		if err := execGuarded(ctx, tx, queryAddBikeDistance, overflow, params.Distance, params.BikeId, int64(math.MaxInt64), params.Distance); err != nil {
			return err
		}

		fare := params.Fare
		op, err = insertOperation(ctx, tx, models.OperationReturn, params.UserId, params.BikeId, params.StationId, params.Distance, &fare)
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Return committed",
		zap.Int64("operation_id", op.Id),
		zap.String("reference", op.Reference),
		zap.Int64("user_id", op.UserId),
		zap.Int64("bike_id", op.BikeId),
		zap.Int64("station_id", op.StationId),
		zap.Int64("distance", op.Distance),
		zap.Int64("fare", params.Fare))
	return op, nil
}

func (s *Service) GetLatestBikeOperation(ctx context.Context, bikeId int64) (*models.Operation, error) {
	return getLatestBikeOperation(ctx, s.db, bikeId)
}

// GetUserOperations returns a user's ledger entries, most recent first. Ids are
// assigned in insertion order so the ordering is stable.
func (s *Service) GetUserOperations(ctx context.Context, userId int64) ([]models.Operation, error) {
	zap.L().Debug("Getting user operations", zap.Int64("user_id", userId))

	rows, err := s.db.QueryContext(ctx, queryGetUserOperations, userId)
	if err != nil {
		return nil, store.Storage("query user operations", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	operations := []models.Operation{}
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, store.Storage("scan operation row", err)
		}
		operations = append(operations, *op)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during operation row iteration", zap.Error(err))
		return nil, store.Storage("iterate operation rows", err)
	}
	return operations, nil
}
