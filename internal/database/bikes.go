package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bike-rental-go/internal/models"
	"bike-rental-go/internal/store"

	"go.uber.org/zap"
)

func scanBike(row rowScanner) (*models.Bike, error) {
	var bike models.Bike
	var homeStation sql.NullInt64
	err := row.Scan(&bike.Id, &bike.TagCode, &bike.Latitude, &bike.Longitude, &bike.DistanceTraveled,
		&bike.GpsDevice, &homeStation, &bike.Version, &bike.Active, &bike.CreatedAt)
	if err != nil {
		return nil, err
	}
	if homeStation.Valid {
		id := homeStation.Int64
		bike.HomeStationId = &id
	}
	return &bike, nil
}

func getBike(ctx context.Context, q querier, bikeId int64) (*models.Bike, error) {
	bike, err := scanBike(q.QueryRowContext(ctx, queryGetBike, bikeId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", store.ErrBikeNotFound, bikeId)
		}
		return nil, store.Storage("query bike", err)
	}
	return bike, nil
}

// getBikeStatus derives the ledger view of a bike from its latest operation.
func getBikeStatus(ctx context.Context, q querier, bikeId int64) (*models.BikeStatus, error) {
	bike, err := getBike(ctx, q, bikeId)
	if err != nil {
		return nil, err
	}
	latest, err := getLatestBikeOperation(ctx, q, bikeId)
	if err != nil {
		return nil, err
	}
	status := models.DeriveBikeStatus(*bike, latest)
	return &status, nil
}

func (s *Service) CreateBike(ctx context.Context, params store.CreateBikeParams) (*models.Bike, error) {
	bike, err := scanBike(s.db.QueryRowContext(ctx, queryInsertBike, params.TagCode, params.GpsDevice, nowUTC()))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrTagCodeTaken, params.TagCode)
		}
		zap.L().Error("Failed to insert bike", zap.String("tag_code", params.TagCode), zap.Error(err))
		return nil, store.Storage("insert bike", err)
	}

	zap.L().Info("Bike created", zap.Int64("bike_id", bike.Id), zap.String("tag_code", bike.TagCode))
	return bike, nil
}

func (s *Service) GetBike(ctx context.Context, bikeId int64) (*models.Bike, error) {
	return getBike(ctx, s.db, bikeId)
}

// GetBikes returns active bikes ordered by cumulative distance, highest first.
func (s *Service) GetBikes(ctx context.Context) ([]models.Bike, error) {
	rows, err := s.db.QueryContext(ctx, queryGetBikes)
	if err != nil {
		zap.L().Error("Failed to query bikes", zap.Error(err))
		return nil, store.Storage("query bikes", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var bikes []models.Bike
	for rows.Next() {
		bike, err := scanBike(rows)
		if err != nil {
			return nil, store.Storage("scan bike row", err)
		}
		bikes = append(bikes, *bike)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during bike row iteration", zap.Error(err))
		return nil, store.Storage("iterate bike rows", err)
	}
	return bikes, nil
}

func (s *Service) GetBikeStatus(ctx context.Context, bikeId int64) (*models.BikeStatus, error) {
	zap.L().Debug("Querying bike status", zap.Int64("bike_id", bikeId))
	return getBikeStatus(ctx, s.db, bikeId)
}

func (s *Service) GetBikeVersion(ctx context.Context, bikeId int64) (int64, error) {
	var version int64
	if err := s.db.QueryRowContext(ctx, queryGetBikeVersion, bikeId).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %d", store.ErrBikeNotFound, bikeId)
		}
		return 0, store.Storage("query bike version", err)
	}
	return version, nil
}

func (s *Service) UpdateBikePosition(ctx context.Context, bikeId int64, latitude, longitude string) error {
	result, err := s.db.ExecContext(ctx, queryUpdateBikePosition, latitude, longitude, bikeId)
	if err != nil {
		return store.Storage("update bike position", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.Storage("update bike position: rows affected", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %d", store.ErrBikeNotFound, bikeId)
	}
	return nil
}

// PlaceBike docks a bike that has never been docked at a station, taking one of its slots.
func (s *Service) PlaceBike(ctx context.Context, bikeId, stationId int64) error {
	return s.inTx(ctx, "place bike", func(tx *sql.Tx) error {
		bike, err := getBike(ctx, tx, bikeId)
		if err != nil {
			return err
		}

		var history int
		if err := tx.QueryRowContext(ctx, queryCountBikeOperations, bikeId).Scan(&history); err != nil {
			return store.Storage("count bike operations", err)
		}
		if bike.HomeStationId != nil || history > 0 {
			return store.ErrBikeAlreadyPlaced
		}

		station, err := getStation(ctx, tx, stationId)
		if err != nil {
			return err
		}
		if !station.HasFreeSlot() {
			return store.ErrStationFull
		}

		if err := execGuarded(ctx, tx, queryDockStationBike, store.ErrStationFull, stationId); err != nil {
			return err
		}
		if err := execGuarded(ctx, tx, queryPlaceBike, store.ErrBikeAlreadyPlaced, stationId, bikeId); err != nil {
			return err
		}

		zap.L().Info("Bike placed at station",
			zap.Int64("bike_id", bikeId),
			zap.Int64("station_id", stationId),
			zap.Int("station_bikes", station.NumBikes+1))
		return nil
	})
}

// RetireBike removes a docked bike from the fleet and frees its slot. The
// caller passes the station it observed the bike at; a mismatch means the
// bike moved in between and the call is rejected.
func (s *Service) RetireBike(ctx context.Context, bikeId int64, expectedStationId *int64) error {
	return s.inTx(ctx, "retire bike", func(tx *sql.Tx) error {
		status, err := getBikeStatus(ctx, tx, bikeId)
		if err != nil {
			return err
		}
		if status.CheckedOut {
			return store.ErrBikeAlreadyCheckedOut
		}
		if !sameStation(status.CurrentStationId, expectedStationId) {
			return store.ErrConcurrentModification
		}

		if status.CurrentStationId != nil {
			stationId := *status.CurrentStationId
			result, err := tx.ExecContext(ctx, queryTakeStationBike, stationId)
			if err != nil {
				return store.Storage("free station slot", err)
			}
			if n, err := result.RowsAffected(); err == nil && n == 0 {
				zap.L().Warn("Station occupancy already empty while retiring docked bike",
					zap.Int64("bike_id", bikeId), zap.Int64("station_id", stationId))
			}
		}

		if err := execGuarded(ctx, tx, queryRetireBike, store.ErrBikeNotFound, bikeId); err != nil {
			return err
		}

		zap.L().Info("Bike retired", zap.Int64("bike_id", bikeId))
		return nil
	})
}

// execGuarded runs a conditional UPDATE and returns failErr when no row matched.
func execGuarded(ctx context.Context, tx *sql.Tx, query string, failErr error, args ...any) error {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return store.Storage("guarded update", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.Storage("guarded update: rows affected", err)
	}
	if rowsAffected == 0 {
		return failErr
	}
	return nil
}

func sameStation(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
