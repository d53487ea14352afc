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

func scanStation(row rowScanner) (*models.Station, error) {
	var station models.Station
	err := row.Scan(&station.Id, &station.NumSlots, &station.NumBikes,
		&station.Street, &station.City, &station.Province, &station.Region,
		&station.Latitude, &station.Longitude, &station.Version, &station.Active, &station.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &station, nil
}

func getStation(ctx context.Context, q querier, stationId int64) (*models.Station, error) {
	station, err := scanStation(q.QueryRowContext(ctx, queryGetStation, stationId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", store.ErrStationNotFound, stationId)
		}
		return nil, store.Storage("query station", err)
	}
	return station, nil
}

// CreateStation opens a station with a declared occupancy. The occupancy must
// fit the slot count; it is not reconciled against bikes actually placed there.
func (s *Service) CreateStation(ctx context.Context, params store.CreateStationParams) (*models.Station, error) {
	if params.NumSlots < 0 {
		return nil, store.Validationf("num_slots must be >= 0, got %d", params.NumSlots)
	}
	if params.NumBikes < 0 || params.NumBikes > params.NumSlots {
		return nil, store.Validationf("num_bikes must be between 0 and %d, got %d", params.NumSlots, params.NumBikes)
	}

	station, err := scanStation(s.db.QueryRowContext(ctx, queryInsertStation,
		params.NumSlots, params.NumBikes, params.Street, params.City, params.Province, params.Region,
		params.Latitude, params.Longitude, nowUTC()))
	if err != nil {
		zap.L().Error("Failed to insert station", zap.String("street", params.Street), zap.Error(err))
		return nil, store.Storage("insert station", err)
	}

	zap.L().Info("Station created",
		zap.Int64("station_id", station.Id),
		zap.Int("num_slots", station.NumSlots),
		zap.Int("num_bikes", station.NumBikes))
	return station, nil
}

func (s *Service) GetStation(ctx context.Context, stationId int64) (*models.Station, error) {
	return getStation(ctx, s.db, stationId)
}

func (s *Service) GetStations(ctx context.Context) ([]models.Station, error) {
	rows, err := s.db.QueryContext(ctx, queryGetStations)
	if err != nil {
		zap.L().Error("Failed to query stations", zap.Error(err))
		return nil, store.Storage("query stations", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var stations []models.Station
	for rows.Next() {
		station, err := scanStation(rows)
		if err != nil {
			return nil, store.Storage("scan station row", err)
		}
		stations = append(stations, *station)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during station row iteration", zap.Error(err))
		return nil, store.Storage("iterate station rows", err)
	}
	return stations, nil
}

// RetireStation closes a station that no docked bike or open rental refers to.
func (s *Service) RetireStation(ctx context.Context, stationId int64) error {
	return s.inTx(ctx, "retire station", func(tx *sql.Tx) error {
		if _, err := getStation(ctx, tx, stationId); err != nil {
			return err
		}

		var inUse int
		if err := tx.QueryRowContext(ctx, queryCountStationInUse, stationId, stationId).Scan(&inUse); err != nil {
			return store.Storage("count station references", err)
		}
		if inUse > 0 {
			zap.L().Warn("Station retirement rejected",
				zap.Int64("station_id", stationId),
				zap.Int("references", inUse))
			return store.ErrStationInUse
		}

		if err := execGuarded(ctx, tx, queryRetireStation, store.ErrStationNotFound, stationId); err != nil {
			return err
		}

		zap.L().Info("Station retired", zap.Int64("station_id", stationId))
		return nil
	})
}

func (s *Service) CountDockedBikes(ctx context.Context) (map[int64]int, error) {
	rows, err := s.db.QueryContext(ctx, queryCountDockedBikes)
	if err != nil {
		zap.L().Error("Failed to count docked bikes", zap.Error(err))
		return nil, store.Storage("count docked bikes", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	counts := make(map[int64]int)
	for rows.Next() {
		var stationId int64
		var count int
		if err := rows.Scan(&stationId, &count); err != nil {
			return nil, store.Storage("scan docked count", err)
		}
		counts[stationId] = count
	}

	if err := rows.Err(); err != nil {
		return nil, store.Storage("iterate docked counts", err)
	}
	return counts, nil
}
