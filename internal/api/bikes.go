package api

import (
	"context"
	"strings"

	"bike-rental-go/internal/auth"
	"bike-rental-go/internal/models"
	"bike-rental-go/internal/store"

	"go.uber.org/zap"
)

// CreateBike registers a bike, generating missing codes, and docks it when a
// station is given.
func (s *Service) CreateBike(ctx context.Context, req models.CreateBikeRequest) (*models.Bike, error) {
	var err error
	params := store.CreateBikeParams{
		TagCode:   strings.TrimSpace(req.TagCode),
		GpsDevice: strings.TrimSpace(req.GpsDevice),
	}
	if params.TagCode == "" {
		if params.TagCode, err = auth.RandomCode(auth.DeviceCodeLength); err != nil {
			return nil, err
		}
	}
	if params.GpsDevice == "" {
		if params.GpsDevice, err = auth.RandomCode(auth.DeviceCodeLength); err != nil {
			return nil, err
		}
	}

	if req.StationId != nil {
		if _, err := s.store.GetStation(ctx, *req.StationId); err != nil {
			return nil, err
		}
	}

	bike, err := s.store.CreateBike(ctx, params)
	if err != nil {
		return nil, err
	}

	if req.StationId != nil {
		if err := s.ledger.DockBike(ctx, bike.Id, *req.StationId); err != nil {
			zap.L().Warn("Bike created but not docked",
				zap.Int64("bike_id", bike.Id),
				zap.Int64("station_id", *req.StationId),
				zap.Error(err))
			return bike, err
		}
		return s.store.GetBike(ctx, bike.Id)
	}
	return bike, nil
}

// ListBikes returns active bikes, highest cumulative distance first.
func (s *Service) ListBikes(ctx context.Context) ([]models.Bike, error) {
	return s.store.GetBikes(ctx)
}

func (s *Service) BikeStatus(ctx context.Context, bikeId int64) (*models.BikeStatus, error) {
	return s.engine.BikeStatus(ctx, bikeId)
}

func (s *Service) DockBike(ctx context.Context, bikeId, stationId int64) error {
	return s.ledger.DockBike(ctx, bikeId, stationId)
}

// DeleteBike retires a docked bike.
func (s *Service) DeleteBike(ctx context.Context, bikeId int64) error {
	return s.ledger.RetireBike(ctx, bikeId)
}

func (s *Service) UpdateBikePosition(ctx context.Context, bikeId int64, update models.PositionUpdate) error {
	return s.ledger.UpdateBikePosition(ctx, bikeId, update.Latitude, update.Longitude)
}
