package api

import (
	"context"
	"strings"

	"bike-rental-go/internal/models"
	"bike-rental-go/internal/store"
)

func (s *Service) CreateStation(ctx context.Context, req models.CreateStationRequest) (*models.Station, error) {
	if req.NumSlots == nil || req.NumBikes == nil {
		return nil, store.Validationf("num_slots and num_bikes are required")
	}
	required := []struct {
		name  string
		value string
	}{
		{"street", req.Street},
		{"city", req.City},
		{"province", req.Province},
		{"region", req.Region},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return nil, store.Validationf("%s is required", field.name)
		}
	}

	return s.store.CreateStation(ctx, store.CreateStationParams{
		NumSlots:  *req.NumSlots,
		NumBikes:  *req.NumBikes,
		Street:    req.Street,
		City:      req.City,
		Province:  req.Province,
		Region:    req.Region,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
}

func (s *Service) ListStations(ctx context.Context) ([]models.Station, error) {
	return s.store.GetStations(ctx)
}

func (s *Service) GetStation(ctx context.Context, stationId int64) (*models.Station, error) {
	return s.store.GetStation(ctx, stationId)
}

// DeleteStation retires a station with no docked bikes and no open rentals.
func (s *Service) DeleteStation(ctx context.Context, stationId int64) error {
	return s.ledger.RetireStation(ctx, stationId)
}
