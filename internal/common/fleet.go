package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"bike-rental-go/internal/api"
	"bike-rental-go/internal/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type StationSeed struct {
	Street    string  `yaml:"street"`
	City      string  `yaml:"city"`
	Province  string  `yaml:"province"`
	Region    string  `yaml:"region"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	NumSlots  int     `yaml:"num_slots"`
	Bikes     int     `yaml:"bikes"`
}

type FleetConfig struct {
	Stations []StationSeed `yaml:"stations"`
}

// SeedResult summarizes what SeedFleet created
type SeedResult struct {
	Stations []models.Station
	Bikes    int
}

func LoadFleetConfig(fleetFile string) (*FleetConfig, error) {
	var fleetPath string
	if filepath.IsAbs(fleetFile) {
		fleetPath = fleetFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		fleetPath = filepath.Join(wd, fleetFile)
	}

	data, err := os.ReadFile(fleetPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", fleetFile, err)
	}

	var config FleetConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", fleetFile, err)
	}

	if len(config.Stations) == 0 {
		return nil, fmt.Errorf("%s defines no stations", fleetFile)
	}
	for i, station := range config.Stations {
		if station.Street == "" || station.City == "" {
			return nil, fmt.Errorf("station at index %d missing street or city", i)
		}
		if station.NumSlots <= 0 {
			return nil, fmt.Errorf("station at index %d must have positive num_slots", i)
		}
		if station.Bikes < 0 || station.Bikes > station.NumSlots {
			return nil, fmt.Errorf("station at index %d: bikes must be between 0 and num_slots", i)
		}
	}

	return &config, nil
}

// SeedFleet opens every configured station empty and docks freshly created
// bikes there, so occupancy always matches the bikes placed.
func SeedFleet(ctx context.Context, svc *api.Service, fleet *FleetConfig) (*SeedResult, error) {
	result := &SeedResult{}
	empty := 0

	for i, seed := range fleet.Stations {
		numSlots := seed.NumSlots
		station, err := svc.CreateStation(ctx, models.CreateStationRequest{
			NumSlots:  &numSlots,
			NumBikes:  &empty,
			Street:    seed.Street,
			City:      seed.City,
			Province:  seed.Province,
			Region:    seed.Region,
			Latitude:  seed.Latitude,
			Longitude: seed.Longitude,
		})
		if err != nil {
			return result, fmt.Errorf("station at index %d: %w", i, err)
		}

		stationId := station.Id
		for b := 0; b < seed.Bikes; b++ {
			if _, err := svc.CreateBike(ctx, models.CreateBikeRequest{StationId: &stationId}); err != nil {
				return result, fmt.Errorf("bike %d at station %d: %w", b+1, stationId, err)
			}
			result.Bikes++
		}

		station, err = svc.GetStation(ctx, stationId)
		if err != nil {
			return result, err
		}
		result.Stations = append(result.Stations, *station)

		zap.L().Info("Seeded station",
			zap.Int64("station_id", station.Id),
			zap.String("city", station.City),
			zap.Int("bikes", station.NumBikes),
			zap.Int("slots", station.NumSlots))
	}

	return result, nil
}
