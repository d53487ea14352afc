package main

import (
	"context"
	"flag"
	"fmt"

	"bike-rental-go/internal/common"
	"bike-rental-go/internal/config"

	"go.uber.org/zap"
)

func runSeed(ctx context.Context, services *common.Services, fleetFile string) {
	zap.L().Info("Loading fleet configuration", zap.String("file", fleetFile))
	fleet, err := common.LoadFleetConfig(fleetFile)
	if err != nil {
		zap.L().Fatal("Failed to load fleet config", zap.Error(err))
	}
	zap.L().Info("Fleet configuration loaded", zap.Int("stations", len(fleet.Stations)))

	existing, err := services.Api.ListStations(ctx)
	if err != nil {
		zap.L().Fatal("Failed to read stations from database", zap.Error(err))
	}
	if len(existing) > 0 {
		zap.L().Warn("Database already has stations, skipping fleet seed",
			zap.Int("stations", len(existing)))
		return
	}

	result, err := common.SeedFleet(ctx, services.Api, fleet)
	if err != nil {
		zap.L().Error("Fleet seed stopped early",
			zap.Int("stations_created", len(result.Stations)),
			zap.Int("bikes_created", result.Bikes),
			zap.Error(err))
		return
	}

	common.PrintHeader("FLEET SEEDED", common.DefaultWidth)
	for i, station := range result.Stations {
		fmt.Printf("%s %s\n", common.BoxPrefix(i == len(result.Stations)-1), common.FormatStation(station))
	}
	common.PrintFooter(fmt.Sprintf("%d stations, %d bikes", len(result.Stations), result.Bikes), common.DefaultWidth)

	zap.L().Info("Fleet seed complete",
		zap.Int("stations", len(result.Stations)),
		zap.Int("bikes", result.Bikes))
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	fleetFlag := flag.String("fleet", "fleet.yaml", "Path to the fleet seed file")
	schemaOnly := flag.Bool("init", false, "Only create the schema and bootstrap admin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	// Opening the services creates the schema and the configured admin
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if *schemaOnly {
		zap.L().Info("Schema ready", zap.String("database", cfg.Database.Path))
		return
	}

	runSeed(ctx, services, *fleetFlag)
}
