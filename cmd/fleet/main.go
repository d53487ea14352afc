/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"

	"bike-rental-go/internal/common"
	"bike-rental-go/internal/config"
	"bike-rental-go/internal/database"
	"bike-rental-go/internal/models"

	"go.uber.org/zap"
)

type fleetStats struct {
	stations   int
	slots      int
	docked     int
	bikes      int
	checkedOut int
	unplaced   int
}

func describeStatus(status *models.BikeStatus) string {
	switch {
	case status.CheckedOut:
		return fmt.Sprintf("rented by user %d", *status.RentedBy)
	case status.CurrentStationId != nil:
		return fmt.Sprintf("docked at station %d", *status.CurrentStationId)
	default:
		return "not placed"
	}
}

func printBike(status *models.BikeStatus, isLast bool) {
	fmt.Printf("%s #%-5d %-8s %8d km  %s\n",
		common.BoxPrefix(isLast),
		status.Id,
		status.TagCode,
		status.DistanceTraveled,
		describeStatus(status))
}

func reportStations(ctx context.Context, dbService *database.Service, stats *fleetStats) error {
	stations, err := dbService.GetStations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stations: %w", err)
	}

	fmt.Printf("\n┌─ Stations: %d\n", len(stations))
	for i, station := range stations {
		fmt.Printf("%s %s\n", common.BoxPrefix(i == len(stations)-1), common.FormatStation(station))
		stats.stations++
		stats.slots += station.NumSlots
		stats.docked += station.NumBikes
	}
	return nil
}

func reportBikes(ctx context.Context, dbService *database.Service, stats *fleetStats, logger *zap.Logger) error {
	bikes, err := dbService.GetBikes(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bikes: %w", err)
	}

	fmt.Printf("\n┌─ Bikes: %d (by distance traveled)\n", len(bikes))
	for i, bike := range bikes {
		status, err := dbService.GetBikeStatus(ctx, bike.Id)
		if err != nil {
			logger.Error("Failed to derive bike status", zap.Int64("bike_id", bike.Id), zap.Error(err))
			continue
		}
		printBike(status, i == len(bikes)-1)

		stats.bikes++
		switch {
		case status.CheckedOut:
			stats.checkedOut++
		case status.CurrentStationId == nil:
			stats.unplaced++
		}
	}
	return nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	bikesFlag := flag.Bool("bikes", true, "Include the per-bike status listing")
	flag.Parse()

	logger.Info("Starting fleet report")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	common.PrintHeader("FLEET REPORT", common.DefaultWidth)

	stats := fleetStats{}
	if err := reportStations(ctx, dbService, &stats); err != nil {
		logger.Fatal("Station report failed", zap.Error(err))
	}
	if *bikesFlag {
		if err := reportBikes(ctx, dbService, &stats, logger); err != nil {
			logger.Fatal("Bike report failed", zap.Error(err))
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d stations, %d/%d slots occupied", stats.stations, stats.docked, stats.slots)
	if *bikesFlag {
		summary += fmt.Sprintf(", %d bikes (%d rented, %d not placed)", stats.bikes, stats.checkedOut, stats.unplaced)
	}
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Fleet report completed",
		zap.Int("stations", stats.stations),
		zap.Int("docked", stats.docked),
		zap.Int("bikes", stats.bikes),
		zap.Int("checked_out", stats.checkedOut))
}
