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
	"bike-rental-go/internal/models"
	"bike-rental-go/internal/tariff"

	"go.uber.org/zap"
)

type reportStats struct {
	totalRiders      int
	ridersWithTrips  int
	totalOperations  int
	totalFaresCharge int64
}

func printRiderHeader(rider common.RiderInfo, opCount int) {
	fmt.Printf("\n┌─ Rider: %s (%s)\n", rider.Name, rider.Email)
	fmt.Printf("│  ID: %d  Smart card: %s\n", rider.Id, rider.SmartCard)
	fmt.Printf("│  Operations: %d\n", opCount)
}

func printOperation(op models.Operation, currency string, isLast bool) {
	line := fmt.Sprintf("%s %s %s %-8s bike #%-5d station #%-5d",
		common.BoxPrefix(isLast), op.OccurredDate, op.OccurredTime, op.Kind, op.BikeId, op.StationId)
	if op.Fare != nil {
		line += fmt.Sprintf(" %5d km  %s", op.Distance, common.FormatAmount(*op.Fare, currency))
	}
	fmt.Println(line)
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by rider email (optional)")
	flag.Parse()

	logger.Info("Starting rental history report")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	fares, err := tariff.LoadOrDefault(cfg.Ledger.TariffFile)
	if err != nil {
		logger.Fatal("Failed to load tariff", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	riders, err := common.LookupRiders(ctx, dbService, *emailFlag, logger)
	if err != nil {
		logger.Fatal("Failed to look up riders", zap.Error(err))
	}

	common.PrintHeader("RENTAL HISTORY REPORT", common.DefaultWidth)

	stats := reportStats{}
	for _, rider := range riders {
		stats.totalRiders++

		ops, err := dbService.GetUserOperations(ctx, rider.Id)
		if err != nil {
			logger.Error("Failed to get operations",
				zap.Int64("user_id", rider.Id),
				zap.Error(err))
			continue
		}
		if len(ops) == 0 {
			continue
		}

		stats.ridersWithTrips++
		printRiderHeader(rider, len(ops))
		for i, op := range ops {
			printOperation(op, fares.Currency(), i == len(ops)-1)
			stats.totalOperations++
			if op.Fare != nil {
				stats.totalFaresCharge += *op.Fare
			}
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d operations for %d of %d riders, %s charged",
		stats.totalOperations, stats.ridersWithTrips, stats.totalRiders,
		common.FormatAmount(stats.totalFaresCharge, fares.Currency()))
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("History report completed",
		zap.Int("riders", stats.totalRiders),
		zap.Int("operations", stats.totalOperations),
		zap.Int64("fares", stats.totalFaresCharge))
}
