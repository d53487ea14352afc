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
	"errors"
	"flag"
	"fmt"
	"strings"

	"bike-rental-go/internal/common"
	"bike-rental-go/internal/config"
	"bike-rental-go/internal/models"
	"bike-rental-go/internal/store"

	"go.uber.org/zap"
)

type rentalRequest struct {
	kind      models.OperationKind
	email     string
	bikeId    int64
	stationId int64
	distance  int64
}

func parseAndValidateFlags() (*rentalRequest, error) {
	kindFlag := flag.String("kind", "", "checkout or return (required)")
	emailFlag := flag.String("email", "", "Rider email (required)")
	bikeFlag := flag.Int64("bike", 0, "Bike id (required)")
	stationFlag := flag.Int64("station", 0, "Station id (required)")
	distanceFlag := flag.Int64("distance", 0, "Distance ridden, for returns")
	flag.Parse()

	if *kindFlag == "" || *emailFlag == "" || *bikeFlag == 0 || *stationFlag == 0 {
		return nil, fmt.Errorf("required flags: --kind, --email, --bike, --station")
	}

	kind := models.OperationKind(strings.ToLower(*kindFlag))
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid kind %q: must be checkout or return", *kindFlag)
	}
	if kind == models.OperationCheckout && *distanceFlag != 0 {
		return nil, fmt.Errorf("--distance only applies to returns")
	}

	return &rentalRequest{
		kind:      kind,
		email:     *emailFlag,
		bikeId:    *bikeFlag,
		stationId: *stationFlag,
		distance:  *distanceFlag,
	}, nil
}

func describeRejection(err error) string {
	switch {
	case errors.Is(err, store.ErrStationHasNoBike):
		return "the station has no bike to hand out"
	case errors.Is(err, store.ErrStationFull):
		return "the station has no free slot"
	case errors.Is(err, store.ErrBikeAlreadyCheckedOut):
		return "the bike is already out on a rental"
	case errors.Is(err, store.ErrBikeNotCheckedOut):
		return "the bike is not out on a rental"
	case errors.Is(err, store.ErrReturnByWrongUser):
		return "the bike was rented by someone else"
	case errors.Is(err, store.ErrBusy):
		return "the station is busy, try again"
	default:
		return err.Error()
	}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid arguments", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	riders, err := common.LookupRiders(ctx, services.DbService, req.email, zap.L())
	if err != nil {
		zap.L().Fatal("Failed to find rider", zap.Error(err))
	}
	rider := riders[0]

	op, err := services.Api.SubmitOperation(ctx, rider.Id, models.OperationRequest{
		Kind:      req.kind,
		BikeId:    req.bikeId,
		StationId: req.stationId,
		Distance:  req.distance,
	})
	if err != nil {
		fmt.Printf("✗ %s rejected: %s\n", req.kind, describeRejection(err))
		zap.L().Fatal("Rental operation failed",
			zap.String("kind", string(req.kind)),
			zap.Int64("bike_id", req.bikeId),
			zap.Int64("station_id", req.stationId),
			zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader(strings.ToUpper(string(op.Kind))+" RECORDED", common.DefaultWidth)
	fmt.Printf("Reference: %s\n", op.Reference)
	fmt.Printf("Rider:     %s (%s)\n", rider.Name, rider.Email)
	fmt.Printf("Bike:      %d\n", op.BikeId)
	fmt.Printf("Station:   %d\n", op.StationId)
	fmt.Printf("When:      %s %s\n", op.OccurredDate, op.OccurredTime)
	if op.Fare != nil {
		fmt.Printf("Distance:  %d\n", op.Distance)
		fmt.Printf("Fare:      %s\n", common.FormatAmount(*op.Fare, services.Tariff.Currency()))
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
}
