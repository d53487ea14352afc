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

	"bike-rental-go/internal/common"
	"bike-rental-go/internal/config"
	"bike-rental-go/internal/models"
	"bike-rental-go/internal/store"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	firstFlag := flag.String("first", "", "Rider's first name (required)")
	lastFlag := flag.String("last", "", "Rider's last name (required)")
	emailFlag := flag.String("email", "", "Rider's email address (required)")
	passwordFlag := flag.String("password", "", "Rider's password, at least 8 characters (required)")
	phoneFlag := flag.String("phone", "", "Phone number")
	cityFlag := flag.String("city", "", "City")
	provinceFlag := flag.String("province", "", "Province")
	regionFlag := flag.String("region", "", "Region")
	flag.Parse()

	if *firstFlag == "" || *lastFlag == "" || *emailFlag == "" || *passwordFlag == "" {
		zap.L().Fatal("Required flags: --first, --last, --email, --password")
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

	zap.L().Info("Registering rider", zap.String("email", *emailFlag))

	user, err := services.Api.Register(ctx, models.RegisterRequest{
		FirstName: *firstFlag,
		LastName:  *lastFlag,
		Email:     *emailFlag,
		Password:  *passwordFlag,
		Phone:     *phoneFlag,
		City:      *cityFlag,
		Province:  *provinceFlag,
		Region:    *regionFlag,
	})
	switch {
	case errors.Is(err, store.ErrEmailTaken):
		zap.L().Fatal("Rider already exists with this email", zap.String("email", *emailFlag))
	case errors.Is(err, store.ErrValidation):
		zap.L().Fatal("Invalid rider details", zap.Error(err))
	case err != nil:
		zap.L().Fatal("Failed to register rider", zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader("RIDER REGISTERED", common.DefaultWidth)
	fmt.Printf("ID:         %d\n", user.Id)
	fmt.Printf("Name:       %s %s\n", user.FirstName, user.LastName)
	fmt.Printf("Email:      %s\n", user.Email)
	fmt.Printf("Smart card: %s\n", user.SmartCard)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("Rider registered", zap.Int64("id", user.Id), zap.String("smart_card", user.SmartCard))
}
