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
	"os"
	"os/signal"
	"syscall"

	"bike-rental-go/internal/audit"
	"bike-rental-go/internal/common"
	"bike-rental-go/internal/config"
	"bike-rental-go/internal/server"

	"go.uber.org/zap"
)

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	addrFlag := flag.String("addr", "", "Listen address (overrides SERVER_ADDR)")
	originsFlag := flag.String("origins", "*", "Comma-separated CORS origins")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting bike rental server",
		zap.String("database", cfg.Database.Path),
		zap.String("cache", cfg.Cache.Backend),
		zap.Bool("third_party_returns", cfg.Ledger.AllowThirdPartyReturns))

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if cfg.Audit.Interval > 0 {
		auditor := audit.NewOccupancyAuditor(audit.Config{
			Store:    services.DbService,
			Recorder: services.Metrics,
			Interval: cfg.Audit.Interval,
		})
		auditor.Start(ctx)
		defer auditor.Stop()
	} else {
		zap.L().Info("Occupancy audit disabled")
	}

	app := server.NewApp(services.Api, services.Metrics, server.Options{AllowOrigins: *originsFlag})
	srv := server.New(app, cfg.Server)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		zap.L().Info("Shutdown signal received, draining requests...")
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		zap.L().Error("Server stopped with error", zap.Error(err))
		return
	}
	zap.L().Info("Server stopped gracefully")
}
