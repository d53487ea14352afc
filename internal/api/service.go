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

package api

import (
	"context"
	"fmt"

	"bike-rental-go/internal/auth"
	"bike-rental-go/internal/ledger"
	"bike-rental-go/internal/query"
	"bike-rental-go/internal/rental"
	"bike-rental-go/internal/store"
)

// Service is the application layer shared by the HTTP server and the CLIs
type Service struct {
	store  store.LedgerStore
	ledger *ledger.Ledger
	engine *rental.Engine
	query  *query.Facade
	tokens *auth.TokenIssuer
}

func NewService(st store.LedgerStore, l *ledger.Ledger, engine *rental.Engine, q *query.Facade, tokens *auth.TokenIssuer) *Service {
	return &Service{
		store:  st,
		ledger: l,
		engine: engine,
		query:  q,
		tokens: tokens,
	}
}

func (s *Service) Tokens() *auth.TokenIssuer {
	return s.tokens
}

func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
