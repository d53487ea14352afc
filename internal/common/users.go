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

package common

import (
	"context"
	"fmt"
	"strings"

	"bike-rental-go/internal/store"

	"go.uber.org/zap"
)

// RiderInfo is the rider summary printed by the command-line utilities
type RiderInfo struct {
	Id        int64
	Name      string
	Email     string
	SmartCard string
}

// LookupRiders returns the rider with the given email, or every rider when
// emailFilter is empty.
func LookupRiders(ctx context.Context, st store.LedgerStore, emailFilter string, logger *zap.Logger) ([]RiderInfo, error) {
	var riders []RiderInfo

	if emailFilter != "" {
		email := strings.ToLower(strings.TrimSpace(emailFilter))
		logger.Info("Looking up rider by email", zap.String("email", email))
		user, err := st.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("rider %s: %w", email, err)
		}
		riders = append(riders, RiderInfo{
			Id:        user.Id,
			Name:      user.FirstName + " " + user.LastName,
			Email:     user.Email,
			SmartCard: user.SmartCard,
		})
	} else {
		users, err := st.GetUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get riders: %w", err)
		}
		for _, u := range users {
			riders = append(riders, RiderInfo{
				Id:        u.Id,
				Name:      u.FirstName + " " + u.LastName,
				Email:     u.Email,
				SmartCard: u.SmartCard,
			})
		}
	}

	logger.Info("Retrieved riders", zap.Int("count", len(riders)))
	return riders, nil
}
