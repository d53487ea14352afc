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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bike-rental-go/internal/models"
	"bike-rental-go/internal/store"

	"go.uber.org/zap"
)

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.Id, &user.FirstName, &user.LastName, &user.Email, &user.Phone,
		&user.CreditCard, &user.SmartCard, &user.PasswordHash,
		&user.Street, &user.City, &user.Province, &user.Region, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) CreateUser(ctx context.Context, params store.CreateUserParams) (*models.User, error) {
	zap.L().Info("Creating user", zap.String("email", params.Email))

	user, err := scanUser(s.db.QueryRowContext(ctx, queryInsertUser,
		params.FirstName, params.LastName, params.Email, params.Phone, params.CreditCard,
		params.SmartCard, params.PasswordHash,
		params.Street, params.City, params.Province, params.Region, nowUTC()))
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "users.smart_card") {
				return nil, store.ErrSmartCardTaken
			}
			return nil, fmt.Errorf("%w: %s", store.ErrEmailTaken, params.Email)
		}
		zap.L().Error("Failed to insert user", zap.String("email", params.Email), zap.Error(err))
		return nil, store.Storage("insert user", err)
	}

	zap.L().Info("User created successfully", zap.Int64("id", user.Id), zap.String("email", user.Email))
	return user, nil
}

func (s *Service) GetUserById(ctx context.Context, userId int64) (*models.User, error) {
	zap.L().Debug("Querying user by ID", zap.Int64("user_id", userId))

	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserById, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", store.ErrUserNotFound, userId)
		}
		zap.L().Error("Failed to query user by ID", zap.Int64("user_id", userId), zap.Error(err))
		return nil, store.Storage("query user by id", err)
	}
	return user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	zap.L().Debug("Querying user by email", zap.String("email", email))

	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserByEmail, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, email)
		}
		zap.L().Error("Failed to query user by email", zap.String("email", email), zap.Error(err))
		return nil, store.Storage("query user by email", err)
	}
	return user, nil
}

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	zap.L().Debug("Querying users")

	rows, err := s.db.QueryContext(ctx, queryGetUsers)
	if err != nil {
		zap.L().Error("Failed to query users", zap.Error(err))
		return nil, store.Storage("query users", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, store.Storage("scan user row", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during user row iteration", zap.Error(err))
		return nil, store.Storage("iterate user rows", err)
	}

	zap.L().Debug("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}

// UpdateUserProfile applies the non-nil fields of update. Email, smart card and
// password are not reachable through this path.
func (s *Service) UpdateUserProfile(ctx context.Context, userId int64, update models.ProfileUpdate) (*models.User, error) {
	fields := []struct {
		column string
		value  *string
	}{
		{"first_name", update.FirstName},
		{"last_name", update.LastName},
		{"phone", update.Phone},
		{"credit_card", update.CreditCard},
		{"street", update.Street},
		{"city", update.City},
		{"province", update.Province},
		{"region", update.Region},
	}

	var sets []string
	var args []any
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		sets = append(sets, f.column+" = ?")
		args = append(args, *f.value)
	}

	if len(sets) == 0 {
		return s.GetUserById(ctx, userId)
	}

	args = append(args, userId)
	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		zap.L().Error("Failed to update user profile", zap.Int64("user_id", userId), zap.Error(err))
		return nil, store.Storage("update user profile", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, store.Storage("update user profile: rows affected", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: %d", store.ErrUserNotFound, userId)
	}

	zap.L().Info("User profile updated", zap.Int64("user_id", userId), zap.Int("fields", len(sets)))
	return s.GetUserById(ctx, userId)
}

func (s *Service) CreateAdmin(ctx context.Context, email, passwordHash string) (*models.Admin, error) {
	zap.L().Info("Creating admin", zap.String("email", email))

	var admin models.Admin
	err := s.db.QueryRowContext(ctx, queryInsertAdmin, email, passwordHash, nowUTC()).
		Scan(&admin.Id, &admin.Email, &admin.PasswordHash, &admin.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrEmailTaken, email)
		}
		return nil, store.Storage("insert admin", err)
	}
	return &admin, nil
}

func (s *Service) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	err := s.db.QueryRowContext(ctx, queryGetAdminByEmail, email).
		Scan(&admin.Id, &admin.Email, &admin.PasswordHash, &admin.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrAdminNotFound, email)
		}
		return nil, store.Storage("query admin by email", err)
	}
	return &admin, nil
}
