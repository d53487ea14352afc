package api

import (
	"context"

	"bike-rental-go/internal/models"
)

func (s *Service) GetProfile(ctx context.Context, userId int64) (*models.User, error) {
	return s.store.GetUserById(ctx, userId)
}

// UpdateProfile changes whitelisted profile fields only.
func (s *Service) UpdateProfile(ctx context.Context, userId int64, update models.ProfileUpdate) (*models.User, error) {
	return s.store.UpdateUserProfile(ctx, userId, update)
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.GetUsers(ctx)
}

func (s *Service) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}
