package api

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"bike-rental-go/internal/auth"
	"bike-rental-go/internal/models"
	"bike-rental-go/internal/store"

	"go.uber.org/zap"
)

const smartCardAttempts = 5

// Register creates a rider account with a freshly issued smart card.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	params := store.CreateUserParams{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		CreditCard:   req.CreditCard,
		PasswordHash: hash,
		Street:       req.Street,
		City:         req.City,
		Province:     req.Province,
		Region:       req.Region,
	}

	for attempt := 1; attempt <= smartCardAttempts; attempt++ {
		params.SmartCard, err = auth.RandomCode(auth.SmartCardLength)
		if err != nil {
			return nil, err
		}

		user, err := s.store.CreateUser(ctx, params)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, store.ErrSmartCardTaken) {
			return nil, err
		}
		zap.L().Warn("Smart card collision, regenerating", zap.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("%w after %d attempts", store.ErrSmartCardTaken, smartCardAttempts)
}

func validateRegistration(req models.RegisterRequest) error {
	required := []struct {
		name  string
		value string
	}{
		{"first_name", req.FirstName},
		{"last_name", req.LastName},
		{"email", req.Email},
		{"password", req.Password},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return store.Validationf("%s is required", field.name)
		}
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return store.Validationf("email %q is not valid", req.Email)
	}
	if len(req.Password) < 8 {
		return store.Validationf("password must be at least 8 characters")
	}
	return nil
}

// Login authenticates an admin or a rider. Admin accounts are checked first.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return nil, store.Validationf("email and password are required")
	}

	admin, err := s.store.GetAdminByEmail(ctx, email)
	switch {
	case err == nil:
		if err := auth.CheckPassword(admin.PasswordHash, req.Password); err != nil {
			zap.L().Warn("Admin login failed", zap.String("email", email))
			return nil, err
		}
		token, err := s.tokens.Issue(admin.Id, auth.RoleAdmin)
		if err != nil {
			return nil, err
		}
		zap.L().Info("Admin logged in", zap.Int64("admin_id", admin.Id))
		return &models.LoginResult{Role: auth.RoleAdmin, Token: token, Admin: admin}, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		zap.L().Warn("User login failed", zap.String("email", email))
		return nil, err
	}

	token, err := s.tokens.Issue(user.Id, auth.RoleUser)
	if err != nil {
		return nil, err
	}
	zap.L().Info("User logged in", zap.Int64("user_id", user.Id))
	return &models.LoginResult{Role: auth.RoleUser, Token: token, User: user}, nil
}

// EnsureAdmin creates the admin account unless one with the same email exists.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (*models.Admin, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, store.Validationf("admin email and password are required")
	}

	admin, err := s.store.GetAdminByEmail(ctx, email)
	if err == nil {
		return admin, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	admin, err = s.store.CreateAdmin(ctx, email, hash)
	if err != nil {
		return nil, err
	}
	zap.L().Info("Admin account created", zap.Int64("admin_id", admin.Id), zap.String("email", email))
	return admin, nil
}
