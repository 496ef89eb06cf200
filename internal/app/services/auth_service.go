package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ekene/classpulse/internal/app/models/dto"
	"github.com/ekene/classpulse/internal/app/repositories"
	"github.com/ekene/classpulse/internal/pkg/apperrors"
	"github.com/ekene/classpulse/internal/pkg/auth"
)

type authService struct {
	users  repositories.UserDirectory
	jwt    *auth.JWTService
	logger zerolog.Logger
}

// NewAuthService creates the authentication service.
func NewAuthService(users repositories.UserDirectory, jwtService *auth.JWTService, lgr zerolog.Logger) AuthService {
	return &authService{users: users, jwt: jwtService, logger: lgr}
}

// Login verifies the credentials and issues an access token. Unknown email
// and wrong password produce the same error so the response leaks nothing.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Invalid email or password")
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Invalid email or password")
	}
	if !user.IsActive {
		return nil, apperrors.NewCustomError(apperrors.ErrAccountDisabled, "This account has been disabled")
	}

	token, expiresIn, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info().Int64("userId", user.ID).Str("role", string(user.Role)).Msg("User logged in")

	return &dto.LoginResponse{
		Success:   true,
		Token:     token,
		ExpiresIn: expiresIn,
		User:      dto.NewUserInfo(user),
	}, nil
}

// Profile returns the authenticated user's own record.
func (s *authService) Profile(ctx context.Context, userID int64) (*dto.UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrUserNotFound, "User not found")
	}
	return dto.NewUserInfo(user), nil
}
