// Package seed creates the default accounts a fresh deployment needs.
package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appModels "github.com/ekene/classpulse/internal/app/models"
	appRepos "github.com/ekene/classpulse/internal/app/repositories"
	"github.com/ekene/classpulse/internal/config"
	"github.com/ekene/classpulse/internal/pkg/auth"
)

// CreateDefaultData creates the admin account plus demo users when they
// don't exist yet. Demo users are skipped outside development mode.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, cfg *config.Config, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default accounts...")
	var finalErr error

	adminPassword := config.GetEnv("ADMIN_PASSWORD", "admin12345")
	if err := createUser(ctx, userRepo, &appModels.User{
		Email:  "admin@classpulse.local",
		Name:   "System Admin",
		Role:   appModels.RoleAdmin,
		Centre: "Main Campus",
	}, adminPassword, lgr); err != nil {
		finalErr = errors.Join(finalErr, err)
	}

	if cfg.Server.Mode != "development" {
		return finalErr
	}

	demo := []struct {
		user     *appModels.User
		password string
	}{
		{&appModels.User{Email: "obi@classpulse.local", Name: "Dr. Obi", Role: appModels.RoleLecturer, Centre: "Main Campus"}, "lecturer123"},
		{&appModels.User{Email: "chidi@classpulse.local", Name: "Chidi Okafor", Role: appModels.RoleStudent, Centre: "Main Campus", Location: "Lagos"}, "student123"},
		{&appModels.User{Email: "amina@classpulse.local", Name: "Amina Bello", Role: appModels.RoleStudent, Centre: "North Campus", Location: "Abuja"}, "student123"},
	}
	for _, d := range demo {
		if err := createUser(ctx, userRepo, d.user, d.password, lgr); err != nil {
			finalErr = errors.Join(finalErr, err)
		}
	}

	return finalErr
}

func createUser(ctx context.Context, repo *appRepos.UserRepository, user *appModels.User, password string, lgr zerolog.Logger) error {
	existing, err := repo.FindByEmail(ctx, user.Email)
	if err != nil {
		lgr.Error().Err(err).Str("email", user.Email).Msg("Error checking for existing user")
		return err
	}
	if existing != nil {
		return nil
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		lgr.Error().Err(err).Str("email", user.Email).Msg("Error hashing password")
		return err
	}
	user.Password = hashed
	user.IsActive = true

	if err := repo.Create(ctx, user); err != nil {
		lgr.Error().Err(err).Str("email", user.Email).Msg("Error creating default user")
		return err
	}

	lgr.Info().Str("email", user.Email).Str("role", string(user.Role)).Msg("Default user created")
	return nil
}
