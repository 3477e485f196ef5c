package server

import (
	"context"
	"log/slog"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// SeedAdmin creates the initial admin account from ADMIN_USERNAME and
// ADMIN_PASSWORD. Idempotent: does nothing once any admin exists, so a
// later password change in the environment never clobbers the database.
func SeedAdmin(ctx context.Context, logger *slog.Logger, store Store) error {
	count, err := store.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		logger.Warn("no admin account seeded; set ADMIN_USERNAME and ADMIN_PASSWORD")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := store.CreateAdmin(ctx, username, string(hash)); err != nil {
		return err
	}

	logger.Info("initial admin account created", "username", username)
	return nil
}
