package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"accountsvc/internal/auth"
	"accountsvc/internal/config"
	"accountsvc/internal/db"
	"accountsvc/internal/repository"
	"accountsvc/internal/service"
)

// Seeds the bootstrap admin account from ADMIN_NAME, ADMIN_EMAIL and
// ADMIN_PASSWORD without starting the server.
func main() {
	log.Println("Starting seed script...")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD must be set to seed the admin account")
	}

	gormDB, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close(gormDB)
	log.Println("Connected to database")

	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Println("Database migrations completed")

	userService := service.NewUserService(
		repository.NewUserRepository(gormDB),
		auth.NewPasswordHasher(cfg.BcryptCost),
		nil,
	)

	created, err := userService.EnsureAdmin(context.Background(), cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	if created {
		log.Printf("Admin %s created", cfg.AdminEmail)
	} else {
		log.Printf("Admin %s already exists, nothing to do", cfg.AdminEmail)
	}
	return nil
}
