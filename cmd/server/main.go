package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"accountsvc/docs" // swagger docs

	"accountsvc/internal/auth"
	"accountsvc/internal/cache"
	"accountsvc/internal/config"
	"accountsvc/internal/db"
	"accountsvc/internal/handler"
	"accountsvc/internal/repository"
	"accountsvc/internal/router"
	"accountsvc/internal/service"
)

// @title User Account API
// @version 1.0
// @description User registration, login and role-gated account management with JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run wires the service and blocks until it stops. Deferred cleanup runs
// before main exits on error.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	gormDB, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	defer func() {
		if err := db.Close(gormDB); err != nil {
			log.Printf("database close: %v", err)
		}
	}()

	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if cacheClient != nil {
		defer cacheClient.Close()
		if err := cacheClient.Ping(context.Background()); err != nil {
			log.Printf("Warning: redis unreachable, serving without cache: %v", err)
		}
	}

	userRepo := repository.NewUserRepository(gormDB)

	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	jwtService := auth.NewJWTService(cfg.JWTSecret)

	authService := service.NewAuthService(userRepo, hasher, jwtService)
	userService := service.NewUserService(userRepo, hasher, cacheClient)

	if cfg.AdminPassword != "" {
		created, err := userService.EnsureAdmin(context.Background(), cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if created {
			log.Printf("Bootstrap admin %s created", cfg.AdminEmail)
		}
	}

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)

	e := echo.New()
	e.HideBanner = true

	router.Register(e, cfg, authHandler, userHandler, jwtService, userRepo)

	swaggerHost := "localhost:" + cfg.ServerPort
	if cfg.SwaggerHost != "" {
		swaggerHost = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "http://"), "https://")
	}
	docs.SwaggerInfo.Host = swaggerHost
	log.Printf("Swagger documentation available at: http://%s/swagger/index.html", swaggerHost)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	return serve(e, ":"+cfg.ServerPort, sigChan)
}

// serve runs e until it fails to start or stop receives a signal, then shuts
// it down.
func serve(e *echo.Echo, addr string, stop <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server start: %w", err)
		}
		return nil
	case sig := <-stop:
		log.Printf("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
