package router

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"accountsvc/internal/config"
	"accountsvc/internal/handler"
	"accountsvc/internal/middleware"
)

// HealthResponse is the body of the health probe.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	tokens middleware.TokenValidator,
	users middleware.UserFinder,
) {
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	e.Validator = handler.NewValidator()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{Status: "OK", Message: "Server is running"})
	})

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// Secured routes
	secured := api.Group("/users", middleware.Authenticate(tokens, users))

	// Listing and creating are open to any signed-in user unless strict mode
	// is on.
	var adminOnly []echo.MiddlewareFunc
	if cfg.StrictAdminRoutes {
		adminOnly = append(adminOnly, middleware.RequireAdmin())
	}

	secured.GET("/me", userHandler.Me)
	secured.GET("", userHandler.ListUsers, adminOnly...)
	secured.POST("", userHandler.CreateUser, adminOnly...)
	secured.GET("/:id", userHandler.GetUser)
	secured.PUT("/:id", userHandler.UpdateUser)
	secured.DELETE("/:id", userHandler.DeleteUser)
}
