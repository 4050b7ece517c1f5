package middleware

import (
	"context"
	"errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"accountsvc/internal/auth"
	apperrors "accountsvc/internal/errors"
	"accountsvc/internal/model"
)

const (
	claimsContextKey = "claims"
	userContextKey   = "user"
)

// TokenValidator verifies session tokens.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// UserFinder resolves a token subject to a stored user.
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

// Authenticate requires "Authorization: Bearer <token>", verifies the token
// and loads the user it names. The password-free user is available to
// handlers through CurrentUser.
func Authenticate(tokens TokenValidator, users UserFinder) echo.MiddlewareFunc {
	extract := echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return tokens.ValidateToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, apperrors.ErrInvalidToken) {
				return httpError(apperrors.ErrInvalidToken)
			}
			return httpError(apperrors.ErrMissingCredentials)
		},
	})

	resolve := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(claimsContextKey).(*auth.Claims)
			if !ok {
				return httpError(apperrors.ErrInvalidToken)
			}

			user, err := users.FindByID(c.Request().Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return httpError(apperrors.ErrUserNotFound)
				}
				c.Logger().Errorf("resolve user %d: %v", claims.UserID, err)
				return httpError(err)
			}

			c.Set(userContextKey, user.Public())
			return next(c)
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return extract(resolve(next))
	}
}

// RequireAdmin rejects callers whose role is not admin. It must run after
// Authenticate.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok || !user.IsAdmin() {
				return httpError(apperrors.ErrForbidden)
			}
			return next(c)
		}
	}
}

// CurrentUser returns the user attached by Authenticate.
func CurrentUser(c echo.Context) (*model.PublicUser, bool) {
	user, ok := c.Get(userContextKey).(*model.PublicUser)
	return user, ok && user != nil
}

// SetCurrentUser attaches user to the request context.
func SetCurrentUser(c echo.Context, user *model.PublicUser) {
	c.Set(userContextKey, user)
}

func httpError(err error) *echo.HTTPError {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}
