package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"accountsvc/internal/auth"
	apperrors "accountsvc/internal/errors"
	"accountsvc/internal/model"
)

type MockUserFinder struct {
	mock.Mock
}

func (m *MockUserFinder) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func newGuardedEcho(tokens TokenValidator, users UserFinder, extra ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	chain := append([]echo.MiddlewareFunc{Authenticate(tokens, users)}, extra...)
	e.GET("/protected", func(c echo.Context) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.JSON(http.StatusOK, user)
	}, chain...)
	return e
}

func doGet(e *echo.Echo, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticate(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	token, _, err := jwtService.IssueToken(1)
	require.NoError(t, err)
	orphanToken, _, err := jwtService.IssueToken(99)
	require.NoError(t, err)
	brokenToken, _, err := jwtService.IssueToken(50)
	require.NoError(t, err)
	foreignToken, _, err := auth.NewJWTService("other-secret").IssueToken(1)
	require.NoError(t, err)

	expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	finder := new(MockUserFinder)
	finder.On("FindByID", mock.Anything, uint(1)).Return(&model.User{ID: 1, Name: "Ann", Email: "ann@x.com", PasswordHash: "secret-hash", Role: model.RoleUser}, nil)
	finder.On("FindByID", mock.Anything, uint(99)).Return(nil, apperrors.ErrNotFound)
	finder.On("FindByID", mock.Anything, uint(50)).Return(nil, apperrors.ErrStoreUnavailable)

	e := newGuardedEcho(jwtService, finder)

	tests := []struct {
		name          string
		authorization string
		wantStatus    int
		wantCode      string
	}{
		{"missing header", "", http.StatusUnauthorized, "MISSING_CREDENTIALS"},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, "MISSING_CREDENTIALS"},
		{"bearer without token", "Bearer ", http.StatusUnauthorized, "MISSING_CREDENTIALS"},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"foreign signature", "Bearer " + foreignToken, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"expired token", "Bearer " + expiredToken, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"deleted user", "Bearer " + orphanToken, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"store failure", "Bearer " + brokenToken, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doGet(e, tt.authorization)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}

	t.Run("valid token resolves user without password", func(t *testing.T) {
		rec := doGet(e, "Bearer "+token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret-hash")
		assert.NotContains(t, rec.Body.String(), "password")

		var user model.PublicUser
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
		assert.Equal(t, uint(1), user.ID)
		assert.Equal(t, "ann@x.com", user.Email)
	})

	t.Run("deleted user and bad token share a body", func(t *testing.T) {
		deleted := doGet(e, "Bearer "+orphanToken)
		invalid := doGet(e, "Bearer "+foreignToken)
		assert.Equal(t, invalid.Body.String(), deleted.Body.String())
	})
}

func TestRequireAdmin(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	userToken, _, err := jwtService.IssueToken(1)
	require.NoError(t, err)
	adminToken, _, err := jwtService.IssueToken(2)
	require.NoError(t, err)

	finder := new(MockUserFinder)
	finder.On("FindByID", mock.Anything, uint(1)).Return(&model.User{ID: 1, Role: model.RoleUser}, nil)
	finder.On("FindByID", mock.Anything, uint(2)).Return(&model.User{ID: 2, Role: model.RoleAdmin}, nil)

	e := newGuardedEcho(jwtService, finder, RequireAdmin())

	rec := doGet(e, "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, rec).Code)

	rec = doGet(e, "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doGet(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin_WithoutAuthenticate(t *testing.T) {
	e := echo.New()
	e.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireAdmin())

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
