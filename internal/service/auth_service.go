package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"accountsvc/internal/auth"
	apperrors "accountsvc/internal/errors"
	"accountsvc/internal/model"
	"accountsvc/internal/repository"
)

// AuthService handles registration and login.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*model.PublicUser, error)
	Login(ctx context.Context, email, password string) (token string, expiresAt time.Time, user *model.PublicUser, err error)
}

type authService struct {
	userRepo   repository.UserRepository
	hasher     *auth.PasswordHasher
	jwtService *auth.JWTService
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, hasher *auth.PasswordHasher, jwtService *auth.JWTService) AuthService {
	return &authService{
		userRepo:   userRepo,
		hasher:     hasher,
		jwtService: jwtService,
	}
}

// Register creates a new user with the default role.
func (s *authService) Register(ctx context.Context, name, email, password string) (*model.PublicUser, error) {
	user, err := createUser(ctx, s.userRepo, s.hasher, name, email, password, model.RoleUser)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// Login verifies credentials and issues a session token. An unknown email
// and a wrong password fail identically.
func (s *authService) Login(ctx context.Context, email, password string) (token string, expiresAt time.Time, user *model.PublicUser, err error) {
	stored, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.hasher.Burn(password)
			return "", time.Time{}, nil, apperrors.ErrInvalidCredentials
		}
		return "", time.Time{}, nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(password, stored.PasswordHash) {
		return "", time.Time{}, nil, apperrors.ErrInvalidCredentials
	}

	token, expiresAt, err = s.jwtService.IssueToken(stored.ID)
	if err != nil {
		return "", time.Time{}, nil, fmt.Errorf("issue token: %w", err)
	}

	return token, expiresAt, stored.Public(), nil
}

// createUser checks for an existing email, hashes the password and inserts
// the record. The unique index catches a concurrent insert that slips past
// the lookup.
func createUser(ctx context.Context, repo repository.UserRepository, hasher *auth.PasswordHasher, name, email, password string, role model.Role) (*model.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, apperrors.Validation("name, email and password are required")
	}
	// The validator counts runes; bcrypt counts bytes.
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperrors.Validation("password must be at most 72 bytes")
	}
	if !role.Valid() {
		return nil, apperrors.Validation("role must be user or admin")
	}

	existing, err := repo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrDuplicateEmail
	}
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := repo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}
