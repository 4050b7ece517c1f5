package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"accountsvc/internal/auth"
	"accountsvc/internal/cache"
	apperrors "accountsvc/internal/errors"
	"accountsvc/internal/model"
	"accountsvc/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// CreateUserInput carries the fields accepted when creating a user.
// An empty Role means model.RoleUser.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// UpdateUserInput carries a partial update. Nil or empty fields keep the
// stored value.
type UpdateUserInput struct {
	Name  *string
	Email *string
	Role  *model.Role
}

// UserService exposes user management operations.
type UserService interface {
	List(ctx context.Context) ([]model.PublicUser, error)
	Get(ctx context.Context, id uint) (*model.PublicUser, error)
	Create(ctx context.Context, in CreateUserInput) (*model.PublicUser, error)
	Update(ctx context.Context, caller *model.PublicUser, id uint, in UpdateUserInput) (*model.PublicUser, error)
	Delete(ctx context.Context, caller *model.PublicUser, id uint) error
	EnsureAdmin(ctx context.Context, name, email, password string) (created bool, err error)
}

type userService struct {
	repo   repository.UserRepository
	hasher *auth.PasswordHasher
	cache  *cache.Client
}

// NewUserService builds a UserService. cache may be nil.
func NewUserService(repo repository.UserRepository, hasher *auth.PasswordHasher, cache *cache.Client) UserService {
	return &userService{repo: repo, hasher: hasher, cache: cache}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *userService) List(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, id uint) (*model.PublicUser, error) {
	var cached model.PublicUser
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	public := user.Public()
	s.cache.SetJSON(ctx, s.cacheKey(id), public, userCacheTTL)
	return public, nil
}

func (s *userService) Create(ctx context.Context, in CreateUserInput) (*model.PublicUser, error) {
	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	user, err := createUser(ctx, s.repo, s.hasher, in.Name, in.Email, in.Password, role)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// Update applies a partial update. Only admins may touch other accounts or
// change roles; a role sent by anyone else is dropped without error.
func (s *userService) Update(ctx context.Context, caller *model.PublicUser, id uint, in UpdateUserInput) (*model.PublicUser, error) {
	if !canManage(caller, id) {
		return nil, apperrors.ErrForbidden
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if in.Name != nil && *in.Name != "" {
		user.Name = *in.Name
	}
	if in.Email != nil && *in.Email != "" {
		user.Email = *in.Email
	}
	if in.Role != nil && *in.Role != "" && caller.IsAdmin() {
		if !in.Role.Valid() {
			return nil, apperrors.Validation("role must be user or admin")
		}
		user.Role = *in.Role
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))

	return user.Public(), nil
}

// Delete removes a user under the same rules as Update.
func (s *userService) Delete(ctx context.Context, caller *model.PublicUser, id uint) error {
	if !canManage(caller, id) {
		return apperrors.ErrForbidden
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))

	return nil
}

// EnsureAdmin seeds the bootstrap admin if no user holds its email.
func (s *userService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return false, fmt.Errorf("check admin: %w", err)
	}

	if _, err := createUser(ctx, s.repo, s.hasher, name, email, password, model.RoleAdmin); err != nil {
		// Another process seeded it first.
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func canManage(caller *model.PublicUser, id uint) bool {
	if caller == nil {
		return false
	}
	return caller.IsAdmin() || caller.ID == id
}
