package rbac

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/farmdesk/farmdesk/internal/shared"
)

// Service resolves principals and serves the users/roles/permissions pages.
type Service struct {
	repo   Repository
	cache  *PrincipalCache
	logger *slog.Logger
}

// NewService constructs a Service. cache and logger may be nil.
func NewService(repo Repository, cache *PrincipalCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// LoadUser resolves the AuthUser for id. Unknown and inactive users return
// shared.ErrNotFound.
func (s *Service) LoadUser(ctx context.Context, id int64) (*AuthUser, error) {
	if id <= 0 {
		return nil, shared.ErrNotFound
	}
	cached, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn("principal cache get", slog.Int64("user_id", id), slog.Any("error", err))
	}
	if ok {
		return cached, nil
	}

	user, err := s.repo.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrNotFound
	}
	roles, err := s.repo.UserRoles(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("rbac: load roles for user %d: %w", id, err)
	}
	principal := &AuthUser{
		ID:           user.ID,
		TenantID:     user.TenantID,
		Name:         user.Name,
		Email:        user.Email,
		IsSuperAdmin: user.IsSuperAdmin,
		IsOwner:      user.IsOwner,
		Roles:        roles,
	}
	if err := s.cache.Set(ctx, principal); err != nil {
		s.logger.Warn("principal cache set", slog.Int64("user_id", id), slog.Any("error", err))
	}
	return principal, nil
}

// InvalidateUser forgets any cached principal for id.
func (s *Service) InvalidateUser(ctx context.Context, id int64) error {
	return s.cache.Invalidate(ctx, id)
}

// EffectivePermissions returns deduplicated permission names for a user.
func (s *Service) EffectivePermissions(ctx context.Context, id int64) ([]string, error) {
	user, err := s.LoadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Permissions(), nil
}

// ListUsers returns the users of a tenant.
func (s *Service) ListUsers(ctx context.Context, tenantID int64) ([]User, error) {
	return s.repo.ListUsers(ctx, tenantID)
}

// ListRoles returns roles visible to a tenant.
func (s *Service) ListRoles(ctx context.Context, tenantID int64) ([]Role, error) {
	return s.repo.ListRoles(ctx, tenantID)
}

// ListPermissions returns all permissions.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}
