package rbac

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/farmdesk/farmdesk/internal/shared"
)

type memoryRepo struct {
	users       map[int64]User
	roles       map[int64][]Role
	permissions []Permission
	findCalls   int
	failRoles   error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users: map[int64]User{
			1: {ID: 1, TenantID: 10, Name: "Ada", Email: "ada@farm.test", IsSuperAdmin: true, IsActive: true},
			2: {ID: 2, TenantID: 10, Name: "Bo", Email: "bo@farm.test", IsActive: true},
			3: {ID: 3, TenantID: 10, Name: "Cy", Email: "cy@farm.test", IsActive: false},
			4: {ID: 4, TenantID: 20, Name: "Di", Email: "di@other.test", IsActive: true},
		},
		roles: map[int64][]Role{
			2: {{ID: 5, Name: "vet", Permissions: []string{shared.PermMedicalView, shared.PermAnimalsView}}},
		},
		permissions: []Permission{{ID: 1, Name: shared.PermAnimalsView}, {ID: 2, Name: shared.PermMedicalView}},
	}
}

func (m *memoryRepo) FindUser(ctx context.Context, id int64) (User, error) {
	m.findCalls++
	user, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return user, nil
}

func (m *memoryRepo) UserRoles(ctx context.Context, userID int64) ([]Role, error) {
	if m.failRoles != nil {
		return nil, m.failRoles
	}
	return m.roles[userID], nil
}

func (m *memoryRepo) ListUsers(ctx context.Context, tenantID int64) ([]User, error) {
	var out []User
	for id := int64(1); id <= int64(len(m.users)); id++ {
		if u, ok := m.users[id]; ok && u.TenantID == tenantID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memoryRepo) ListRoles(ctx context.Context, tenantID int64) ([]Role, error) {
	return m.roles[2], nil
}

func (m *memoryRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	return m.permissions, nil
}

func newCache(t *testing.T) (*PrincipalCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPrincipalCache(client, time.Minute), mr
}

func TestLoadUserResolvesRoles(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	user, err := svc.LoadUser(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, int64(10), user.TenantID)
	require.Equal(t, []string{"vet"}, user.RoleNames())
	require.Equal(t, []string{shared.PermMedicalView, shared.PermAnimalsView}, user.Permissions())
}

func TestLoadUserRejectsUnknownAndInactive(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	for _, id := range []int64{0, 3, 99} {
		_, err := svc.LoadUser(context.Background(), id)
		require.ErrorIs(t, err, shared.ErrNotFound, "user %d", id)
	}
}

func TestLoadUserWrapsRoleErrors(t *testing.T) {
	repo := newMemoryRepo()
	repo.failRoles = errors.New("connection reset")
	svc := NewService(repo, nil, nil)
	_, err := svc.LoadUser(context.Background(), 2)
	require.ErrorContains(t, err, "connection reset")
	require.NotErrorIs(t, err, shared.ErrNotFound)
}

func TestLoadUserUsesCache(t *testing.T) {
	repo := newMemoryRepo()
	cache, mr := newCache(t)
	svc := NewService(repo, cache, nil)
	ctx := context.Background()

	first, err := svc.LoadUser(ctx, 2)
	require.NoError(t, err)
	require.True(t, mr.Exists("farmdesk:principal:2"))

	second, err := svc.LoadUser(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.findCalls)

	require.NoError(t, svc.InvalidateUser(ctx, 2))
	require.False(t, mr.Exists("farmdesk:principal:2"))
	_, err = svc.LoadUser(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 2, repo.findCalls)
}

func TestLoadUserFallsBackWhenCacheDown(t *testing.T) {
	repo := newMemoryRepo()
	cache, mr := newCache(t)
	mr.Close()
	svc := NewService(repo, cache, nil)

	user, err := svc.LoadUser(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, user.IsSuperAdmin)
}

func TestEffectivePermissions(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	perms, err := svc.EffectivePermissions(context.Background(), 2)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{shared.PermAnimalsView, shared.PermMedicalView}, perms)
}

func TestListUsersScopedToTenant(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	users, err := svc.ListUsers(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "Di", users[0].Name)
}
