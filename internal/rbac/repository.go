package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmdesk/farmdesk/internal/shared"
)

// Repository defines directory reads needed by the console.
type Repository interface {
	FindUser(ctx context.Context, id int64) (User, error)
	UserRoles(ctx context.Context, userID int64) ([]Role, error)
	ListUsers(ctx context.Context, tenantID int64) ([]User, error)
	ListRoles(ctx context.Context, tenantID int64) ([]Role, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
}

// PostgresRepository reads users, roles and permissions from PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const userColumns = `id, tenant_id, name, email, is_super_admin, is_owner, is_active, created_at`

// FindUser loads a single user by id.
func (r *PostgresRepository) FindUser(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, fmt.Errorf("rbac: find user: %w", err)
	}
	return user, nil
}

// UserRoles returns the roles assigned to a user, in assignment order, with
// their permission names.
func (r *PostgresRepository) UserRoles(ctx context.Context, userID int64) ([]Role, error) {
	const query = `
SELECT r.id, r.name, COALESCE(r.description, ''),
       COALESCE(array_agg(p.name ORDER BY p.name) FILTER (WHERE p.name IS NOT NULL), '{}') AS permissions
FROM user_roles ur
JOIN roles r ON r.id = ur.role_id
LEFT JOIN role_permissions rp ON rp.role_id = r.id
LEFT JOIN permissions p ON p.id = rp.permission_id
WHERE ur.user_id = $1
GROUP BY r.id, r.name, r.description, ur.created_at
ORDER BY ur.created_at, r.id`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: user roles: %w", err)
	}
	return collectRoles(rows)
}

// ListUsers returns the users of a tenant ordered by name.
func (r *PostgresRepository) ListUsers(ctx context.Context, tenantID int64) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE tenant_id = $1 ORDER BY name, id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("rbac: list users: %w", err)
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("rbac: scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rbac: list users: %w", err)
	}
	return users, nil
}

// ListRoles returns tenant roles plus global roles (tenant_id IS NULL).
func (r *PostgresRepository) ListRoles(ctx context.Context, tenantID int64) ([]Role, error) {
	const query = `
SELECT r.id, r.name, COALESCE(r.description, ''),
       COALESCE(array_agg(p.name ORDER BY p.name) FILTER (WHERE p.name IS NOT NULL), '{}') AS permissions
FROM roles r
LEFT JOIN role_permissions rp ON rp.role_id = r.id
LEFT JOIN permissions p ON p.id = rp.permission_id
WHERE r.tenant_id = $1 OR r.tenant_id IS NULL
GROUP BY r.id, r.name, r.description
ORDER BY r.name`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("rbac: list roles: %w", err)
	}
	return collectRoles(rows)
}

// ListPermissions returns all permissions ordered by name.
func (r *PostgresRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, COALESCE(description, '') FROM permissions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	perms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Permission, error) {
		var p Permission
		err := row.Scan(&p.ID, &p.Name, &p.Description)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	return perms, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.TenantID, &u.Name, &u.Email, &u.IsSuperAdmin, &u.IsOwner, &u.IsActive, &u.CreatedAt)
	return u, err
}

func collectRoles(rows pgx.Rows) ([]Role, error) {
	roles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Role, error) {
		var role Role
		err := row.Scan(&role.ID, &role.Name, &role.Description, &role.Permissions)
		return role, err
	})
	if err != nil {
		return nil, fmt.Errorf("rbac: scan roles: %w", err)
	}
	return roles, nil
}
