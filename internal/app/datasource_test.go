package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/farmdesk/farmdesk/internal/expenses"
	"github.com/farmdesk/farmdesk/internal/shared"
)

func TestOpenExpenseStoreFromDemoFixtures(t *testing.T) {
	store, err := OpenExpenseStore(&Config{DataSource: DataSourceMemory}, nil)
	require.NoError(t, err)
	ids, err := store.ListTenantIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, ids)
}

func TestOpenExpenseStoreFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.json")
	doc := `{"expenses":[{"expense_id":1,"tenant_id":4,"expense_type":"feed","amount":2,"expense_date":"2024-01-01"}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	store, err := OpenExpenseStore(&Config{DataSource: DataSourceMemory, FixturesPath: path}, nil)
	require.NoError(t, err)
	list, err := store.ListExpenses(context.Background(), expenses.Scope{TenantID: 4})
	require.NoError(t, err)
	require.Len(t, list, 1)

	dir, err := OpenDirectory(&Config{DataSource: DataSourceMemory, FixturesPath: path}, nil)
	require.NoError(t, err)
	_, err = dir.FindUser(context.Background(), 1)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = OpenExpenseStore(&Config{DataSource: DataSourceMemory, FixturesPath: filepath.Join(t.TempDir(), "missing.json")}, nil)
	require.Error(t, err)
}

func TestOpenDirectoryFromDemoFixtures(t *testing.T) {
	dir, err := OpenDirectory(&Config{DataSource: DataSourceMemory}, nil)
	require.NoError(t, err)

	user, err := dir.FindUser(context.Background(), 3)
	require.NoError(t, err)
	require.True(t, user.IsSuperAdmin)

	roles, err := dir.UserRoles(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	require.Equal(t, "bookkeeper", roles[0].Name)
}
