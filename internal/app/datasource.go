package app

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmdesk/farmdesk/internal/expenses"
	"github.com/farmdesk/farmdesk/internal/rbac"
)

// FixtureData returns the fixture document used in memory mode: the file at
// FIXTURES_PATH when set, the bundled demo farm otherwise.
func FixtureData(cfg *Config) ([]byte, error) {
	if cfg.FixturesPath == "" {
		return expenses.DemoFixtures(), nil
	}
	data, err := os.ReadFile(cfg.FixturesPath)
	if err != nil {
		return nil, fmt.Errorf("app: read fixtures: %w", err)
	}
	return data, nil
}

// OpenExpenseStore returns the expense records named by DATA_SOURCE. pool is
// only used in postgres mode.
func OpenExpenseStore(cfg *Config, pool *pgxpool.Pool) (expenses.Store, error) {
	if !cfg.UsesMemoryData() {
		return expenses.NewRepository(pool), nil
	}
	data, err := FixtureData(cfg)
	if err != nil {
		return nil, err
	}
	repo, err := expenses.LoadFixtures(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// OpenDirectory returns the user directory named by DATA_SOURCE. In memory
// mode it reads the users and roles of the fixture document.
func OpenDirectory(cfg *Config, pool *pgxpool.Pool) (rbac.Repository, error) {
	if !cfg.UsesMemoryData() {
		return rbac.NewRepository(pool), nil
	}
	data, err := FixtureData(cfg)
	if err != nil {
		return nil, err
	}
	dir, err := rbac.LoadDirectory(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return dir, nil
}
