// Package repository selects and decorates the LinkStore backend.
package repository

import (
	"context"
	"fmt"

	"github.com/wadjakorntonsri/shortlink/pkg/adapters/repository/postgres"
	"github.com/wadjakorntonsri/shortlink/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/logging"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

// Open connects to the backend chosen by cfg.StoreDriver, runs its migrations
// and wraps it in a circuit breaker.
func Open(ctx context.Context, cfg *config.Config) (ports.LinkStore, error) {
	var (
		store ports.LinkStore
		err   error
	)

	driver := cfg.StoreDriver()
	switch driver {
	case config.DriverPostgres:
		store, err = postgres.NewPostgresRepository(ctx, cfg.StoreDSN())
	case config.DriverSQLite, config.DriverLibSQL:
		store, err = sqlite.NewSQLiteRepository(cfg.StoreDSN())
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}

	logging.Info().Str("driver", driver).Msg("store connected")

	return NewBreakerStore(store, BreakerSettings{
		Name:     driver,
		Failures: uint32(cfg.BreakerFailures),
		Timeout:  cfg.BreakerTimeout,
	}), nil
}
