package storage

import (
	"context"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"instrument-tracker/internal/config"
)

const postgresConnectTimeout = 10 * time.Second

type PostgresProvider struct {
	*SQLProvider
}

func NewPostgresProvider(cfg *config.Storage) (*PostgresProvider, error) {
	provider, err := NewSQLProvider("pgx", cfg.Remote.DSN)
	if err != nil {
		return nil, err
	}

	provider.db.SetMaxOpenConns(10)
	provider.db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), postgresConnectTimeout)
	defer cancel()

	if err := provider.runMigrations(ctx); err != nil {
		provider.Close()
		return nil, err
	}

	return &PostgresProvider{SQLProvider: provider}, nil
}
