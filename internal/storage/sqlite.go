package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"instrument-tracker/internal/config"
)

type SQLiteProvider struct {
	*SQLProvider
}

func NewSQLiteProvider(cfg *config.Storage) (*SQLiteProvider, error) {
	path := cfg.Local.Path
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("unable to create database directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	}

	provider, err := NewSQLProvider("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: is a separate database.
	if path == ":memory:" {
		provider.db.SetMaxOpenConns(1)
	}

	if err := provider.runMigrations(context.Background()); err != nil {
		provider.Close()
		return nil, err
	}

	return &SQLiteProvider{SQLProvider: provider}, nil
}
