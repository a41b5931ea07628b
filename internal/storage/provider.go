package storage

import (
	"context"
	"log/slog"

	"instrument-tracker/internal/config"
	"instrument-tracker/internal/models"
)

// Provider is the persistence contract for instruments. Implementations
// stamp id and timestamps, normalise the calibration period and keep
// next_calibration_date derived from last date + period.
type Provider interface {
	Close() error
	Ping(ctx context.Context) error

	ListInstruments(ctx context.Context) ([]models.Instrument, error)
	GetInstrument(ctx context.Context, id string) (*models.Instrument, error)
	CreateInstrument(ctx context.Context, fields models.NewInstrument) (*models.Instrument, error)
	// RecordCalibration sets the last calibration date and recomputes the next
	// one from the stored period.
	RecordCalibration(ctx context.Context, id string, rec models.CalibrationRecord) (*models.Instrument, error)
	UpdateInstrument(ctx context.Context, id string, upd models.InstrumentUpdate) (*models.Instrument, error)
	// DeleteInstrument removes the record permanently and returns it.
	DeleteInstrument(ctx context.Context, id string) (*models.Instrument, error)
}

// NewProvider builds the configured backends, each counted in the storage
// metrics. With both a remote and a local store the remote is primary and the
// local store takes over on failure.
func NewProvider(cfg *config.Storage) Provider {
	var remote, local Provider

	if cfg.Remote != nil {
		p, err := NewPostgresProvider(cfg)
		if err != nil {
			slog.Error("Failed to initialize remote storage", "error", err)
		} else {
			remote = NewInstrumentedProvider("pgx", p)
		}
	}

	if cfg.Local != nil {
		p, err := NewSQLiteProvider(cfg)
		if err != nil {
			slog.Error("Failed to initialize local storage", "error", err, "path", cfg.Local.Path)
		} else {
			local = NewInstrumentedProvider("sqlite3", p)
		}
	}

	switch {
	case remote != nil && local != nil:
		return NewFallbackProvider(remote, local)
	case remote != nil:
		return remote
	case local != nil:
		return local
	case cfg.Remote == nil && cfg.Local == nil:
		slog.Warn("No storage configured, instruments are kept in memory only")
		return NewInstrumentedProvider("memory", NewMemoryProvider())
	default:
		slog.Error("Unsupported storage configuration", "config", cfg)
	}

	return nil
}
