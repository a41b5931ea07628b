package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"instrument-tracker/internal/metrics"
	"instrument-tracker/internal/models"
)

// FallbackProvider sends every operation to the primary store and repeats it
// on the secondary only when the primary is unavailable. A not found or
// validation answer from the primary is final.
type FallbackProvider struct {
	primary   Provider
	secondary Provider
	logger    *slog.Logger
}

func NewFallbackProvider(primary, secondary Provider) *FallbackProvider {
	return &FallbackProvider{
		primary:   primary,
		secondary: secondary,
		logger:    slog.With("component", "storage", "provider", "fallback"),
	}
}

func fallback[T any](ctx context.Context, f *FallbackProvider, op string, call func(Provider) (T, error)) (T, error) {
	res, err := call(f.primary)
	if err == nil || !errors.Is(err, ErrStorageUnavailable) || ctx.Err() != nil {
		return res, err
	}

	f.logger.Warn("Primary storage unavailable, using local store", "operation", op, "error", err)
	metrics.IncStorageFallback(op)

	res, secondaryErr := call(f.secondary)
	if secondaryErr != nil {
		if errors.Is(secondaryErr, ErrNotFound) {
			return res, secondaryErr
		}
		var zero T
		return zero, fmt.Errorf("%w: all stores failed for %s: %w", ErrStorageUnavailable, op, errors.Join(err, secondaryErr))
	}
	return res, nil
}

func (f *FallbackProvider) Close() error {
	return errors.Join(f.primary.Close(), f.secondary.Close())
}

// Ping succeeds while at least one store answers.
func (f *FallbackProvider) Ping(ctx context.Context) error {
	_, err := fallback(ctx, f, "ping", func(p Provider) (struct{}, error) {
		return struct{}{}, p.Ping(ctx)
	})
	return err
}

func (f *FallbackProvider) ListInstruments(ctx context.Context) ([]models.Instrument, error) {
	return fallback(ctx, f, "list", func(p Provider) ([]models.Instrument, error) {
		return p.ListInstruments(ctx)
	})
}

func (f *FallbackProvider) GetInstrument(ctx context.Context, id string) (*models.Instrument, error) {
	return fallback(ctx, f, "get", func(p Provider) (*models.Instrument, error) {
		return p.GetInstrument(ctx, id)
	})
}

func (f *FallbackProvider) CreateInstrument(ctx context.Context, fields models.NewInstrument) (*models.Instrument, error) {
	return fallback(ctx, f, "create", func(p Provider) (*models.Instrument, error) {
		return p.CreateInstrument(ctx, fields)
	})
}

func (f *FallbackProvider) RecordCalibration(ctx context.Context, id string, rec models.CalibrationRecord) (*models.Instrument, error) {
	return fallback(ctx, f, "record_calibration", func(p Provider) (*models.Instrument, error) {
		return p.RecordCalibration(ctx, id, rec)
	})
}

func (f *FallbackProvider) UpdateInstrument(ctx context.Context, id string, upd models.InstrumentUpdate) (*models.Instrument, error) {
	return fallback(ctx, f, "update", func(p Provider) (*models.Instrument, error) {
		return p.UpdateInstrument(ctx, id, upd)
	})
}

func (f *FallbackProvider) DeleteInstrument(ctx context.Context, id string) (*models.Instrument, error) {
	return fallback(ctx, f, "delete", func(p Provider) (*models.Instrument, error) {
		return p.DeleteInstrument(ctx, id)
	})
}
