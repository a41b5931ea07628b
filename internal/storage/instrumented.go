package storage

import (
	"context"
	"errors"

	"instrument-tracker/internal/metrics"
	"instrument-tracker/internal/models"
)

// InstrumentedProvider counts every call to the wrapped backend. NewProvider
// wraps each configured backend, so with a fallback both legs are counted.
type InstrumentedProvider struct {
	Provider
	backend string
}

func NewInstrumentedProvider(backend string, p Provider) *InstrumentedProvider {
	return &InstrumentedProvider{Provider: p, backend: backend}
}

func (p *InstrumentedProvider) record(op string, err error) {
	result := metrics.ResultSuccess
	switch {
	case errors.Is(err, ErrNotFound):
		result = metrics.ResultNotFound
	case err != nil:
		result = metrics.ResultError
	}
	metrics.IncStorageOperation(p.backend, op, result)
}

func (p *InstrumentedProvider) Ping(ctx context.Context) error {
	err := p.Provider.Ping(ctx)
	p.record("ping", err)
	return err
}

func (p *InstrumentedProvider) ListInstruments(ctx context.Context) ([]models.Instrument, error) {
	list, err := p.Provider.ListInstruments(ctx)
	p.record("list", err)
	return list, err
}

func (p *InstrumentedProvider) GetInstrument(ctx context.Context, id string) (*models.Instrument, error) {
	inst, err := p.Provider.GetInstrument(ctx, id)
	p.record("get", err)
	return inst, err
}

func (p *InstrumentedProvider) CreateInstrument(ctx context.Context, fields models.NewInstrument) (*models.Instrument, error) {
	inst, err := p.Provider.CreateInstrument(ctx, fields)
	p.record("create", err)
	return inst, err
}

func (p *InstrumentedProvider) RecordCalibration(ctx context.Context, id string, rec models.CalibrationRecord) (*models.Instrument, error) {
	inst, err := p.Provider.RecordCalibration(ctx, id, rec)
	p.record("record_calibration", err)
	return inst, err
}

func (p *InstrumentedProvider) UpdateInstrument(ctx context.Context, id string, upd models.InstrumentUpdate) (*models.Instrument, error) {
	inst, err := p.Provider.UpdateInstrument(ctx, id, upd)
	p.record("update", err)
	return inst, err
}

func (p *InstrumentedProvider) DeleteInstrument(ctx context.Context, id string) (*models.Instrument, error) {
	inst, err := p.Provider.DeleteInstrument(ctx, id)
	p.record("delete", err)
	return inst, err
}
