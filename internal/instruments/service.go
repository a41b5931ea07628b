// Package instruments is the application layer between the transports (HTTP
// and CLI) and storage. It validates input before any storage call, samples
// the clock once per operation and returns instruments with their status.
package instruments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"instrument-tracker/internal/calibration"
	"instrument-tracker/internal/inventory"
	"instrument-tracker/internal/metrics"
	"instrument-tracker/internal/models"
	"instrument-tracker/internal/reference"
	"instrument-tracker/internal/storage"
)

type Service struct {
	store  storage.Provider
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		logger: slog.With("component", "instruments"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the clock used for status evaluation.
func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) Close() error {
	return s.store.Close()
}

func (s *Service) view(inst *models.Instrument) *inventory.Item {
	return &inventory.Item{
		Instrument: *inst,
		Status:     calibration.Evaluate(inst, s.now()),
	}
}

// List returns the filtered inventory with stats over the whole collection.
func (s *Service) List(ctx context.Context, query string, status string) (*inventory.Report, error) {
	sel, err := inventory.ParseSelector(status)
	if err != nil {
		return nil, err
	}

	list, err := s.store.ListInstruments(ctx)
	if err != nil {
		return nil, err
	}

	report := inventory.Build(list, s.now(), query, sel)

	counts := make(map[string]int, 4)
	for st, n := range report.Stats.ByStatus() {
		counts[string(st)] = n
	}
	metrics.SetStatusCounts(counts)

	return &report, nil
}

func (s *Service) Get(ctx context.Context, id string) (*inventory.Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", storage.ErrNotFound)
	}
	inst, err := s.store.GetInstrument(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(inst), nil
}

// Resolve decodes a scanned or typed reference and looks the instrument up.
func (s *Service) Resolve(ctx context.Context, code string) (*inventory.Item, error) {
	id, err := reference.Parse(code)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Add(ctx context.Context, fields models.NewInstrument) (*inventory.Item, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	fields.Name = strings.TrimSpace(fields.Name)
	fields.Location = strings.TrimSpace(fields.Location)
	fields.LastCalibrationDate = dropZero(fields.LastCalibrationDate)
	if fields.Notes != nil {
		fields.Notes = models.NonEmpty(*fields.Notes)
	}

	inst, err := s.store.CreateInstrument(ctx, fields)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Instrument added", "id", inst.ID, "name", inst.Name, "location", inst.Location)
	return s.view(inst), nil
}

func (s *Service) RecordCalibration(ctx context.Context, id string, rec models.CalibrationRecord) (*inventory.Item, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if rec.Notes != nil {
		rec.Notes = models.NonEmpty(*rec.Notes)
	}

	inst, err := s.store.RecordCalibration(ctx, id, rec)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Calibration recorded", "id", inst.ID, "date", inst.LastCalibrationDate, "next", inst.NextCalibrationDate)
	return s.view(inst), nil
}

// Calibrate records a calibration from the technician form, replacing the
// notes with the composed summary.
func (s *Service) Calibrate(ctx context.Context, id string, form models.CalibrationForm) (*inventory.Item, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	return s.RecordCalibration(ctx, id, form.Record())
}

func (s *Service) Update(ctx context.Context, id string, upd models.InstrumentUpdate) (*inventory.Item, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	inst, err := s.store.UpdateInstrument(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Instrument updated", "id", inst.ID)
	return s.view(inst), nil
}

func (s *Service) Delete(ctx context.Context, id string) (*models.Instrument, error) {
	inst, err := s.store.DeleteInstrument(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Instrument deleted", "id", inst.ID, "name", inst.Name)
	return inst, nil
}

func dropZero(d *models.Date) *models.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	return d
}
