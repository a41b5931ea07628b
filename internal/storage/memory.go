package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"instrument-tracker/internal/models"
	"instrument-tracker/internal/utils"
)

// MemoryProvider keeps instruments in process memory. Used when no database is
// configured and in tests.
type MemoryProvider struct {
	mu          sync.RWMutex
	instruments map[string]*models.Instrument
	// insertion order, newest last
	order []string

	now func() time.Time
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		instruments: make(map[string]*models.Instrument),
		now:         time.Now,
	}
}

func (p *MemoryProvider) Close() error {
	return nil
}

func (p *MemoryProvider) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (p *MemoryProvider) ListInstruments(ctx context.Context) ([]models.Instrument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	list := make([]models.Instrument, 0, len(p.order))
	for i := len(p.order) - 1; i >= 0; i-- {
		list = append(list, *cloneInstrument(p.instruments[p.order[i]]))
	}
	return list, nil
}

func (p *MemoryProvider) GetInstrument(ctx context.Context, id string) (*models.Instrument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	inst, ok := p.instruments[id]
	if !ok {
		return nil, notFound(id)
	}
	return cloneInstrument(inst), nil
}

func (p *MemoryProvider) CreateInstrument(ctx context.Context, fields models.NewInstrument) (*models.Instrument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := utils.NewInstrumentID()
	if err != nil {
		return nil, err
	}
	now := p.now().UTC()

	inst := &models.Instrument{
		ID:                  id,
		Name:                strings.TrimSpace(fields.Name),
		Location:            strings.TrimSpace(fields.Location),
		CalibrationRequired: fields.CalibrationRequired,
		CalibrationPeriod:   models.NormalizePeriod(fields.CalibrationPeriod),
		LastCalibrationDate: cloneDate(fields.LastCalibrationDate),
		Notes:               cloneString(fields.Notes),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	inst.NextCalibrationDate = models.NextCalibrationDate(inst.LastCalibrationDate, inst.CalibrationPeriod)

	p.mu.Lock()
	p.instruments[id] = inst
	p.order = append(p.order, id)
	p.mu.Unlock()

	return cloneInstrument(inst), nil
}

func (p *MemoryProvider) RecordCalibration(ctx context.Context, id string, rec models.CalibrationRecord) (*models.Instrument, error) {
	return p.mutate(ctx, id, func(inst *models.Instrument) {
		inst.LastCalibrationDate = cloneDate(rec.LastCalibrationDate)
		inst.NextCalibrationDate = models.NextCalibrationDate(inst.LastCalibrationDate, inst.CalibrationPeriod)
		if rec.Notes != nil {
			inst.Notes = cloneString(rec.Notes)
		}
	})
}

func (p *MemoryProvider) UpdateInstrument(ctx context.Context, id string, upd models.InstrumentUpdate) (*models.Instrument, error) {
	return p.mutate(ctx, id, upd.Apply)
}

func (p *MemoryProvider) mutate(ctx context.Context, id string, change func(*models.Instrument)) (*models.Instrument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	inst, ok := p.instruments[id]
	if !ok {
		return nil, notFound(id)
	}
	change(inst)
	inst.UpdatedAt = p.now().UTC()

	return cloneInstrument(inst), nil
}

func (p *MemoryProvider) DeleteInstrument(ctx context.Context, id string) (*models.Instrument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	inst, ok := p.instruments[id]
	if !ok {
		return nil, notFound(id)
	}
	delete(p.instruments, id)
	for i, v := range p.order {
		if v == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return inst, nil
}

// cloneInstrument copies inst including the values behind its pointer
// fields, so callers never share state with the map.
func cloneInstrument(inst *models.Instrument) *models.Instrument {
	cp := *inst
	cp.LastCalibrationDate = cloneDate(inst.LastCalibrationDate)
	cp.NextCalibrationDate = cloneDate(inst.NextCalibrationDate)
	cp.Notes = cloneString(inst.Notes)
	return &cp
}

func cloneDate(d *models.Date) *models.Date {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
