package instruments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instrument-tracker/internal/calibration"
	"instrument-tracker/internal/inventory"
	"instrument-tracker/internal/models"
	"instrument-tracker/internal/reference"
	"instrument-tracker/internal/storage"
)

var today = time.Date(2024, 1, 25, 14, 30, 0, 0, time.UTC)

func newTestService() *Service {
	return NewService(storage.NewMemoryProvider(), WithClock(func() time.Time { return today }))
}

// rejectingStore fails the test if validation lets a call through.
type rejectingStore struct {
	storage.Provider
	t *testing.T
}

func (r rejectingStore) CreateInstrument(context.Context, models.NewInstrument) (*models.Instrument, error) {
	r.t.Fatal("storage must not be called")
	return nil, nil
}

func (r rejectingStore) RecordCalibration(context.Context, string, models.CalibrationRecord) (*models.Instrument, error) {
	r.t.Fatal("storage must not be called")
	return nil, nil
}

func (r rejectingStore) UpdateInstrument(context.Context, string, models.InstrumentUpdate) (*models.Instrument, error) {
	r.t.Fatal("storage must not be called")
	return nil, nil
}

func TestService_ValidationBeforeStorage(t *testing.T) {
	ctx := context.Background()
	s := NewService(rejectingStore{t: t})

	_, err := s.Add(ctx, models.NewInstrument{Name: "  ", Location: "Lab"})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	_, err = s.Add(ctx, models.NewInstrument{Name: "Scale"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "location", verr.Field)

	_, err = s.RecordCalibration(ctx, "a1", models.CalibrationRecord{})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = s.Calibrate(ctx, "a1", models.CalibrationForm{PerformedBy: "QA"})
	assert.ErrorIs(t, err, models.ErrValidation)

	empty := ""
	_, err = s.Update(ctx, "a1", models.InstrumentUpdate{Name: &empty})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestService_AddEvaluatesStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	item, err := s.Add(ctx, models.NewInstrument{
		Name:                "Scale",
		Location:            "Lab 1",
		CalibrationRequired: true,
		CalibrationPeriod:   30,
		LastCalibrationDate: models.MustParseDate("2024-01-01").Ptr(),
		Notes:               models.NonEmpty("  "),
	})
	require.NoError(t, err)
	assert.Equal(t, calibration.DueSoon, item.Status.Status)
	assert.Equal(t, "2024-01-31", item.NextCalibrationDate.String())
	assert.Nil(t, item.Notes)

	never, err := s.Add(ctx, models.NewInstrument{
		Name: "Pipette", Location: "Lab 2", CalibrationRequired: true,
		LastCalibrationDate: &models.Date{},
	})
	require.NoError(t, err)
	assert.Nil(t, never.LastCalibrationDate)
	assert.Equal(t, calibration.NotReady, never.Status.Status)
}

func TestService_CalibrateComposesNotes(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	item, err := s.Add(ctx, models.NewInstrument{Name: "Thermometer", Location: "Lab", CalibrationRequired: true, CalibrationPeriod: 90})
	require.NoError(t, err)
	require.Equal(t, calibration.NotReady, item.Status.Status)

	item, err = s.Calibrate(ctx, item.ID, models.CalibrationForm{
		Date:        models.MustParseDate("2024-01-25").Ptr(),
		PerformedBy: "J. Smith",
		Cleaned:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, calibration.Ready, item.Status.Status)
	assert.Equal(t, "2024-04-24", item.NextCalibrationDate.String())
	require.NotNil(t, item.Notes)
	assert.Equal(t, "Calibration performed by: J. Smith\nCleaned: Yes", *item.Notes)
}

func TestService_ListAndResolve(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	overdue, err := s.Add(ctx, models.NewInstrument{
		Name: "Caliper", Location: "Workshop", CalibrationRequired: true, CalibrationPeriod: 10,
		LastCalibrationDate: models.MustParseDate("2024-01-01").Ptr(),
	})
	require.NoError(t, err)
	_, err = s.Add(ctx, models.NewInstrument{Name: "Ruler", Location: "Workshop", CalibrationRequired: false})
	require.NoError(t, err)

	report, err := s.List(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, inventory.SelectAll, report.Selector)
	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.Overdue)
	require.Len(t, report.Alerts, 1)
	assert.Equal(t, overdue.ID, report.Alerts[0].ID)

	report, err = s.List(ctx, "CALIPER", "not_ready")
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, 14, report.Items[0].Status.DaysOverdue)

	_, err = s.List(ctx, "", "broken")
	assert.ErrorIs(t, err, inventory.ErrInvalidSelector)

	item, err := s.Resolve(ctx, reference.URL("https://lab.example.com", overdue.ID))
	require.NoError(t, err)
	assert.Equal(t, overdue.ID, item.ID)

	_, err = s.Resolve(ctx, "not a reference!")
	assert.ErrorIs(t, err, reference.ErrInvalidReference)

	_, err = s.Resolve(ctx, "unknown-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	item, err := s.Add(ctx, models.NewInstrument{
		Name: "Scale", Location: "Lab", CalibrationRequired: true, CalibrationPeriod: 365,
		LastCalibrationDate: models.MustParseDate("2024-01-01").Ptr(),
	})
	require.NoError(t, err)
	assert.Equal(t, calibration.Ready, item.Status.Status)

	period := 20
	item, err = s.Update(ctx, item.ID, models.InstrumentUpdate{CalibrationPeriod: &period})
	require.NoError(t, err)
	assert.Equal(t, calibration.Overdue, item.Status.Status)

	deleted, err := s.Delete(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Scale", deleted.Name)

	_, err = s.Get(ctx, item.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.Get(ctx, " ")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_StorageErrorsPassThrough(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService().List(ctx, "", "all")
	assert.True(t, errors.Is(err, context.Canceled))
}
