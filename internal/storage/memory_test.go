package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instrument-tracker/internal/models"
)

func steppingClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newTestMemoryProvider() *MemoryProvider {
	p := NewMemoryProvider()
	p.now = steppingClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	return p
}

func TestMemoryProvider_CreateAndList(t *testing.T) {
	ctx := context.Background()
	p := newTestMemoryProvider()

	first, err := p.CreateInstrument(ctx, models.NewInstrument{
		Name:                " Scale ",
		Location:            "Lab 1",
		CalibrationRequired: true,
		CalibrationPeriod:   0,
		LastCalibrationDate: models.MustParseDate("2024-01-10").Ptr(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Scale", first.Name)
	assert.Equal(t, models.DefaultCalibrationPeriod, first.CalibrationPeriod)
	require.NotNil(t, first.NextCalibrationDate)
	assert.Equal(t, "2024-02-09", first.NextCalibrationDate.String())

	second, err := p.CreateInstrument(ctx, models.NewInstrument{Name: "Pipette", Location: "Lab 2", CalibrationPeriod: 400})
	require.NoError(t, err)
	assert.Equal(t, models.MaxCalibrationPeriod, second.CalibrationPeriod)
	assert.Nil(t, second.NextCalibrationDate)

	list, err := p.ListInstruments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)
}

func TestMemoryProvider_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	p := newTestMemoryProvider()

	created, err := p.CreateInstrument(ctx, models.NewInstrument{Name: "Scale", Location: "Lab"})
	require.NoError(t, err)

	got, err := p.GetInstrument(ctx, created.ID)
	require.NoError(t, err)
	got.Name = "changed"

	again, err := p.GetInstrument(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Scale", again.Name)
}

func TestMemoryProvider_PointerFieldsAreNotShared(t *testing.T) {
	ctx := context.Background()
	p := newTestMemoryProvider()

	last := models.MustParseDate("2024-01-10")
	notes := "spare probe"
	created, err := p.CreateInstrument(ctx, models.NewInstrument{
		Name:                "Scale",
		Location:            "Lab",
		CalibrationRequired: true,
		LastCalibrationDate: &last,
		Notes:               &notes,
	})
	require.NoError(t, err)

	// The caller's own values stay theirs.
	last = models.MustParseDate("2030-01-01")
	notes = "changed by caller"

	got, err := p.GetInstrument(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", got.LastCalibrationDate.String())
	assert.Equal(t, "spare probe", *got.Notes)

	// Neither do returned records alias the stored one.
	*got.LastCalibrationDate = models.MustParseDate("1999-01-01")
	*got.NextCalibrationDate = models.MustParseDate("1999-01-31")
	*got.Notes = "changed through result"
	*created.LastCalibrationDate = models.MustParseDate("1998-01-01")

	list, err := p.ListInstruments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	*list[0].LastCalibrationDate = models.MustParseDate("1997-01-01")

	again, err := p.GetInstrument(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", again.LastCalibrationDate.String())
	assert.Equal(t, "2024-02-09", again.NextCalibrationDate.String())
	assert.Equal(t, "spare probe", *again.Notes)

	calibrated := models.MustParseDate("2024-01-20")
	recorded, err := p.RecordCalibration(ctx, created.ID, models.CalibrationRecord{LastCalibrationDate: &calibrated})
	require.NoError(t, err)
	calibrated = models.MustParseDate("2031-01-01")
	*recorded.NextCalibrationDate = models.MustParseDate("2031-01-31")

	again, err = p.GetInstrument(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-20", again.LastCalibrationDate.String())
	assert.Equal(t, "2024-02-19", again.NextCalibrationDate.String())
}

func TestMemoryProvider_NotFound(t *testing.T) {
	ctx := context.Background()
	p := newTestMemoryProvider()

	_, err := p.GetInstrument(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = p.RecordCalibration(ctx, "missing", models.CalibrationRecord{LastCalibrationDate: models.MustParseDate("2024-01-01").Ptr()})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = p.DeleteInstrument(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryProvider_RecordCalibration(t *testing.T) {
	ctx := context.Background()
	p := newTestMemoryProvider()

	created, err := p.CreateInstrument(ctx, models.NewInstrument{
		Name: "Thermometer", Location: "Lab", CalibrationRequired: true, CalibrationPeriod: 90,
		Notes: models.NonEmpty("original"),
	})
	require.NoError(t, err)

	updated, err := p.RecordCalibration(ctx, created.ID, models.CalibrationRecord{
		LastCalibrationDate: models.MustParseDate("2024-03-01").Ptr(),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", updated.LastCalibrationDate.String())
	assert.Equal(t, "2024-05-30", updated.NextCalibrationDate.String())
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "original", *updated.Notes, "notes kept when none given")
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	updated, err = p.RecordCalibration(ctx, created.ID, models.CalibrationRecord{
		LastCalibrationDate: models.MustParseDate("2024-06-01").Ptr(),
		Notes:               models.NonEmpty("recalibrated"),
	})
	require.NoError(t, err)
	assert.Equal(t, "recalibrated", *updated.Notes)
}

func TestMemoryProvider_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	p := newTestMemoryProvider()

	created, err := p.CreateInstrument(ctx, models.NewInstrument{
		Name: "Scale", Location: "Lab", CalibrationRequired: true,
		LastCalibrationDate: models.MustParseDate("2024-01-01").Ptr(),
	})
	require.NoError(t, err)

	period := 10
	location := "Storage"
	updated, err := p.UpdateInstrument(ctx, created.ID, models.InstrumentUpdate{CalibrationPeriod: &period, Location: &location})
	require.NoError(t, err)
	assert.Equal(t, "Storage", updated.Location)
	assert.Equal(t, "2024-01-11", updated.NextCalibrationDate.String())

	deleted, err := p.DeleteInstrument(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	list, err := p.ListInstruments(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryProvider_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestMemoryProvider().ListInstruments(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
