package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instrument-tracker/internal/config"
	"instrument-tracker/internal/models"
)

func TestSQLiteProvider_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "instruments.db")

	p, err := NewSQLiteProvider(&config.Storage{Local: &config.SQLiteStorage{Path: path}})
	require.NoError(t, err)
	defer p.Close()
	p.now = steppingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	version, err := p.GetSchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	first, err := p.CreateInstrument(ctx, models.NewInstrument{
		Name: "Scale", Location: "Lab 1", CalibrationRequired: true, CalibrationPeriod: 30,
		LastCalibrationDate: models.MustParseDate("2024-01-10").Ptr(),
		Notes:               models.NonEmpty("Cleaned"),
	})
	require.NoError(t, err)
	second, err := p.CreateInstrument(ctx, models.NewInstrument{Name: "Pipette", Location: "Lab 2"})
	require.NoError(t, err)

	list, err := p.ListInstruments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	got, err := p.GetInstrument(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.CalibrationRequired)
	assert.Equal(t, "2024-02-09", got.NextCalibrationDate.String())
	assert.Equal(t, "Cleaned", *got.Notes)

	updated, err := p.RecordCalibration(ctx, first.ID, models.CalibrationRecord{
		LastCalibrationDate: models.MustParseDate("2024-02-01").Ptr(),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", updated.NextCalibrationDate.String())

	_, err = p.DeleteInstrument(ctx, second.ID)
	require.NoError(t, err)
	_, err = p.GetInstrument(ctx, second.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Reopening keeps the schema and data
	require.NoError(t, p.Close())
	reopened, err := NewSQLiteProvider(&config.Storage{Local: &config.SQLiteStorage{Path: path}})
	require.NoError(t, err)
	defer reopened.Close()

	list, err = reopened.ListInstruments(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
