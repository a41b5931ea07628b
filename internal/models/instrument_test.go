package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePeriod(t *testing.T) {
	cases := map[int]int{
		0:   DefaultCalibrationPeriod,
		-4:  DefaultCalibrationPeriod,
		1:   1,
		90:  90,
		365: 365,
		400: 365,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePeriod(in), "period %d", in)
	}
}

func TestNextCalibrationDate(t *testing.T) {
	assert.Nil(t, NextCalibrationDate(nil, 30))

	last := MustParseDate("2024-01-01")
	next := NextCalibrationDate(&last, 30)
	require.NotNil(t, next)
	assert.Equal(t, "2024-01-31", next.String())

	// Unset period falls back to the default.
	next = NextCalibrationDate(&last, 0)
	require.NotNil(t, next)
	assert.Equal(t, "2024-01-31", next.String())
}

func TestNewInstrumentValidate(t *testing.T) {
	n := NewInstrument{Name: "  ", Location: "Lab 1"}
	err := n.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Field)

	n = NewInstrument{Name: "Scale", Location: ""}
	require.ErrorAs(t, n.Validate(), &verr)
	assert.Equal(t, "location", verr.Field)

	n = NewInstrument{Name: "Scale", Location: "Lab 1"}
	assert.NoError(t, n.Validate())
}

func TestCalibrationRecordValidate(t *testing.T) {
	r := CalibrationRecord{}
	assert.ErrorIs(t, r.Validate(), ErrValidation)

	r.LastCalibrationDate = MustParseDate("2024-03-01").Ptr()
	assert.NoError(t, r.Validate())
}

func TestInstrumentUpdateApplyRecomputesNext(t *testing.T) {
	last := MustParseDate("2024-01-01")
	inst := Instrument{
		Name:                "Pipette",
		Location:            "Bench 2",
		CalibrationRequired: true,
		CalibrationPeriod:   30,
		LastCalibrationDate: &last,
		NextCalibrationDate: NextCalibrationDate(&last, 30),
	}
	period := 10
	notes := "  "
	u := InstrumentUpdate{CalibrationPeriod: &period, Notes: &notes}
	u.Apply(&inst)

	assert.Equal(t, 10, inst.CalibrationPeriod)
	require.NotNil(t, inst.NextCalibrationDate)
	assert.Equal(t, "2024-01-11", inst.NextCalibrationDate.String())
	assert.Nil(t, inst.Notes)
}

func TestDateArithmetic(t *testing.T) {
	a := MustParseDate("2024-02-05")
	b := MustParseDate("2024-01-31")
	assert.Equal(t, -5, a.DaysUntil(b))
	assert.Equal(t, 5, b.DaysUntil(a))
	assert.True(t, b.Before(a))
	assert.Equal(t, "2024-03-01", MustParseDate("2024-02-28").AddDays(2).String())
}

func TestDateOfIgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	d := DateOf(time.Date(2024, 1, 20, 23, 59, 0, 0, loc))
	assert.Equal(t, "2024-01-20", d.String())

	d, err := ParseDate("2024-01-20T08:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-20", d.String())

	_, err = ParseDate("20/01/2024")
	assert.Error(t, err)
}

func TestDateJSONAndSQL(t *testing.T) {
	type wrapper struct {
		Due *Date `json:"due"`
	}
	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-01-31"}`), &w))
	require.NotNil(t, w.Due)
	assert.Equal(t, "2024-01-31", w.Due.String())

	out, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2024-01-31"}`, string(out))

	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-31", d.String())
	require.NoError(t, d.Scan([]byte("2024-02-01")))
	assert.Equal(t, "2024-02-01", d.String())
	assert.Error(t, d.Scan(42))

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", v)
}
