package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibrationForm_ComposeNotes(t *testing.T) {
	tests := []struct {
		name string
		form CalibrationForm
		want string
	}{
		{
			name: "anonymous",
			form: CalibrationForm{},
			want: "Calibration performed by: Not specified\nCleaned: No",
		},
		{
			name: "full",
			form: CalibrationForm{PerformedBy: " J. Smith ", Cleaned: true, Notes: "Replaced probe tip"},
			want: "Calibration performed by: J. Smith\nCleaned: Yes\nAdditional notes: Replaced probe tip",
		},
		{
			name: "blank notes dropped",
			form: CalibrationForm{PerformedBy: "QA", Notes: "   "},
			want: "Calibration performed by: QA\nCleaned: No",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.form.ComposeNotes())
		})
	}
}

func TestCalibrationForm_Record(t *testing.T) {
	form := CalibrationForm{}
	assert.ErrorIs(t, form.Validate(), ErrValidation)

	form.Date = MustParseDate("2024-03-01").Ptr()
	require.NoError(t, form.Validate())

	rec := form.Record()
	assert.Equal(t, "2024-03-01", rec.LastCalibrationDate.String())
	require.NotNil(t, rec.Notes)
	assert.Contains(t, *rec.Notes, "Cleaned: No")
}
