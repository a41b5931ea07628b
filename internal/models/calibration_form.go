package models

import (
	"fmt"
	"strings"
)

// CalibrationForm is what a technician fills in after calibrating an
// instrument. It is stored as a CalibrationRecord with composed notes.
type CalibrationForm struct {
	Date        *Date  `json:"date" form:"date"`
	PerformedBy string `json:"performed_by" form:"performed_by"`
	Cleaned     bool   `json:"cleaned" form:"cleaned"`
	Notes       string `json:"notes" form:"notes"`
}

func (f *CalibrationForm) Validate() error {
	if f.Date == nil || f.Date.IsZero() {
		return &ValidationError{Field: "date", Message: "calibration date is required"}
	}
	return nil
}

// ComposeNotes renders the form as the free text kept on the instrument.
func (f *CalibrationForm) ComposeNotes() string {
	who := strings.TrimSpace(f.PerformedBy)
	if who == "" {
		who = "Not specified"
	}
	cleaned := "No"
	if f.Cleaned {
		cleaned = "Yes"
	}

	notes := fmt.Sprintf("Calibration performed by: %s\nCleaned: %s", who, cleaned)
	if extra := strings.TrimSpace(f.Notes); extra != "" {
		notes += "\nAdditional notes: " + extra
	}
	return notes
}

func (f *CalibrationForm) Record() CalibrationRecord {
	notes := f.ComposeNotes()
	return CalibrationRecord{LastCalibrationDate: f.Date, Notes: &notes}
}
