package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultCalibrationPeriod = 30
	MinCalibrationPeriod     = 1
	MaxCalibrationPeriod     = 365
)

var ErrValidation = errors.New("validation failed")

// ValidationError reports a missing or malformed field. It matches
// ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type Instrument struct {
	ID                  string    `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	Location            string    `db:"location" json:"location"`
	CalibrationRequired bool      `db:"calibration_required" json:"calibration_required"`
	CalibrationPeriod   int       `db:"calibration_period" json:"calibration_period"`
	LastCalibrationDate *Date     `db:"last_calibration_date" json:"last_calibration_date"`
	NextCalibrationDate *Date     `db:"next_calibration_date" json:"next_calibration_date"`
	Notes               *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// NeverCalibrated reports a required calibration with no history.
func (i *Instrument) NeverCalibrated() bool {
	return i.CalibrationRequired && (i.LastCalibrationDate == nil || i.LastCalibrationDate.IsZero())
}

// NewInstrument is the field set accepted on creation. Identity and
// timestamps are stamped by storage.
type NewInstrument struct {
	Name                string  `json:"name"`
	Location            string  `json:"location"`
	CalibrationRequired bool    `json:"calibration_required"`
	CalibrationPeriod   int     `json:"calibration_period"`
	LastCalibrationDate *Date   `json:"last_calibration_date,omitempty"`
	Notes               *string `json:"notes,omitempty"`
}

func (n *NewInstrument) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return &ValidationError{Field: "name", Message: "instrument name is required"}
	}
	if strings.TrimSpace(n.Location) == "" {
		return &ValidationError{Field: "location", Message: "location is required"}
	}
	return nil
}

// CalibrationRecord is a logged calibration event.
type CalibrationRecord struct {
	LastCalibrationDate *Date   `json:"last_calibration_date"`
	Notes               *string `json:"notes,omitempty"`
}

func (r *CalibrationRecord) Validate() error {
	if r.LastCalibrationDate == nil || r.LastCalibrationDate.IsZero() {
		return &ValidationError{Field: "last_calibration_date", Message: "calibration date is required"}
	}
	return nil
}

// InstrumentUpdate holds optional field changes. Nil fields are left as is.
type InstrumentUpdate struct {
	Name                *string `json:"name,omitempty"`
	Location            *string `json:"location,omitempty"`
	CalibrationRequired *bool   `json:"calibration_required,omitempty"`
	CalibrationPeriod   *int    `json:"calibration_period,omitempty"`
	Notes               *string `json:"notes,omitempty"`
}

func (u *InstrumentUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return &ValidationError{Field: "name", Message: "instrument name cannot be empty"}
	}
	if u.Location != nil && strings.TrimSpace(*u.Location) == "" {
		return &ValidationError{Field: "location", Message: "location cannot be empty"}
	}
	return nil
}

// Apply merges the update into inst and keeps the derived next date in step
// with the period.
func (u *InstrumentUpdate) Apply(inst *Instrument) {
	if u.Name != nil {
		inst.Name = strings.TrimSpace(*u.Name)
	}
	if u.Location != nil {
		inst.Location = strings.TrimSpace(*u.Location)
	}
	if u.CalibrationRequired != nil {
		inst.CalibrationRequired = *u.CalibrationRequired
	}
	if u.CalibrationPeriod != nil {
		inst.CalibrationPeriod = NormalizePeriod(*u.CalibrationPeriod)
	}
	if u.Notes != nil {
		inst.Notes = NonEmpty(*u.Notes)
	}
	inst.NextCalibrationDate = NextCalibrationDate(inst.LastCalibrationDate, inst.CalibrationPeriod)
}

// NormalizePeriod maps a missing or invalid period to the default and caps
// it at one year.
func NormalizePeriod(days int) int {
	switch {
	case days < MinCalibrationPeriod:
		return DefaultCalibrationPeriod
	case days > MaxCalibrationPeriod:
		return MaxCalibrationPeriod
	}
	return days
}

// NextCalibrationDate is last + period days, or nil without a last date.
func NextCalibrationDate(last *Date, period int) *Date {
	if last == nil || last.IsZero() {
		return nil
	}
	return last.AddDays(NormalizePeriod(period)).Ptr()
}

// NonEmpty returns nil for blank strings.
func NonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
