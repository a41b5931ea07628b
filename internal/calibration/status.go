// Package calibration derives the readiness of an instrument from its
// calibration policy and history.
//
// Evaluation is pure: the caller samples the clock once and passes it in, so
// a whole dashboard is computed against the same day.
package calibration

import (
	"fmt"
	"time"

	"instrument-tracker/internal/models"
)

// DueSoonDays is the inclusive window, in days, in which an upcoming
// calibration is reported as due soon.
const DueSoonDays = 7

type Status string

const (
	Ready    Status = "ready"
	NotReady Status = "not_ready"
	Overdue  Status = "overdue"
	DueSoon  Status = "due_soon"
)

// Label returns the display name of the status.
func (s Status) Label() string {
	switch s {
	case Ready:
		return "Ready"
	case NotReady:
		return "Not Ready"
	case Overdue:
		return "Overdue"
	case DueSoon:
		return "Due Soon"
	}
	return "Unknown"
}

// Usable reports whether the instrument may be used for testing.
func (s Status) Usable() bool {
	return s == Ready || s == DueSoon
}

type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	// Set only when Status is Overdue.
	DaysOverdue int `json:"days_overdue,omitempty"`
	// Days from today to the next calibration. Negative once overdue.
	DaysRemaining   *int         `json:"days_remaining,omitempty"`
	NextCalibration *models.Date `json:"next_calibration,omitempty"`
}

// Evaluate applies the readiness rules in priority order; the first match
// wins.
func Evaluate(inst *models.Instrument, now time.Time) Result {
	if !inst.CalibrationRequired {
		return Result{Status: Ready, Message: "No calibration required for this instrument"}
	}

	if inst.LastCalibrationDate == nil || inst.LastCalibrationDate.IsZero() {
		return Result{Status: NotReady, Message: "Instrument has never been calibrated"}
	}

	next := NextDue(inst)
	today := models.DateOf(now)
	daysUntil := today.DaysUntil(next)

	res := Result{
		DaysRemaining:   &daysUntil,
		NextCalibration: &next,
	}

	switch {
	case next.Before(today):
		res.Status = Overdue
		res.DaysOverdue = -daysUntil
		res.Message = fmt.Sprintf("Calibration was due on %s", next)
	case daysUntil <= DueSoonDays:
		res.Status = DueSoon
		res.Message = fmt.Sprintf("Calibration due in %d %s (%s)", daysUntil, plural(daysUntil, "day"), next)
	default:
		res.Status = Ready
		res.Message = fmt.Sprintf("Next calibration due on %s", next)
	}
	return res
}

// NextDue returns the stored next calibration date, or derives it from the
// last calibration and the period. The instrument must have a last date.
func NextDue(inst *models.Instrument) models.Date {
	if inst.NextCalibrationDate != nil && !inst.NextCalibrationDate.IsZero() {
		return *inst.NextCalibrationDate
	}
	return *models.NextCalibrationDate(inst.LastCalibrationDate, inst.CalibrationPeriod)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
