package inventory

import "instrument-tracker/internal/calibration"

// Stats counts an unfiltered collection.
//
// NotReady counts instruments whose status is exactly NotReady.
// NeverCalibrated is computed from the fields (required and no last date)
// rather than from the status; the two agree for valid records but are kept
// apart so either view can be shown. NotReadyTotal is the combined "Not
// Ready" bucket: overdue plus never calibrated.
type Stats struct {
	Total           int `json:"total"`
	Ready           int `json:"ready"`
	DueSoon         int `json:"due_soon"`
	Overdue         int `json:"overdue"`
	NotReady        int `json:"not_ready"`
	NeverCalibrated int `json:"never_calibrated"`
	NotReadyTotal   int `json:"not_ready_total"`
}

func Summarize(items []Item) Stats {
	var s Stats
	s.Total = len(items)
	for i := range items {
		switch items[i].Status.Status {
		case calibration.Ready:
			s.Ready++
		case calibration.DueSoon:
			s.DueSoon++
		case calibration.Overdue:
			s.Overdue++
		case calibration.NotReady:
			s.NotReady++
		}
		if items[i].NeverCalibrated() {
			s.NeverCalibrated++
		}
	}
	s.NotReadyTotal = s.Overdue + s.NotReady
	return s
}

// ByStatus returns the per-status counts keyed by status.
func (s Stats) ByStatus() map[calibration.Status]int {
	return map[calibration.Status]int{
		calibration.Ready:    s.Ready,
		calibration.DueSoon:  s.DueSoon,
		calibration.Overdue:  s.Overdue,
		calibration.NotReady: s.NotReady,
	}
}
