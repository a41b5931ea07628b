// Package inventory aggregates evaluated instruments for listing screens:
// status filtering, free-text search, counters and alerts.
package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"instrument-tracker/internal/calibration"
	"instrument-tracker/internal/models"
)

var ErrInvalidSelector = errors.New("invalid status filter")

// Selector narrows a listing by status.
type Selector string

const (
	SelectAll      Selector = "all"
	SelectReady    Selector = "ready"
	SelectNotReady Selector = "not_ready"
	SelectDueSoon  Selector = "due_soon"
	SelectOverdue  Selector = "overdue"
)

var Selectors = []Selector{SelectAll, SelectReady, SelectNotReady, SelectDueSoon, SelectOverdue}

func ParseSelector(s string) (Selector, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SelectAll, nil
	}
	for _, sel := range Selectors {
		if string(sel) == s {
			return sel, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSelector, s)
}

// Matches reports whether a status passes the selector. "not_ready" covers
// both never calibrated and overdue instruments.
func (s Selector) Matches(status calibration.Status) bool {
	switch s {
	case SelectAll:
		return true
	case SelectReady:
		return status == calibration.Ready
	case SelectNotReady:
		return status == calibration.NotReady || status == calibration.Overdue
	case SelectDueSoon:
		return status == calibration.DueSoon
	case SelectOverdue:
		return status == calibration.Overdue
	}
	return false
}

// Item pairs an instrument with its evaluated status.
type Item struct {
	models.Instrument
	Status calibration.Result `json:"status"`
}

// Evaluate computes the status of every instrument against the same now.
func Evaluate(instruments []models.Instrument, now time.Time) []Item {
	items := make([]Item, len(instruments))
	for i := range instruments {
		items[i] = Item{
			Instrument: instruments[i],
			Status:     calibration.Evaluate(&instruments[i], now),
		}
	}
	return items
}

// Filter keeps items whose name, location or notes contain query (case
// folded, not trimmed) and whose status passes sel. An empty query matches
// everything. Input order is preserved.
func Filter(items []Item, query string, sel Selector) []Item {
	fold := cases.Fold()
	q := fold.String(query)

	out := make([]Item, 0, len(items))
	for _, item := range items {
		if !sel.Matches(item.Status.Status) {
			continue
		}
		if q != "" && !matchesQuery(fold, &item.Instrument, q) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesQuery(fold cases.Caser, inst *models.Instrument, q string) bool {
	if strings.Contains(fold.String(inst.Name), q) || strings.Contains(fold.String(inst.Location), q) {
		return true
	}
	return inst.Notes != nil && strings.Contains(fold.String(*inst.Notes), q)
}

// Alerts returns the items needing attention, overdue or due soon, in input
// order.
func Alerts(items []Item) []Item {
	var out []Item
	for _, item := range items {
		if item.Status.Status == calibration.Overdue || item.Status.Status == calibration.DueSoon {
			out = append(out, item)
		}
	}
	return out
}

// Report is what a listing screen renders.
type Report struct {
	Selector Selector `json:"selector"`
	Query    string   `json:"query,omitempty"`
	Items    []Item   `json:"instruments"`
	Stats    Stats    `json:"stats"`
	Alerts   []Item   `json:"alerts"`
}

// Build evaluates instruments once, then filters. Stats and alerts are taken
// from the unfiltered collection.
func Build(instruments []models.Instrument, now time.Time, query string, sel Selector) Report {
	all := Evaluate(instruments, now)
	return Report{
		Selector: sel,
		Query:    query,
		Items:    Filter(all, query, sel),
		Stats:    Summarize(all),
		Alerts:   Alerts(all),
	}
}
