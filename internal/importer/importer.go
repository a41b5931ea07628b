// Package importer reads instrument lists prepared outside the tracker,
// typically spreadsheet exports, into field sets ready for creation.
package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"instrument-tracker/internal/models"
)

var ErrUnsupportedFormat = errors.New("unsupported import format")

// Row is one instrument read from a file, with the line it started on.
type Row struct {
	Line       int
	Instrument models.NewInstrument
}

// RowError reports a record that could not be converted. Other rows are
// still returned.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

type Result struct {
	Rows   []Row
	Errors []RowError
}

// ReadFile picks the reader from the file extension: .csv, .tsv, .txt or
// .yaml/.yml.
func ReadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return ReadCSV(f)
	case ".yaml", ".yml":
		return ReadYAML(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// record is the loosely typed form shared by the CSV and YAML readers.
type record struct {
	Name                string  `yaml:"name"`
	Location            string  `yaml:"location"`
	CalibrationRequired string  `yaml:"calibration_required"`
	CalibrationPeriod   string  `yaml:"calibration_period"`
	LastCalibrationDate string  `yaml:"last_calibration_date"`
	Notes               *string `yaml:"notes"`
}

func (r *record) instrument() (models.NewInstrument, error) {
	inst := models.NewInstrument{
		Name:                strings.TrimSpace(r.Name),
		Location:            strings.TrimSpace(r.Location),
		CalibrationRequired: true,
	}

	if v := strings.TrimSpace(r.CalibrationRequired); v != "" {
		required, err := parseBool(v)
		if err != nil {
			return inst, &models.ValidationError{Field: "calibration_required", Message: err.Error()}
		}
		inst.CalibrationRequired = required
	}

	if v := strings.TrimSpace(r.CalibrationPeriod); v != "" {
		period, err := strconv.Atoi(v)
		if err != nil {
			return inst, &models.ValidationError{Field: "calibration_period", Message: fmt.Sprintf("not a number of days: %q", v)}
		}
		inst.CalibrationPeriod = period
	}

	if v := strings.TrimSpace(r.LastCalibrationDate); v != "" {
		date, err := models.ParseDate(v)
		if err != nil {
			return inst, &models.ValidationError{Field: "last_calibration_date", Message: err.Error()}
		}
		inst.LastCalibrationDate = &date
	}

	if r.Notes != nil {
		inst.Notes = models.NonEmpty(*r.Notes)
	}

	return inst, inst.Validate()
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "x", "kyllä", "k":
		return true, nil
	case "0", "false", "no", "n", "ei", "-":
		return false, nil
	}
	return false, fmt.Errorf("not a yes/no value: %q", v)
}
