package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Accepted header names per field. Spreadsheet exports use display names,
// so a few common spellings are recognised.
var headerAliases = map[string][]string{
	"name":                  {"name", "instrument", "instrument name"},
	"location":              {"location", "place"},
	"calibration_required":  {"calibration_required", "calibration required", "requires calibration"},
	"calibration_period":    {"calibration_period", "calibration period", "period", "period (days)"},
	"last_calibration_date": {"last_calibration_date", "last calibration date", "last calibrated", "calibrated"},
	"notes":                 {"notes", "note", "comments"},
}

// ReadCSV reads a tab or comma delimited file with a header row. UTF-8 is
// assumed unless the input starts with a byte order mark; spreadsheet
// programs commonly save "Unicode text" as UTF-16 with a BOM.
func ReadCSV(r io.Reader) (*Result, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode CSV: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("CSV file is empty")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := mapHeaders(headers)
	for _, required := range []string{"name", "location"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("CSV file missing required column %q", required)
		}
	}

	result := &Result{}
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				result.Errors = append(result.Errors, RowError{Line: perr.StartLine, Err: perr.Err})
				continue
			}
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if blank(fields) {
			continue
		}

		rec := columns.record(fields)
		inst, err := rec.instrument()
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Err: err})
			continue
		}
		result.Rows = append(result.Rows, Row{Line: line, Instrument: inst})
	}

	return result, nil
}

func detectDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.Count(header, []byte{'\t'}) >= bytes.Count(header, []byte{','}) && bytes.ContainsRune(header, '\t') {
		return '\t'
	}
	if bytes.Count(header, []byte{';'}) > bytes.Count(header, []byte{','}) {
		return ';'
	}
	return ','
}

type columnMap map[string]int

func mapHeaders(headers []string) columnMap {
	columns := columnMap{}
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(h))
		for field, aliases := range headerAliases {
			for _, alias := range aliases {
				if h == alias {
					if _, seen := columns[field]; !seen {
						columns[field] = i
					}
				}
			}
		}
	}
	return columns
}

func (c columnMap) value(fields []string, name string) (string, bool) {
	i, ok := c[name]
	if !ok || i >= len(fields) {
		return "", false
	}
	return strings.TrimSpace(fields[i]), true
}

func (c columnMap) record(fields []string) record {
	var rec record
	rec.Name, _ = c.value(fields, "name")
	rec.Location, _ = c.value(fields, "location")
	rec.CalibrationRequired, _ = c.value(fields, "calibration_required")
	rec.CalibrationPeriod, _ = c.value(fields, "calibration_period")
	rec.LastCalibrationDate, _ = c.value(fields, "last_calibration_date")
	if notes, ok := c.value(fields, "notes"); ok {
		rec.Notes = &notes
	}
	return rec
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
