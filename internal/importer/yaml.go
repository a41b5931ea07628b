package importer

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ReadYAML reads a document of the form
//
//	instruments:
//	  - name: Balance
//	    location: Lab 2
//	    calibration_period: 90
//	    last_calibration_date: 2024-01-10
func ReadYAML(r io.Reader) (*Result, error) {
	var doc struct {
		Instruments []yaml.Node `yaml:"instruments"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &Result{}, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	result := &Result{}
	for i := range doc.Instruments {
		node := &doc.Instruments[i]

		var rec record
		if err := node.Decode(&rec); err != nil {
			result.Errors = append(result.Errors, RowError{Line: node.Line, Err: err})
			continue
		}
		inst, err := rec.instrument()
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: node.Line, Err: err})
			continue
		}
		result.Rows = append(result.Rows, Row{Line: node.Line, Instrument: inst})
	}
	return result, nil
}
