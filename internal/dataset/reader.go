package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/savegress/vitalstat/pkg/models"
)

// SchemaError reports a required column missing from an input file. It is
// raised before any derivation runs.
type SchemaError struct {
	File   string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required column %q", e.File, e.Column)
}

// RowError reports a row that cannot be parsed, such as an unreadable date.
type RowError struct {
	File string
	Row  int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s: row %d: %v", e.File, e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

var patientColumns = []string{"patient_id", "sex", "ethnicity"}

var measurementColumns = []string{"patient_id", "date", "bp_systolic", "bp_diastolic", "weight_kg"}

// Timestamp layouts accepted for the measurement date column.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ReadPatients loads the patient roster from a CSV file.
func ReadPatients(path string) ([]models.Patient, error) {
	rows, idx, err := readTable(path, patientColumns)
	if err != nil {
		return nil, err
	}

	patients := make([]models.Patient, 0, len(rows))
	for _, row := range rows {
		patients = append(patients, models.Patient{
			PatientID: row[idx["patient_id"]],
			Sex:       row[idx["sex"]],
			Ethnicity: row[idx["ethnicity"]],
		})
	}
	return patients, nil
}

// ReadMeasurements loads the measurement time series from a CSV file. The
// date column must parse for every row; a bad date is a format error, not a
// data-quality null.
func ReadMeasurements(path string) ([]models.Measurement, error) {
	rows, idx, err := readTable(path, measurementColumns)
	if err != nil {
		return nil, err
	}

	measurements := make([]models.Measurement, 0, len(rows))
	for i, row := range rows {
		date, err := parseDate(row[idx["date"]])
		if err != nil {
			return nil, &RowError{File: path, Row: i + 2, Err: err}
		}
		measurements = append(measurements, models.Measurement{
			PatientID:   row[idx["patient_id"]],
			Date:        date,
			BPSystolic:  models.ParseNumeric(row[idx["bp_systolic"]]),
			BPDiastolic: models.ParseNumeric(row[idx["bp_diastolic"]]),
			WeightKg:    models.ParseNumeric(row[idx["weight_kg"]]),
		})
	}
	return measurements, nil
}

// readTable reads a CSV file and validates that every required column is
// present, returning the data rows and a column name -> index map.
func readTable(path string, required []string) ([][]string, map[string]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, &SchemaError{File: path, Column: required[0]}
	}
	if err != nil {
		return nil, nil, wrapReadError(path, err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, nil, &SchemaError{File: path, Column: col}
		}
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, wrapReadError(path, err)
		}
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		rows = append(rows, row)
	}
	return rows, idx, nil
}

// wrapReadError classifies a csv reader failure. Structural problems such
// as a ragged row or broken quoting carry a line number and become a
// RowError; anything else (an I/O failure mid-read) is passed through.
func wrapReadError(path string, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &RowError{File: path, Row: parseErr.Line, Err: parseErr.Err}
	}
	return fmt.Errorf("reading %s: %w", path, err)
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}
