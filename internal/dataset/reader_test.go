package dataset

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestReadPatients(t *testing.T) {
	path := writeFile(t, "patients.csv", `patient_id,sex,ethnicity
p1,M,White
p2,F,
p3,,Asian
`)

	patients, err := ReadPatients(path)
	if err != nil {
		t.Fatalf("ReadPatients: %v", err)
	}
	if len(patients) != 3 {
		t.Fatalf("expected 3 patients, got %d", len(patients))
	}
	if patients[0].PatientID != "p1" || patients[0].Sex != "M" || patients[0].Ethnicity != "White" {
		t.Errorf("unexpected first patient: %+v", patients[0])
	}
	if patients[1].Ethnicity != "" {
		t.Errorf("expected empty ethnicity, got %q", patients[1].Ethnicity)
	}
	if patients[2].Sex != "" {
		t.Errorf("expected empty sex, got %q", patients[2].Sex)
	}
}

func TestReadPatients_MissingFile(t *testing.T) {
	_, err := ReadPatients(filepath.Join(t.TempDir(), "nope.csv"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error should wrap fs.ErrNotExist, got %v", err)
	}
}

func TestReadPatients_ColumnOrderIrrelevant(t *testing.T) {
	path := writeFile(t, "patients.csv", `ethnicity,patient_id,sex
Black,p9,F
`)

	patients, err := ReadPatients(path)
	if err != nil {
		t.Fatalf("ReadPatients: %v", err)
	}
	if patients[0].PatientID != "p9" || patients[0].Sex != "F" || patients[0].Ethnicity != "Black" {
		t.Errorf("columns bound by name failed: %+v", patients[0])
	}
}

func TestReadMeasurements(t *testing.T) {
	path := writeFile(t, "measurements.csv", `patient_id,date,bp_systolic,bp_diastolic,weight_kg
p1,2021-01-01,120,80,70.5
p1,2021-06-01T08:30:00Z,,,
p2,2021-02-03,not-a-number,90,
`)

	measurements, err := ReadMeasurements(path)
	if err != nil {
		t.Fatalf("ReadMeasurements: %v", err)
	}
	if len(measurements) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(measurements))
	}

	m := measurements[0]
	if v, ok := m.BPSystolic.Float(); !ok || v != 120 {
		t.Errorf("systolic = %v, want 120", m.BPSystolic)
	}
	if v, ok := m.WeightKg.Float(); !ok || v != 70.5 {
		t.Errorf("weight = %v, want 70.5", m.WeightKg)
	}
	if !m.Date.Equal(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", m.Date)
	}

	if !measurements[1].BPSystolic.IsNull() {
		t.Error("empty cell should read as null")
	}
	if measurements[1].Date.Hour() != 8 {
		t.Errorf("RFC3339 timestamp not parsed: %v", measurements[1].Date)
	}

	if !measurements[2].BPSystolic.IsMalformed() {
		t.Error("non-numeric cell should read as malformed, not null")
	}
	if measurements[2].BPSystolic.String() != "not-a-number" {
		t.Errorf("malformed cell lost its raw text: %q", measurements[2].BPSystolic.String())
	}
}

func TestReadMeasurements_MissingDateColumn(t *testing.T) {
	path := writeFile(t, "measurements.csv", `patient_id,bp_systolic,bp_diastolic,weight_kg
p1,120,80,70
`)

	_, err := ReadMeasurements(path)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if schemaErr.Column != "date" {
		t.Errorf("missing column = %q, want date", schemaErr.Column)
	}
}

func TestReadMeasurements_BadDate(t *testing.T) {
	path := writeFile(t, "measurements.csv", `patient_id,date,bp_systolic,bp_diastolic,weight_kg
p1,yesterday,120,80,70
`)

	_, err := ReadMeasurements(path)
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("expected RowError, got %v", err)
	}
	if rowErr.Row != 2 {
		t.Errorf("row = %d, want 2", rowErr.Row)
	}
}

func TestReadMeasurements_EmptyDate(t *testing.T) {
	path := writeFile(t, "measurements.csv", `patient_id,date,bp_systolic,bp_diastolic,weight_kg
p1,,120,80,70
`)

	_, err := ReadMeasurements(path)
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("expected RowError for empty date, got %v", err)
	}
}

func TestReadMeasurements_NonFiniteCells(t *testing.T) {
	path := writeFile(t, "measurements.csv", `patient_id,date,bp_systolic,bp_diastolic,weight_kg
p1,2021-01-01,NaN,80,Inf
`)

	measurements, err := ReadMeasurements(path)
	if err != nil {
		t.Fatalf("ReadMeasurements: %v", err)
	}
	m := measurements[0]
	if !m.BPSystolic.IsMalformed() {
		t.Errorf("NaN cell should read as malformed, got %+v", m.BPSystolic)
	}
	if !m.WeightKg.IsMalformed() {
		t.Errorf("Inf cell should read as malformed, got %+v", m.WeightKg)
	}
}

func TestReadPatients_RaggedRow(t *testing.T) {
	path := writeFile(t, "patients.csv", `patient_id,sex,ethnicity
p1,M,White
p2,F
`)

	_, err := ReadPatients(path)
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("expected RowError for a ragged row, got %v", err)
	}
	if rowErr.Row != 3 {
		t.Errorf("row = %d, want 3", rowErr.Row)
	}
}

func TestReadPatients_BrokenQuoting(t *testing.T) {
	path := writeFile(t, "patients.csv", `patient_id,sex,ethnicity
"p1,M,White
`)

	_, err := ReadPatients(path)
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("expected RowError for broken quoting, got %v", err)
	}
}

func TestReadTable_EmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", "")

	_, err := ReadPatients(path)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError for empty file, got %v", err)
	}
}
