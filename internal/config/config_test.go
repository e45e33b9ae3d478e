package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	configContent := `
server:
  port: 8080
  environment: production
inputs:
  patients_file: "/data/patients.csv"
  measurements_file: "/data/measurements.csv"
output:
  file: "/data/out/derived.csv"
storage:
  embedded:
    path: "/var/data/vitalstat"
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Environment != "production" {
		t.Errorf("environment = %s, want production", cfg.Server.Environment)
	}
	if cfg.Inputs.PatientsFile != "/data/patients.csv" {
		t.Errorf("patients file = %s", cfg.Inputs.PatientsFile)
	}
	if cfg.Inputs.MeasurementsFile != "/data/measurements.csv" {
		t.Errorf("measurements file = %s", cfg.Inputs.MeasurementsFile)
	}
	if cfg.Output.File != "/data/out/derived.csv" {
		t.Errorf("output file = %s", cfg.Output.File)
	}
	if cfg.Storage.Embedded == nil || cfg.Storage.Embedded.Path != "/var/data/vitalstat" {
		t.Errorf("storage config not loaded: %+v", cfg.Storage.Embedded)
	}
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("VITALSTAT_TEST_DATA_DIR", "/srv/clinical")

	configContent := `
inputs:
  patients_file: "${VITALSTAT_TEST_DATA_DIR}/patients.csv"
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Inputs.PatientsFile != "/srv/clinical/patients.csv" {
		t.Errorf("env var not expanded: %s", cfg.Inputs.PatientsFile)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg := LoadFromEnv()

	if cfg.Server.Port != 3008 {
		t.Errorf("default port = %d, want 3008", cfg.Server.Port)
	}
	if cfg.Inputs.PatientsFile != "data/sample_patients.csv" {
		t.Errorf("default patients file = %s", cfg.Inputs.PatientsFile)
	}
	if cfg.Inputs.MeasurementsFile != "data/measurements.csv" {
		t.Errorf("default measurements file = %s", cfg.Inputs.MeasurementsFile)
	}
	if cfg.Output.File != "data/derived_patient_status.csv" {
		t.Errorf("default output file = %s", cfg.Output.File)
	}
	if cfg.Storage.Embedded == nil || cfg.Storage.Embedded.Path != "data/vitalstat" {
		t.Errorf("default storage config: %+v", cfg.Storage.Embedded)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("PATIENTS_FILE", "/tmp/p.csv")
	t.Setenv("MEASUREMENTS_FILE", "/tmp/m.csv")
	t.Setenv("OUTPUT_FILE", "/tmp/out.csv")
	t.Setenv("STORAGE_PATH", "/tmp/store")

	cfg := LoadFromEnv()

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Inputs.PatientsFile != "/tmp/p.csv" {
		t.Errorf("patients file = %s", cfg.Inputs.PatientsFile)
	}
	if cfg.Inputs.MeasurementsFile != "/tmp/m.csv" {
		t.Errorf("measurements file = %s", cfg.Inputs.MeasurementsFile)
	}
	if cfg.Output.File != "/tmp/out.csv" {
		t.Errorf("output file = %s", cfg.Output.File)
	}
	if cfg.Storage.Embedded.Path != "/tmp/store" {
		t.Errorf("storage path = %s", cfg.Storage.Embedded.Path)
	}
}
