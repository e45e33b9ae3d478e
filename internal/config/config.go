package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for VitalStat
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Inputs  InputsConfig  `yaml:"inputs"`
	Output  OutputConfig  `yaml:"output"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
}

// InputsConfig names the two source tables
type InputsConfig struct {
	PatientsFile     string `yaml:"patients_file"`
	MeasurementsFile string `yaml:"measurements_file"`
}

// OutputConfig holds the derived table destination
type OutputConfig struct {
	File string `yaml:"file"`
}

// StorageConfig holds run history storage configuration
type StorageConfig struct {
	Embedded *EmbeddedStorageConfig `yaml:"embedded,omitempty"`
}

// EmbeddedStorageConfig configures the embedded SQLite store
type EmbeddedStorageConfig struct {
	Path string `yaml:"path"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnvInt("PORT", 3008),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Inputs: InputsConfig{
			PatientsFile:     getEnv("PATIENTS_FILE", "data/sample_patients.csv"),
			MeasurementsFile: getEnv("MEASUREMENTS_FILE", "data/measurements.csv"),
		},
		Output: OutputConfig{
			File: getEnv("OUTPUT_FILE", "data/derived_patient_status.csv"),
		},
		Storage: StorageConfig{
			Embedded: &EmbeddedStorageConfig{
				Path: getEnv("STORAGE_PATH", "data/vitalstat"),
			},
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
