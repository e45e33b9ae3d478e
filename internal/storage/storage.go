package storage

import (
	"context"
	"errors"
	"time"

	"github.com/savegress/vitalstat/pkg/models"
)

// ErrRunNotFound is returned when a run ID has no stored run.
var ErrRunNotFound = errors.New("run not found")

// Run records one derivation run: which files it read, where the derived
// table went, and how many rows flowed through.
type Run struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	PatientsFile     string    `json:"patients_file"`
	MeasurementsFile string    `json:"measurements_file"`
	OutputFile       string    `json:"output_file"`
	PatientCount     int       `json:"patient_count"`
	MeasurementCount int       `json:"measurement_count"`
	StatusCount      int       `json:"status_count"`
}

// RunStore is the interface for derivation run history backends.
type RunStore interface {
	// SaveRun stores a run together with its derived rows.
	SaveRun(ctx context.Context, run *Run, statuses []models.PatientStatus) error

	// GetRun returns a run by ID.
	GetRun(ctx context.Context, id string) (*Run, error)

	// LatestRun returns the most recently recorded run.
	LatestRun(ctx context.Context) (*Run, error)

	// ListRuns returns up to limit runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// Statuses returns the derived rows of a run in their original order.
	Statuses(ctx context.Context, runID string) ([]models.PatientStatus, error)

	// Close closes the store.
	Close() error
}
