package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/savegress/vitalstat/pkg/models"
)

// EmbeddedStore is a SQLite-backed run history store.
type EmbeddedStore struct {
	db     *sql.DB
	dbPath string
}

// NewEmbeddedStore creates a new embedded store under dataPath.
func NewEmbeddedStore(dataPath string) (*EmbeddedStore, error) {
	// Ensure directory exists
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataPath, "runs.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &EmbeddedStore{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *EmbeddedStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		patients_file TEXT NOT NULL,
		measurements_file TEXT NOT NULL,
		output_file TEXT NOT NULL,
		patient_count INTEGER NOT NULL,
		measurement_count INTEGER NOT NULL,
		status_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS statuses (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		patient_id TEXT NOT NULL,
		sex TEXT NOT NULL,
		ethnicity TEXT NOT NULL,
		measurement_date INTEGER,
		bp_systolic TEXT NOT NULL,
		bp_diastolic TEXT NOT NULL,
		bp_category TEXT,
		weight_kg TEXT NOT NULL,
		height_cm REAL,
		height_source TEXT NOT NULL,
		bmi REAL,
		weight_category TEXT,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_statuses_patient ON statuses(patient_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores a run and its derived rows in one transaction.
func (s *EmbeddedStore) SaveRun(ctx context.Context, run *Run, statuses []models.PatientStatus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, patients_file, measurements_file, output_file,
			patient_count, measurement_count, status_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixNano(), run.PatientsFile, run.MeasurementsFile,
		run.OutputFile, run.PatientCount, run.MeasurementCount, run.StatusCount,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO statuses (run_id, seq, patient_id, sex, ethnicity, measurement_date,
			bp_systolic, bp_diastolic, bp_category, weight_kg, height_cm, height_source,
			bmi, weight_category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, st := range statuses {
		_, err = stmt.ExecContext(ctx,
			run.ID, i, st.PatientID, st.Sex, st.Ethnicity,
			nullTime(st.MeasurementDate),
			st.BPSystolic.String(), st.BPDiastolic.String(),
			nullBPCategory(st.BPCategory),
			st.WeightKg.String(),
			nullFloat(st.HeightCm),
			string(st.HeightSource),
			nullFloat(st.BMI),
			nullWeightCategory(st.WeightCategory),
		)
		if err != nil {
			return fmt.Errorf("inserting status row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetRun returns a run by ID.
func (s *EmbeddedStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, patients_file, measurements_file, output_file,
			patient_count, measurement_count, status_count
		FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// LatestRun returns the most recently recorded run.
func (s *EmbeddedStore) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, patients_file, measurements_file, output_file,
			patient_count, measurement_count, status_count
		FROM runs ORDER BY created_at DESC LIMIT 1`)
	return scanRun(row)
}

// ListRuns returns up to limit runs, newest first.
func (s *EmbeddedStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, patients_file, measurements_file, output_file,
			patient_count, measurement_count, status_count
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Statuses returns the derived rows of a run in their original order.
func (s *EmbeddedStore) Statuses(ctx context.Context, runID string) ([]models.PatientStatus, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT patient_id, sex, ethnicity, measurement_date, bp_systolic, bp_diastolic,
			bp_category, weight_kg, height_cm, height_source, bmi, weight_category
		FROM statuses WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []models.PatientStatus
	for rows.Next() {
		var (
			st        models.PatientStatus
			date      sql.NullInt64
			sysRaw    string
			diaRaw    string
			weightRaw string
			bpCat     sql.NullString
			heightCm  sql.NullFloat64
			heightSrc string
			bmi       sql.NullFloat64
			weightCat sql.NullString
		)
		err := rows.Scan(&st.PatientID, &st.Sex, &st.Ethnicity, &date, &sysRaw, &diaRaw,
			&bpCat, &weightRaw, &heightCm, &heightSrc, &bmi, &weightCat)
		if err != nil {
			return nil, err
		}

		if date.Valid {
			t := time.Unix(0, date.Int64).UTC()
			st.MeasurementDate = &t
		}
		st.BPSystolic = models.ParseNumeric(sysRaw)
		st.BPDiastolic = models.ParseNumeric(diaRaw)
		st.WeightKg = models.ParseNumeric(weightRaw)
		if bpCat.Valid {
			c := models.BPCategory(bpCat.String)
			st.BPCategory = &c
		}
		if heightCm.Valid {
			v := heightCm.Float64
			st.HeightCm = &v
		}
		st.HeightSource = models.HeightSource(heightSrc)
		if bmi.Valid {
			v := bmi.Float64
			st.BMI = &v
		}
		if weightCat.Valid {
			c := models.WeightCategory(weightCat.String)
			st.WeightCategory = &c
		}
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}

// Close closes the store.
func (s *EmbeddedStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var createdAt int64
	err := row.Scan(&run.ID, &createdAt, &run.PatientsFile, &run.MeasurementsFile,
		&run.OutputFile, &run.PatientCount, &run.MeasurementCount, &run.StatusCount)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	run.CreatedAt = time.Unix(0, createdAt).UTC()
	return &run, nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullBPCategory(c *models.BPCategory) interface{} {
	if c == nil {
		return nil
	}
	return string(*c)
}

func nullWeightCategory(c *models.WeightCategory) interface{} {
	if c == nil {
		return nil
	}
	return string(*c)
}
