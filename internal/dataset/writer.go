package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/savegress/vitalstat/pkg/models"
)

// Header is the published column order of the derived table.
var Header = []string{
	"patient_id",
	"sex",
	"ethnicity",
	"measurement_date",
	"bp_systolic",
	"bp_diastolic",
	"bp_category",
	"weight_kg",
	"height_cm",
	"height_source",
	"bmi",
	"weight_category",
}

// WriteStatuses serializes the derived table to a CSV file, creating the
// destination directory if needed.
func WriteStatuses(path string, statuses []models.PatientStatus) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, st := range statuses {
		if err := writer.Write(statusRow(st)); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func statusRow(st models.PatientStatus) []string {
	return []string{
		st.PatientID,
		st.Sex,
		st.Ethnicity,
		formatDate(st.MeasurementDate),
		st.BPSystolic.String(),
		st.BPDiastolic.String(),
		formatBPCategory(st.BPCategory),
		st.WeightKg.String(),
		formatFloat(st.HeightCm),
		string(st.HeightSource),
		formatBMI(st.BMI),
		formatWeightCategory(st.WeightCategory),
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// BMI always carries one decimal place, matching its rounding contract.
func formatBMI(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func formatBPCategory(c *models.BPCategory) string {
	if c == nil {
		return ""
	}
	return string(*c)
}

func formatWeightCategory(c *models.WeightCategory) string {
	if c == nil {
		return ""
	}
	return string(*c)
}
