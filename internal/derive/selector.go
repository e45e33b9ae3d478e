package derive

import (
	"sort"

	"github.com/savegress/vitalstat/pkg/models"
)

// LatestPerPatient reduces a measurement time series to exactly one record
// per patient: the record with the maximum date. When several records share
// a patient's maximum date, the earliest original row wins (the sort is
// stable and only orders by date), so selection is deterministic for a
// fixed input ordering.
func LatestPerPatient(measurements []models.Measurement) []models.Measurement {
	sorted := make([]models.Measurement, len(measurements))
	copy(sorted, measurements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	seen := make(map[string]bool, len(sorted))
	latest := make([]models.Measurement, 0, len(sorted))
	for _, m := range sorted {
		if seen[m.PatientID] {
			continue
		}
		seen[m.PatientID] = true
		latest = append(latest, m)
	}
	return latest
}
