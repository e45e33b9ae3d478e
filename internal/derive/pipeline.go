package derive

import (
	"github.com/savegress/vitalstat/pkg/models"
)

// Pipeline derives one status row per roster patient from the measurement
// time series. It holds no mutable state; Derive is pure and safe to call
// repeatedly.
type Pipeline struct {
	heights *HeightTable
}

// NewPipeline creates a derivation pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{heights: NewHeightTable()}
}

// Derive joins each roster patient to their latest measurement, imputes a
// height, and computes BMI plus weight and blood pressure bands. Every
// roster patient appears exactly once in the result, in roster order;
// patients without measurements get null measurement fields. Data-quality
// problems in a single record never fail the run, they only null that
// record's derived fields.
func (p *Pipeline) Derive(patients []models.Patient, measurements []models.Measurement) []models.PatientStatus {
	latest := LatestPerPatient(measurements)
	byPatient := make(map[string]models.Measurement, len(latest))
	for _, m := range latest {
		byPatient[m.PatientID] = m
	}

	statuses := make([]models.PatientStatus, 0, len(patients))
	for _, pt := range patients {
		st := models.PatientStatus{
			PatientID: pt.PatientID,
			Sex:       pt.Sex,
			Ethnicity: pt.Ethnicity,
		}

		if m, ok := byPatient[pt.PatientID]; ok {
			date := m.Date
			st.MeasurementDate = &date
			st.BPSystolic = m.BPSystolic
			st.BPDiastolic = m.BPDiastolic
			st.WeightKg = m.WeightKg
		}

		heightCm, source := p.heights.Lookup(pt.Sex, pt.Ethnicity)
		st.HeightCm = heightCm
		st.HeightSource = source

		var heightM *float64
		if heightCm != nil {
			hm := *heightCm / 100
			heightM = &hm
		}

		st.BMI = ComputeBMI(st.WeightKg, heightM)
		st.WeightCategory = ClassifyWeight(st.BMI)
		st.BPCategory = ClassifyBloodPressure(st.BPSystolic, st.BPDiastolic)

		statuses = append(statuses, st)
	}
	return statuses
}
