package derive

import (
	"github.com/shopspring/decimal"

	"github.com/savegress/vitalstat/pkg/models"
)

// Blood pressure thresholds (mmHg).
const (
	bpSystolicHigh  = 140
	bpDiastolicHigh = 90
	bpSystolicLow   = 90
	bpDiastolicLow  = 60
)

// BMI band boundaries; each band is closed on its lower end.
const (
	bmiUnderweightBelow = 18.5
	bmiNormalBelow      = 25.0
	bmiOverweightBelow  = 30.0
)

// ComputeBMI returns weight / height² rounded to one decimal place, or nil
// when the weight is absent or malformed, the height is unknown, or the
// height is zero. Rounding is half away from zero (decimal.Round), so a raw
// value of 25.25 becomes 25.3.
func ComputeBMI(weight models.Numeric, heightM *float64) *float64 {
	w, ok := weight.Float()
	if !ok || heightM == nil || *heightM == 0 {
		return nil
	}
	h := decimal.NewFromFloat(*heightM)
	bmi, _ := decimal.NewFromFloat(w).Div(h.Mul(h)).Round(1).Float64()
	return &bmi
}

// ClassifyWeight maps a BMI to its band, or nil for an unknown BMI.
func ClassifyWeight(bmi *float64) *models.WeightCategory {
	if bmi == nil {
		return nil
	}
	var cat models.WeightCategory
	switch {
	case *bmi < bmiUnderweightBelow:
		cat = models.WeightUnderweight
	case *bmi < bmiNormalBelow:
		cat = models.WeightNormal
	case *bmi < bmiOverweightBelow:
		cat = models.WeightOverweight
	default:
		cat = models.WeightObese
	}
	return &cat
}

// ClassifyBloodPressure maps a systolic/diastolic pair to its band. The
// result is nil when both readings are absent, or when any present reading
// is malformed. High takes precedence over low: systolic 150 with
// diastolic 55 is "high".
func ClassifyBloodPressure(systolic, diastolic models.Numeric) *models.BPCategory {
	if systolic.IsNull() && diastolic.IsNull() {
		return nil
	}
	if systolic.IsMalformed() || diastolic.IsMalformed() {
		return nil
	}

	sys, hasSys := systolic.Float()
	dia, hasDia := diastolic.Float()

	var cat models.BPCategory
	switch {
	case (hasSys && sys >= bpSystolicHigh) || (hasDia && dia >= bpDiastolicHigh):
		cat = models.BPHigh
	case (hasSys && sys < bpSystolicLow) || (hasDia && dia < bpDiastolicLow):
		cat = models.BPLow
	default:
		cat = models.BPNormal
	}
	return &cat
}
