package models

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Sex codes recognized by the height imputation tables.
const (
	SexMale   = "M"
	SexFemale = "F"
)

// HeightSource indicates which imputation tier was used for a patient's
// assumed height.
type HeightSource string

const (
	HeightSourceSexEthnicity HeightSource = "assumed_by_sex_ethnicity"
	HeightSourceSex          HeightSource = "assumed_by_sex"
)

// WeightCategory is a BMI band.
type WeightCategory string

const (
	WeightUnderweight WeightCategory = "underweight"
	WeightNormal      WeightCategory = "normal"
	WeightOverweight  WeightCategory = "overweight"
	WeightObese       WeightCategory = "obese"
)

// BPCategory is a blood pressure band.
type BPCategory string

const (
	BPLow    BPCategory = "low"
	BPNormal BPCategory = "normal"
	BPHigh   BPCategory = "high"
)

// Numeric is a nullable numeric cell read from a tabular source. The raw
// text is retained so that downstream classification can distinguish an
// absent value from a malformed one: a malformed reading poisons the
// whole classification, an absent one does not.
type Numeric struct {
	Raw   string
	Value float64
	Valid bool
}

// NewNumeric returns a numeric cell holding v. A non-finite v yields a
// malformed cell, matching ParseNumeric.
func NewNumeric(v float64) Numeric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Numeric{Raw: strconv.FormatFloat(v, 'g', -1, 64)}
	}
	return Numeric{Raw: strconv.FormatFloat(v, 'f', -1, 64), Value: v, Valid: true}
}

// ParseNumeric parses a raw cell. An empty string is the null cell;
// unparseable text is kept as a malformed cell. Non-finite spellings such
// as "NaN" or "Inf" parse, but are not usable readings, so they are kept
// as malformed too.
func ParseNumeric(raw string) Numeric {
	if raw == "" {
		return Numeric{}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Numeric{Raw: raw}
	}
	return Numeric{Raw: raw, Value: v, Valid: true}
}

// IsNull reports whether the cell is absent.
func (n Numeric) IsNull() bool {
	return n.Raw == ""
}

// IsMalformed reports whether the cell is present but not a number.
func (n Numeric) IsMalformed() bool {
	return n.Raw != "" && !n.Valid
}

// Float returns the numeric value if the cell is present and well-formed.
func (n Numeric) Float() (float64, bool) {
	return n.Value, n.Valid
}

// String returns the raw cell text; malformed input is echoed unchanged.
func (n Numeric) String() string {
	return n.Raw
}

// MarshalJSON encodes well-formed cells as numbers, null cells as null
// and malformed cells as their raw text.
func (n Numeric) MarshalJSON() ([]byte, error) {
	if n.Valid {
		return json.Marshal(n.Value)
	}
	if n.Raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(n.Raw)
}

// UnmarshalJSON accepts a number, a string or null.
func (n *Numeric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = Numeric{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = NewNumeric(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*n = ParseNumeric(s)
	return nil
}

// Patient is one row of the demographic roster. Sex and ethnicity follow
// the roster's coding; either may be empty when unknown.
type Patient struct {
	PatientID string `json:"patient_id"`
	Sex       string `json:"sex,omitempty"`
	Ethnicity string `json:"ethnicity,omitempty"`
}

// Measurement is one timestamped clinical reading. A patient may have any
// number of measurements over time.
type Measurement struct {
	PatientID   string    `json:"patient_id"`
	Date        time.Time `json:"date"`
	BPSystolic  Numeric   `json:"bp_systolic"`
	BPDiastolic Numeric   `json:"bp_diastolic"`
	WeightKg    Numeric   `json:"weight_kg"`
}

// PatientStatus is the derived per-patient summary: the latest measurement
// joined onto the roster with imputed height, BMI and category bands.
type PatientStatus struct {
	PatientID       string          `json:"patient_id"`
	Sex             string          `json:"sex,omitempty"`
	Ethnicity       string          `json:"ethnicity,omitempty"`
	MeasurementDate *time.Time      `json:"measurement_date"`
	BPSystolic      Numeric         `json:"bp_systolic"`
	BPDiastolic     Numeric         `json:"bp_diastolic"`
	BPCategory      *BPCategory     `json:"bp_category"`
	WeightKg        Numeric         `json:"weight_kg"`
	HeightCm        *float64        `json:"height_cm"`
	HeightSource    HeightSource    `json:"height_source"`
	BMI             *float64        `json:"bmi"`
	WeightCategory  *WeightCategory `json:"weight_category"`
}
