package derive

import (
	"github.com/savegress/vitalstat/pkg/models"
)

// HeightTable imputes an assumed height from demographics. Height is not
// measured in this dataset, so every patient gets an average height for
// their sex and ethnicity, falling back to a sex-only average when the
// ethnicity is unknown or not covered.
//
// The tables are fixed reference data built once at construction and never
// mutated afterwards.
type HeightTable struct {
	bySexEthnicity map[heightKey]float64
	bySex          map[string]float64
}

type heightKey struct {
	sex       string
	ethnicity string
}

// NewHeightTable creates the height imputation table.
func NewHeightTable() *HeightTable {
	t := &HeightTable{
		bySexEthnicity: make(map[heightKey]float64),
		bySex:          make(map[string]float64),
	}
	t.initializeSexEthnicity()
	t.initializeSexFallback()
	return t
}

func (t *HeightTable) initializeSexEthnicity() {
	// Assumed average heights (cm) by sex and ethnicity
	t.bySexEthnicity[heightKey{models.SexMale, "White"}] = 175
	t.bySexEthnicity[heightKey{models.SexFemale, "White"}] = 162
	t.bySexEthnicity[heightKey{models.SexMale, "Black"}] = 174
	t.bySexEthnicity[heightKey{models.SexFemale, "Black"}] = 161
	t.bySexEthnicity[heightKey{models.SexMale, "Asian"}] = 169
	t.bySexEthnicity[heightKey{models.SexFemale, "Asian"}] = 157
	t.bySexEthnicity[heightKey{models.SexMale, "Mixed"}] = 173
	t.bySexEthnicity[heightKey{models.SexFemale, "Mixed"}] = 161
	t.bySexEthnicity[heightKey{models.SexMale, "Other"}] = 172
	t.bySexEthnicity[heightKey{models.SexFemale, "Other"}] = 160
}

func (t *HeightTable) initializeSexFallback() {
	// Every sex covered above must also be covered here, so a patient with
	// a known sex always gets a height.
	t.bySex[models.SexMale] = 174
	t.bySex[models.SexFemale] = 161
}

// Lookup returns the assumed height in cm for the given demographics, plus
// the provenance tag naming the tier that produced it. The height is nil
// when the sex itself is unrecognized; the tag then still reads
// "assumed_by_sex" because it records the tier that was attempted, not
// whether it succeeded.
func (t *HeightTable) Lookup(sex, ethnicity string) (*float64, models.HeightSource) {
	if ethnicity != "" {
		if cm, ok := t.bySexEthnicity[heightKey{sex, ethnicity}]; ok {
			return &cm, models.HeightSourceSexEthnicity
		}
	}
	if cm, ok := t.bySex[sex]; ok {
		return &cm, models.HeightSourceSex
	}
	return nil, models.HeightSourceSex
}
