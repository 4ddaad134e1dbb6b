package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriteriaSet_DecodeInfersKinds(t *testing.T) {
	payload := []byte(`{
		"trial_id": "NCT-T2D-0001",
		"title": "Semaglutide add-on in uncontrolled T2D",
		"phase": "Phase 3",
		"inclusion": {
			"age_years": {"min": 18, "max": 75},
			"hba1c_percent": {"min": 7.0, "max": 10.5},
			"diagnoses_any": ["type 2 diabetes"],
			"medications_all": ["metformin"]
		},
		"exclusion": {
			"pregnant": true,
			"egfr": {"max": 30},
			"recent_mi_or_stroke_months": {"max": 6},
			"medications_any": ["insulin"]
		}
	}`)

	var trial Trial
	require.NoError(t, json.Unmarshal(payload, &trial))

	age := trial.Inclusion["age_years"]
	assert.Equal(t, CriterionRange, age.Kind)
	require.NotNil(t, age.Min)
	require.NotNil(t, age.Max)
	assert.Equal(t, 18.0, *age.Min)
	assert.Equal(t, 75.0, *age.Max)

	assert.Equal(t, CriterionSetAny, trial.Inclusion["diagnoses_any"].Kind)
	assert.Equal(t, CriterionSetAll, trial.Inclusion["medications_all"].Kind)
	assert.Equal(t, []string{"metformin"}, trial.Inclusion["medications_all"].Terms)

	pregnant := trial.Exclusion["pregnant"]
	assert.Equal(t, CriterionBoolFlag, pregnant.Kind)
	assert.True(t, pregnant.Flag)

	// Open-ended range keeps the unset side nil.
	egfr := trial.Exclusion["egfr"]
	assert.Equal(t, CriterionRange, egfr.Kind)
	assert.Nil(t, egfr.Min)

	// Same object shape as a range, but the key carries event semantics.
	event := trial.Exclusion["recent_mi_or_stroke_months"]
	assert.Equal(t, CriterionEventWindow, event.Kind)
	require.NotNil(t, event.Max)
	assert.Equal(t, 6.0, *event.Max)

	assert.Equal(t, CriterionSetAny, trial.Exclusion["medications_any"].Kind)
}

func TestCriteriaSet_RoundTrip(t *testing.T) {
	original := CriteriaSet{
		"age_years":                  {Kind: CriterionRange, Min: ptr(18.0), Max: ptr(75.0)},
		"diagnoses_any":              {Kind: CriterionSetAny, Terms: []string{"type 2 diabetes"}},
		"medications_all":            {Kind: CriterionSetAll, Terms: []string{"metformin", "sglt2 inhibitor"}},
		"type1_diabetes":             {Kind: CriterionBoolFlag, Flag: true},
		"recent_mi_or_stroke_months": {Kind: CriterionEventWindow, Max: ptr(6.0)},
	}

	encoded, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded CriteriaSet
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, original, decoded)
}

func TestCriteriaSet_RejectsUnsupportedShapes(t *testing.T) {
	var cs CriteriaSet
	err := json.Unmarshal([]byte(`{"age_years": 42}`), &cs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `criterion "age_years"`)

	err = json.Unmarshal([]byte(`{"kind": {"unexpected": null}}`), &cs)
	assert.NoError(t, err, "unknown object-shaped keys decode as open ranges")
}

func TestEligibilityStatus_Priority(t *testing.T) {
	assert.Equal(t, 0, StatusEligible.Priority())
	assert.Equal(t, 1, StatusUncertain.Priority())
	assert.Equal(t, 2, StatusNotEligible.Priority())
	assert.False(t, EligibilityStatus("Maybe").IsValid())
}

func ptr(v float64) *float64 { return &v }
