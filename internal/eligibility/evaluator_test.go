package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
)

func TestEvalRange_BoundEdges(t *testing.T) {
	field := numericFields["hba1c_percent"]
	criterion := rangeCriterion(floatPtr(7), floatPtr(10))

	onBound := testPatient()
	onBound.HbA1cPercent = floatPtr(7)
	assert.Equal(t, outcomePass, evalRange(onBound, "hba1c_percent", field, criterion).outcome)

	below := testPatient()
	below.HbA1cPercent = floatPtr(6.4)
	got := evalRange(below, "hba1c_percent", field, criterion)
	assert.Equal(t, outcomeFail, got.outcome)
	assert.Equal(t, "HbA1c 6.4% < 7%", got.message)

	absent := testPatient()
	absent.HbA1cPercent = nil
	got = evalRange(absent, "hba1c_percent", field, criterion)
	assert.Equal(t, outcomeMissing, got.outcome)
	assert.Equal(t, "hba1c_percent", got.field)
}

func TestEvalRange_OnlyViolatedBoundReported(t *testing.T) {
	field := numericFields["age_years"]
	patient := testPatient()
	patient.AgeYears = intPtr(12)

	got := evalRange(patient, "age_years", field, rangeCriterion(floatPtr(18), floatPtr(75)))
	assert.Equal(t, "Age 12 < 18", got.message)
}

func TestEvalSetMembership_AllRequiresEveryTerm(t *testing.T) {
	patient := testPatient()
	patient.Medications = []string{"metformin"}
	criterion := entities.Criterion{
		Kind:  entities.CriterionSetAll,
		Terms: []string{"metformin", "statin"},
	}

	got := evalSetMembership(patient, "medications_all", setFields["medications_all"], criterion, false)
	assert.Equal(t, outcomeFail, got.outcome)
	assert.Equal(t, "Missing required meds: metformin, statin", got.message)

	patient.Medications = []string{"Metformin", "STATIN"}
	got = evalSetMembership(patient, "medications_all", setFields["medications_all"], criterion, false)
	assert.Equal(t, outcomePass, got.outcome)
}

func TestEvalSetMembership_NilSetIsMissing(t *testing.T) {
	patient := testPatient()
	patient.Diagnoses = nil
	criterion := entities.Criterion{Kind: entities.CriterionSetAny, Terms: []string{"type 2 diabetes"}}

	got := evalSetMembership(patient, "diagnoses_any", setFields["diagnoses_any"], criterion, false)
	assert.Equal(t, outcomeMissing, got.outcome)
	assert.Equal(t, "diagnoses", got.field)
}

func TestEvalBoolExclusion_Policies(t *testing.T) {
	declared := entities.Criterion{Kind: entities.CriterionBoolFlag, Flag: true}

	// Documented true always fails.
	patient := testPatient()
	patient.Dialysis = boolPtr(true)
	assert.Equal(t, outcomeFail, evalBoolExclusion(patient, boolFields["dialysis"], declared).outcome)

	// Undocumented comorbidity flag passes; undocumented pregnancy is missing.
	blank := &entities.Patient{}
	assert.Equal(t, outcomePass, evalBoolExclusion(blank, boolFields["dialysis"], declared).outcome)
	assert.Equal(t, outcomeMissing, evalBoolExclusion(blank, boolFields["pregnant"], declared).outcome)
}

func TestEvalEventWindow_BoundaryIsExcluded(t *testing.T) {
	criterion := entities.Criterion{Kind: entities.CriterionEventWindow, Max: floatPtr(6)}

	// An event exactly at the window edge still excludes.
	patient := testPatient()
	patient.RecentMIOrStrokeMonths = floatPtr(6)
	assert.Equal(t, outcomeFail, evalEventWindow(patient, criterion).outcome)

	patient.RecentMIOrStrokeMonths = floatPtr(7)
	got := evalEventWindow(patient, criterion)
	assert.Equal(t, outcomePass, got.outcome)
	assert.Equal(t, "MI/stroke not within exclusion window", got.message)
}
