package eligibility

import (
	"strings"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
)

// The engine dispatches on criterion keys through these registries instead of
// a per-field if-ladder. Each entry binds a key to its patient accessor, the
// missing-field name reported when the value is absent, and the wording used
// in pass/fail messages.

// numericField describes a patient field constrained by a range criterion.
type numericField struct {
	label string
	unit  string
	get   func(*entities.Patient) *float64
}

func (f numericField) failLow(value float64, min float64) string {
	return f.label + " " + fmtNum(value) + f.unit + " < " + fmtNum(min) + f.unit
}

func (f numericField) failHigh(value float64, max float64) string {
	return f.label + " " + fmtNum(value) + f.unit + " > " + fmtNum(max) + f.unit
}

func (f numericField) pass(c entities.Criterion) string {
	return f.label + " within " + fmtBounds(c.Min, c.Max)
}

func (f numericField) failExcluded(value float64, c entities.Criterion) string {
	return f.label + " " + fmtNum(value) + f.unit + " within excluded " + fmtBounds(c.Min, c.Max)
}

func (f numericField) passExcluded(c entities.Criterion) string {
	return f.label + " outside excluded " + fmtBounds(c.Min, c.Max)
}

func floatFromInt(p *int) *float64 {
	if p == nil {
		return nil
	}
	v := float64(*p)
	return &v
}

// numericFields covers every range-constrained criterion key. The same
// registry backs the closeness distance used for ranking.
var numericFields = map[string]numericField{
	"age_years": {
		label: "Age",
		get:   func(p *entities.Patient) *float64 { return floatFromInt(p.AgeYears) },
	},
	"hba1c_percent": {
		label: "HbA1c",
		unit:  "%",
		get:   func(p *entities.Patient) *float64 { return p.HbA1cPercent },
	},
	"bmi": {
		label: "BMI",
		get:   func(p *entities.Patient) *float64 { return p.BMI },
	},
	"egfr": {
		label: "eGFR",
		get:   func(p *entities.Patient) *float64 { return p.EGFR },
	},
	"uacr_mg_g": {
		label: "UACR",
		get:   func(p *entities.Patient) *float64 { return p.UACRMgG },
	},
	"metformin_stable_months": {
		label: "Metformin stable months",
		get:   func(p *entities.Patient) *float64 { return p.MetforminStableMonths },
	},
}

// closenessKeys are the numeric fields that contribute to the ranking
// distance. Metformin stability is deliberately not one of them.
var closenessKeys = []string{"age_years", "hba1c_percent", "bmi", "egfr", "uacr_mg_g"}

// setField describes a patient term-set constrained by a membership criterion.
type setField struct {
	// field is the missing-field name reported when the set is absent;
	// diagnoses_any and medications_any/_all both collapse onto their
	// underlying patient field.
	field string
	get   func(*entities.Patient) []string
}

var setFields = map[string]setField{
	"diagnoses_any": {
		field: "diagnoses",
		get:   func(p *entities.Patient) []string { return p.Diagnoses },
	},
	"medications_any": {
		field: "medications",
		get:   func(p *entities.Patient) []string { return p.Medications },
	},
	"medications_all": {
		field: "medications",
		get:   func(p *entities.Patient) []string { return p.Medications },
	},
}

// setMessages returns the fail and pass wording for a membership check,
// which depends on the key and on whether it appears under inclusion or
// exclusion.
func setMessages(key string, terms []string, excluding bool) (fail, pass string) {
	joined := strings.Join(terms, ", ")
	switch {
	case key == "diagnoses_any":
		return "Does not have required diagnosis: " + joined, "Has required diagnosis"
	case key == "medications_all":
		return "Missing required meds: " + joined, "Has all required meds"
	case key == "medications_any" && excluding:
		return "Uses excluded meds: " + joined, "No excluded meds"
	case key == "medications_any":
		return "Does not use any of the allowed background meds", "Has an allowed background medication"
	}
	return key + " does not match: " + joined, key + " matches"
}

// absencePolicy says how a boolean exclusion treats an undocumented flag.
type absencePolicy int

const (
	// absenceMissing surfaces the undocumented flag as missing data.
	absenceMissing absencePolicy = iota

	// absencePass treats the undocumented flag as not present. Reserved for
	// the fixed comorbidity flag set, where charts only record the positive
	// finding.
	absencePass
)

// boolField describes a patient flag usable in a boolean exclusion.
type boolField struct {
	field    string
	onAbsent absencePolicy
	get      func(*entities.Patient) *bool
	fail     string
	pass     string
}

var boolFields = map[string]boolField{
	"pregnant": {
		field:    "pregnant",
		onAbsent: absenceMissing,
		get:      func(p *entities.Patient) *bool { return p.Pregnant },
		fail:     "Pregnant (exclusion)",
		pass:     "Not pregnant",
	},
	"type1_diabetes": {
		field:    "type1_diabetes",
		onAbsent: absenceMissing,
		get:      func(p *entities.Patient) *bool { return p.Type1Diabetes },
		fail:     "Type 1 diabetes (exclusion)",
		pass:     "Not type 1 diabetes",
	},
	"severe_renal_impairment": {
		field:    "severe_renal_impairment",
		onAbsent: absencePass,
		get:      func(p *entities.Patient) *bool { return p.SevereRenalImpairment },
		fail:     "severe_renal_impairment (exclusion)",
		pass:     "severe_renal_impairment not present",
	},
	"eating_disorder": {
		field:    "eating_disorder",
		onAbsent: absencePass,
		get:      func(p *entities.Patient) *bool { return p.EatingDisorder },
		fail:     "eating_disorder (exclusion)",
		pass:     "eating_disorder not present",
	},
	"dialysis": {
		field:    "dialysis",
		onAbsent: absencePass,
		get:      func(p *entities.Patient) *bool { return p.Dialysis },
		fail:     "dialysis (exclusion)",
		pass:     "dialysis not present",
	},
	"kidney_transplant": {
		field:    "kidney_transplant",
		onAbsent: absencePass,
		get:      func(p *entities.Patient) *bool { return p.KidneyTransplant },
		fail:     "kidney_transplant (exclusion)",
		pass:     "kidney_transplant not present",
	},
}
