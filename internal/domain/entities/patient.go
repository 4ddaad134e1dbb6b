package entities

// Sex is the administrative sex recorded for a patient.
type Sex string

const (
	SexFemale Sex = "female"
	SexMale   Sex = "male"
)

// Patient represents the structured clinical record screened against trials.
//
// Every optional field is a pointer: nil means "not documented", which is
// semantically different from a zero or false value and must surface as
// missing data during screening. The one exception is RecentMIOrStrokeMonths,
// where nil means "no known cardiovascular event".
type Patient struct {
	ID                     string   `json:"patient_id" db:"id"`
	AgeYears               *int     `json:"age_years" db:"age_years"`
	Sex                    *Sex     `json:"sex" db:"sex"`
	Diagnoses              []string `json:"diagnoses" db:"-"`
	HbA1cPercent           *float64 `json:"hba1c_percent" db:"hba1c_percent"`
	BMI                    *float64 `json:"bmi" db:"bmi"`
	EGFR                   *float64 `json:"egfr" db:"egfr"`
	UACRMgG                *float64 `json:"uacr_mg_g" db:"uacr_mg_g"`
	SmokingStatus          *string  `json:"smoking_status" db:"smoking_status"`
	Pregnant               *bool    `json:"pregnant" db:"pregnant"`
	Medications            []string `json:"medications" db:"-"`
	MetforminStableMonths  *float64 `json:"metformin_stable_months" db:"metformin_stable_months"`
	RecentMIOrStrokeMonths *float64 `json:"recent_mi_or_stroke_months" db:"recent_mi_or_stroke_months"`
	Type1Diabetes          *bool    `json:"type1_diabetes" db:"type1_diabetes"`
	SevereRenalImpairment  *bool    `json:"severe_renal_impairment" db:"severe_renal_impairment"`
	Dialysis               *bool    `json:"dialysis" db:"dialysis"`
	KidneyTransplant       *bool    `json:"kidney_transplant" db:"kidney_transplant"`
	EatingDisorder         *bool    `json:"eating_disorder" db:"eating_disorder"`
}

// ClinicalNote is the unstructured free-text note attached to a patient.
// It is never consulted by the rule engine; it is input for the explanation
// layer only.
type ClinicalNote struct {
	PatientID string `json:"patient_id" db:"patient_id"`
	Note      string `json:"note" db:"note"`
}
