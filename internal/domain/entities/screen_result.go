package entities

// EligibilityStatus is the tri-state verdict of the rule-based screen.
type EligibilityStatus string

const (
	StatusEligible    EligibilityStatus = "Eligible"
	StatusNotEligible EligibilityStatus = "Not eligible"
	StatusUncertain   EligibilityStatus = "Uncertain"
)

// Priority orders statuses for ranking: lower sorts first.
func (s EligibilityStatus) Priority() int {
	switch s {
	case StatusEligible:
		return 0
	case StatusUncertain:
		return 1
	case StatusNotEligible:
		return 2
	}
	return 99
}

// IsValid reports whether the status is one of the three defined values.
func (s EligibilityStatus) IsValid() bool {
	switch s {
	case StatusEligible, StatusNotEligible, StatusUncertain:
		return true
	}
	return false
}

// ScreenResult is the outcome of screening one patient against one trial.
// It is a value object: created fresh per evaluation, never mutated after
// it is returned, and owned by the caller.
type ScreenResult struct {
	Status         EligibilityStatus `json:"status"`
	Reasons        []string          `json:"reasons"`
	MissingFields  []string          `json:"missing_fields"`
	CriteriaPassed []string          `json:"criteria_passed"`
	CriteriaFailed []string          `json:"criteria_failed"`
}
