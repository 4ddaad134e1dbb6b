// Package eligibility implements the deterministic rule-based screening
// engine and the trial ranking key. It is the decision authority of the
// system: the explanation layer may restate its results, never change them.
//
// Everything in this package is pure computation over its two input records.
// It performs no I/O, holds no state between calls, and is safe for
// concurrent use.
package eligibility

import (
	"strings"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
)

// criterionContext distinguishes inclusion from exclusion evaluation; the
// same membership evaluator flips its semantics between the two.
type criterionContext int

const (
	including criterionContext = iota
	excluding
)

// accumulator collects evaluator verdicts into the three result buckets.
type accumulator struct {
	missingFields []string
	passed        []string
	failed        []string
}

func (a *accumulator) add(c check) {
	switch c.outcome {
	case outcomePass:
		a.passed = append(a.passed, c.message)
	case outcomeFail:
		a.failed = append(a.failed, c.message)
	case outcomeMissing:
		a.missingFields = append(a.missingFields, c.field)
	case outcomeSkip:
	}
}

// Screen evaluates one patient against one trial and returns a fresh
// ScreenResult. It never fails: malformed criteria degrade to "no
// constraint" and missing patient data accumulates instead of aborting.
//
// Status precedence is fixed: any failed check forces Not eligible even when
// data is also missing; missing data alone yields Uncertain; otherwise the
// patient is Eligible.
func Screen(patient *entities.Patient, trial *entities.Trial) entities.ScreenResult {
	var acc accumulator

	evaluateCriteria(patient, trial.Inclusion, including, &acc)
	evaluateCriteria(patient, trial.Exclusion, excluding, &acc)

	missingFields := sortedUnique(acc.missingFields)
	passed := sortedUnique(acc.passed)
	failed := sortedUnique(acc.failed)

	var status entities.EligibilityStatus
	var reasons []string

	switch {
	case len(failed) > 0:
		status = entities.StatusNotEligible
		reasons = append(reasons, "One or more criteria failed: "+strings.Join(failed, "; "))
		if len(missingFields) > 0 {
			reasons = append(reasons, "Also missing info: "+strings.Join(missingFields, ", "))
		}
	case len(missingFields) > 0:
		status = entities.StatusUncertain
		reasons = append(reasons, "Missing required information: "+strings.Join(missingFields, ", "))
	default:
		status = entities.StatusEligible
		reasons = append(reasons, "All checked criteria passed, no exclusions triggered.")
	}

	return entities.ScreenResult{
		Status:         status,
		Reasons:        reasons,
		MissingFields:  missingFields,
		CriteriaPassed: passed,
		CriteriaFailed: failed,
	}
}

// evaluateCriteria dispatches every criterion in the set to its evaluator.
// The switch over CriterionKind is exhaustive; keys with no registered
// patient accessor are not evaluated (absence of a rule, not a failure).
func evaluateCriteria(patient *entities.Patient, criteria entities.CriteriaSet, ctx criterionContext, acc *accumulator) {
	for key, criterion := range criteria {
		switch criterion.Kind {
		case entities.CriterionRange:
			if field, ok := numericFields[key]; ok {
				if ctx == excluding {
					acc.add(evalRangeExclusion(patient, key, field, criterion))
				} else {
					acc.add(evalRange(patient, key, field, criterion))
				}
			}

		case entities.CriterionSetAny, entities.CriterionSetAll:
			if field, ok := setFields[key]; ok {
				acc.add(evalSetMembership(patient, key, field, criterion, ctx == excluding))
			}

		case entities.CriterionBoolFlag:
			if ctx != excluding {
				// Boolean flags only carry exclusion semantics.
				continue
			}
			if field, ok := boolFields[key]; ok {
				acc.add(evalBoolExclusion(patient, field, criterion))
			}

		case entities.CriterionEventWindow:
			acc.add(evalEventWindow(patient, criterion))
		}
	}
}
