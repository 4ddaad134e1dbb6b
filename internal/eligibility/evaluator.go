package eligibility

import (
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
)

// outcome is the tri-state result of a single criterion check.
type outcome int

const (
	outcomePass outcome = iota
	outcomeFail
	outcomeMissing
	// outcomeSkip means the criterion does not apply (undeclared flag,
	// unknown key) and contributes nothing to any bucket.
	outcomeSkip
)

// check carries one evaluator verdict: a pass/fail message, or the name of
// the patient field that was missing.
type check struct {
	outcome outcome
	message string
	field   string
}

func pass(msg string) check { return check{outcome: outcomePass, message: msg} }
func fail(msg string) check { return check{outcome: outcomeFail, message: msg} }
func missing(field string) check {
	return check{outcome: outcomeMissing, field: field}
}

var skip = check{outcome: outcomeSkip}

// evalRange checks a numeric patient value against optional [min,max] bounds.
// An absent value is missing data; an absent bound is no constraint on that
// side, so a criterion with neither bound always passes when the value is
// documented.
func evalRange(p *entities.Patient, key string, field numericField, c entities.Criterion) check {
	value := field.get(p)
	if value == nil {
		return missing(key)
	}
	if c.Min != nil && *value < *c.Min {
		return fail(field.failLow(*value, *c.Min))
	}
	if c.Max != nil && *value > *c.Max {
		return fail(field.failHigh(*value, *c.Max))
	}
	return pass(field.pass(c))
}

// evalRangeExclusion checks a numeric value against an exclusion window. A
// value inside the declared bounds triggers the exclusion; an absent value is
// missing data, since the exclusion cannot be ruled out.
func evalRangeExclusion(p *entities.Patient, key string, field numericField, c entities.Criterion) check {
	if c.Min == nil && c.Max == nil {
		return skip
	}
	value := field.get(p)
	if value == nil {
		return missing(key)
	}
	if c.Min != nil && *value < *c.Min {
		return pass(field.passExcluded(c))
	}
	if c.Max != nil && *value > *c.Max {
		return pass(field.passExcluded(c))
	}
	return fail(field.failExcluded(*value, c))
}

// evalSetMembership checks a term-set criterion. Matching is exact after
// lowercase normalization on both sides.
func evalSetMembership(p *entities.Patient, key string, field setField, c entities.Criterion, excluding bool) check {
	values := field.get(p)
	if values == nil {
		return missing(field.field)
	}

	normalized := normalizeTerms(values)
	matched := hasAny(normalized, c.Terms)
	if c.Kind == entities.CriterionSetAll {
		matched = hasAll(normalized, c.Terms)
	}

	failMsg, passMsg := setMessages(key, c.Terms, excluding)
	if excluding {
		// Under exclusion a match disqualifies.
		if matched {
			return fail(failMsg)
		}
		return pass(passMsg)
	}
	if !matched {
		return fail(failMsg)
	}
	return pass(passMsg)
}

// evalBoolExclusion checks a declared boolean exclusion flag. The absence
// policy is field-specific: pregnancy and type 1 diabetes must be documented,
// while the fixed comorbidity flags treat an undocumented value as absent
// disease.
func evalBoolExclusion(p *entities.Patient, field boolField, c entities.Criterion) check {
	if !c.Flag {
		// The trial did not actually declare the exclusion.
		return skip
	}

	value := field.get(p)
	if value == nil {
		if field.onAbsent == absencePass {
			return pass(field.pass)
		}
		return missing(field.field)
	}
	if *value {
		return fail(field.fail)
	}
	return pass(field.pass)
}

// evalEventWindow checks the cardiovascular event recency exclusion. A nil
// months-since-event value means no documented event and therefore passes;
// this is the one field where absence is not missing data.
func evalEventWindow(p *entities.Patient, c entities.Criterion) check {
	monthsSince := p.RecentMIOrStrokeMonths
	if monthsSince == nil {
		return pass("No documented recent MI/stroke")
	}
	if c.Max != nil && *monthsSince <= *c.Max {
		return fail("Recent MI/stroke within " + fmtNum(*c.Max) + " months")
	}
	return pass("MI/stroke not within exclusion window")
}
