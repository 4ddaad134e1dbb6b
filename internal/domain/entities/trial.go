package entities

import (
	"encoding/json"
	"fmt"
	"time"
)

// CriterionKind tags the variant of a trial criterion.
type CriterionKind string

const (
	// CriterionRange constrains a numeric patient field to [Min, Max].
	CriterionRange CriterionKind = "range"

	// CriterionSetAny requires at least one of Terms in the patient's set.
	CriterionSetAny CriterionKind = "set_any"

	// CriterionSetAll requires every one of Terms in the patient's set.
	CriterionSetAll CriterionKind = "set_all"

	// CriterionBoolFlag excludes patients for whom the flagged field is true.
	CriterionBoolFlag CriterionKind = "bool_flag"

	// CriterionEventWindow excludes patients whose months-since-event value
	// falls at or within Max months. An undocumented event counts as no event.
	CriterionEventWindow CriterionKind = "event_window"
)

// Criterion is a single typed constraint within a trial's inclusion or
// exclusion set. Only the fields relevant to Kind are populated; an unset
// bound means "no constraint on that side".
type Criterion struct {
	Kind  CriterionKind `json:"kind"`
	Min   *float64      `json:"min,omitempty"`
	Max   *float64      `json:"max,omitempty"`
	Terms []string      `json:"terms,omitempty"`
	Flag  bool          `json:"flag,omitempty"`
}

// CriteriaSet maps a criterion key (a patient field name, optionally suffixed
// with _any/_all) to its constraint. Keys absent from the set are simply not
// evaluated.
type CriteriaSet map[string]Criterion

// Trial represents a clinical trial with its eligibility rule sets.
type Trial struct {
	ID         string      `json:"trial_id" db:"id"`
	Title      string      `json:"title" db:"title"`
	Phase      string      `json:"phase" db:"phase"`
	Conditions []string    `json:"conditions,omitempty" db:"-"`
	Inclusion  CriteriaSet `json:"inclusion" db:"-"`
	Exclusion  CriteriaSet `json:"exclusion" db:"-"`
	IsActive   bool        `json:"is_active" db:"is_active"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

// TrialSearchHit is one full-text search result over the trial index.
type TrialSearchHit struct {
	TrialID    string   `json:"trial_id"`
	Title      string   `json:"title"`
	Phase      string   `json:"phase"`
	Conditions []string `json:"conditions,omitempty"`
	Score      float64  `json:"score"`
}

// rangeBounds is the wire shape of a numeric constraint.
type rangeBounds struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// UnmarshalJSON decodes the compact trial wire format, inferring each
// criterion's kind from the shape of its value and its key:
//
//	{"age_years": {"min": 18, "max": 75}}   -> range
//	{"diagnoses_any": ["type 2 diabetes"]}  -> set_any (set_all for _all keys)
//	{"pregnant": true}                      -> bool_flag
//	{"recent_mi_or_stroke_months": {"max": 6}} -> event_window
func (cs *CriteriaSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(CriteriaSet, len(raw))
	for key, value := range raw {
		criterion, err := decodeCriterion(key, value)
		if err != nil {
			return fmt.Errorf("criterion %q: %w", key, err)
		}
		out[key] = criterion
	}

	*cs = out
	return nil
}

// MarshalJSON re-encodes the set in the same compact wire format.
func (cs CriteriaSet) MarshalJSON() ([]byte, error) {
	raw := make(map[string]interface{}, len(cs))
	for key, c := range cs {
		switch c.Kind {
		case CriterionRange, CriterionEventWindow:
			raw[key] = rangeBounds{Min: c.Min, Max: c.Max}
		case CriterionSetAny, CriterionSetAll:
			raw[key] = c.Terms
		case CriterionBoolFlag:
			raw[key] = c.Flag
		default:
			return nil, fmt.Errorf("criterion %q: unknown kind %q", key, c.Kind)
		}
	}
	return json.Marshal(raw)
}

func decodeCriterion(key string, value json.RawMessage) (Criterion, error) {
	trimmed := firstNonSpace(value)

	switch trimmed {
	case '{':
		var bounds rangeBounds
		if err := json.Unmarshal(value, &bounds); err != nil {
			return Criterion{}, err
		}
		kind := CriterionRange
		if key == EventWindowKey {
			kind = CriterionEventWindow
		}
		return Criterion{Kind: kind, Min: bounds.Min, Max: bounds.Max}, nil

	case '[':
		var terms []string
		if err := json.Unmarshal(value, &terms); err != nil {
			return Criterion{}, err
		}
		kind := CriterionSetAny
		if len(key) > 4 && key[len(key)-4:] == "_all" {
			kind = CriterionSetAll
		}
		return Criterion{Kind: kind, Terms: terms}, nil

	case 't', 'f':
		var flag bool
		if err := json.Unmarshal(value, &flag); err != nil {
			return Criterion{}, err
		}
		return Criterion{Kind: CriterionBoolFlag, Flag: flag}, nil
	}

	return Criterion{}, fmt.Errorf("unsupported criterion value %s", string(value))
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}

// EventWindowKey is the one criterion key carrying windowed-event semantics.
const EventWindowKey = "recent_mi_or_stroke_months"
