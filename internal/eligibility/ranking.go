package eligibility

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
)

// RankKey is a totally ordered tuple used to sort trials for a patient (or
// patients for a trial). Ascending order is best-first. The key is a pure
// function of its inputs: identical inputs always produce an identical key.
type RankKey struct {
	StatusPriority int     `json:"status_priority"`
	FailedCount    int     `json:"failed_count"`
	MissingCount   int     `json:"missing_count"`
	Closeness      float64 `json:"closeness"`
	PhaseRank      int     `json:"phase_rank"`
	PassedCount    int     `json:"passed_count"`
}

// NewRankKey computes the ranking key for one screened (patient, trial) pair.
func NewRankKey(patient *entities.Patient, trial *entities.Trial, result entities.ScreenResult) RankKey {
	return RankKey{
		StatusPriority: result.Status.Priority(),
		FailedCount:    len(result.CriteriaFailed),
		MissingCount:   len(result.MissingFields),
		Closeness:      Closeness(patient, trial),
		PhaseRank:      PhaseRank(trial.Phase),
		PassedCount:    len(result.CriteriaPassed),
	}
}

// MarshalJSON renders the infinite closeness sentinel as null; +Inf has no
// JSON representation and would abort encoding of the whole response.
func (k RankKey) MarshalJSON() ([]byte, error) {
	type wireKey struct {
		StatusPriority int      `json:"status_priority"`
		FailedCount    int      `json:"failed_count"`
		MissingCount   int      `json:"missing_count"`
		Closeness      *float64 `json:"closeness"`
		PhaseRank      int      `json:"phase_rank"`
		PassedCount    int      `json:"passed_count"`
	}

	wire := wireKey{
		StatusPriority: k.StatusPriority,
		FailedCount:    k.FailedCount,
		MissingCount:   k.MissingCount,
		PhaseRank:      k.PhaseRank,
		PassedCount:    k.PassedCount,
	}
	if !math.IsInf(k.Closeness, 0) {
		wire.Closeness = &k.Closeness
	}
	return json.Marshal(wire)
}

// Less compares two keys component-wise in priority order. More passed
// checks is better, so PassedCount is the only descending component.
func (k RankKey) Less(other RankKey) bool {
	if k.StatusPriority != other.StatusPriority {
		return k.StatusPriority < other.StatusPriority
	}
	if k.FailedCount != other.FailedCount {
		return k.FailedCount < other.FailedCount
	}
	if k.MissingCount != other.MissingCount {
		return k.MissingCount < other.MissingCount
	}
	if k.Closeness != other.Closeness {
		return k.Closeness < other.Closeness
	}
	if k.PhaseRank != other.PhaseRank {
		return k.PhaseRank < other.PhaseRank
	}
	return k.PassedCount > other.PassedCount
}

// Closeness is the aggregate distance of the patient's numeric values from
// the trial's declared inclusion ranges. Zero means every declared range is
// satisfied; values outside a range add the absolute gap to the violated
// bound. A field the trial declares but the patient lacks contributes +Inf,
// sorting those pairs last within their status tier. Closeness never affects
// the eligibility status, only ordering.
func Closeness(patient *entities.Patient, trial *entities.Trial) float64 {
	total := 0.0
	for _, key := range closenessKeys {
		criterion, declared := trial.Inclusion[key]
		if !declared || criterion.Kind != entities.CriterionRange {
			continue
		}
		field := numericFields[key]
		total += rangeDistance(field.get(patient), criterion.Min, criterion.Max)
	}
	return total
}

func rangeDistance(value, min, max *float64) float64 {
	if value == nil {
		return math.Inf(1)
	}
	if min != nil && *value < *min {
		return *min - *value
	}
	if max != nil && *value > *max {
		return *value - *max
	}
	return 0
}

// PhaseRank prefers later-phase trials: Phase 3 before Phase 2 before
// Phase 1, with anything else (or an empty phase) last. Matching is a
// case-insensitive substring test on the free-text phase label.
func PhaseRank(phase string) int {
	p := strings.ToLower(strings.TrimSpace(phase))
	switch {
	case strings.Contains(p, "phase 3"):
		return 0
	case strings.Contains(p, "phase 2"):
		return 1
	case strings.Contains(p, "phase 1"):
		return 2
	}
	return 9
}
