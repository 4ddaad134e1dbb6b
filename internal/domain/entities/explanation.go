package entities

// ConsistencyCheck records whether the language model's restated status
// agrees with the rule-based verdict.
type ConsistencyCheck struct {
	RuleBasedStatus EligibilityStatus `json:"rule_based_status"`
	LLMAgrees       bool              `json:"llm_agrees"`
	Notes           string            `json:"notes"`
}

// Explanation is the structured output of the explanation layer. It restates
// the screening outcome in natural language; it is never authoritative over
// the rule-based ScreenResult.
type Explanation struct {
	FinalStatus              EligibilityStatus `json:"final_status"`
	Summary                  string            `json:"summary"`
	CriteriaMatched          []string          `json:"criteria_matched"`
	CriteriaViolated         []string          `json:"criteria_violated"`
	MissingInformation       []string          `json:"missing_information"`
	RecommendedNextQuestions []string          `json:"recommended_next_questions"`
	ConsistencyCheck         ConsistencyCheck  `json:"consistency_check_with_rule_based"`
	SafetyNote               string            `json:"safety_note"`
}

// ExplanationSource says where an explanation came from.
type ExplanationSource string

const (
	// ExplanationSourceModel marks a genuine model-produced explanation.
	ExplanationSourceModel ExplanationSource = "model"

	// ExplanationSourceFallback marks a deterministic explanation built
	// locally from the rule-based result because the model call failed or
	// returned unusable output.
	ExplanationSourceFallback ExplanationSource = "fallback"
)

// ExplanationOutcome wraps an explanation with its provenance so callers can
// tell a degraded response from a real one without inspecting sentinel fields.
type ExplanationOutcome struct {
	Explanation    Explanation       `json:"explanation"`
	Source         ExplanationSource `json:"source"`
	FallbackReason string            `json:"fallback_reason,omitempty"`
	Model          string            `json:"model,omitempty"`
}

// NewFallbackExplanation builds the deterministic explanation that substitutes
// for the model when it is unavailable. It echoes the rule-based result and
// always agrees with it.
func NewFallbackExplanation(result ScreenResult, reason string) ExplanationOutcome {
	questions := []string{}
	if len(result.MissingFields) > 0 {
		questions = append(questions, "Provide the missing required fields and re-run the screening.")
	}

	return ExplanationOutcome{
		Explanation: Explanation{
			FinalStatus:              result.Status,
			Summary:                  "Explanation service unavailable; showing the rule-based result instead.",
			CriteriaMatched:          result.CriteriaPassed,
			CriteriaViolated:         result.CriteriaFailed,
			MissingInformation:       result.MissingFields,
			RecommendedNextQuestions: questions,
			ConsistencyCheck: ConsistencyCheck{
				RuleBasedStatus: result.Status,
				LLMAgrees:       true,
				Notes:           "Fallback mode: explanation derived directly from the rule engine.",
			},
			SafetyNote: "Automated screening output; eligibility must be confirmed by the trial team.",
		},
		Source:         ExplanationSourceFallback,
		FallbackReason: reason,
	}
}
