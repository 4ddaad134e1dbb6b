package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/providers"
)

const systemInstructions = `You are a clinical-trial eligibility explanation assistant.

You do NOT make eligibility decisions.
The deterministic rule-based engine is the decision authority.

Your task is to:
- Explain the rule-based eligibility outcome
- Cross-check whether the explanation is consistent with the rules
- Identify which criteria were met, violated, or could not be assessed
- Clearly list missing information when present

Rules:
- If required information is missing, final_status MUST be "Uncertain"
- Do NOT guess or infer missing clinical facts
- Do NOT override the rule-based status
- Use exact values and wording from the trial criteria whenever possible

Return ONLY a valid JSON object with this schema:
{
  "final_status": "Eligible" | "Not eligible" | "Uncertain",
  "summary": string,
  "criteria_matched": string[],
  "criteria_violated": string[],
  "missing_information": string[],
  "recommended_next_questions": string[],
  "consistency_check_with_rule_based": {
    "rule_based_status": string,
    "llm_agrees": boolean,
    "notes": string
  },
  "safety_note": string
}
Do not include markdown or extra text.`

// buildExplanationPrompt serializes the screening inputs into a single
// prompt with the structured patient, the free-text note, the trial and the
// rule-based result.
func buildExplanationPrompt(req providers.ExplanationRequest) (string, error) {
	note := ""
	if req.Note != nil {
		note = req.Note.Note
	}

	input := map[string]interface{}{
		"patient_structured":        req.Patient,
		"patient_note_unstructured": note,
		"trial":                     req.Trial,
		"rule_based_result":         req.Result,
	}

	encoded, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode prompt input: %w", err)
	}

	return systemInstructions + "\n\nINPUT:\n" + string(encoded) + "\n\nOUTPUT: Return ONLY JSON, no extra text.", nil
}

// parseExplanation decodes model output into an Explanation. It tolerates
// markdown fences and surrounding prose around the JSON object.
func parseExplanation(text string) (*entities.Explanation, error) {
	raw := extractJSON(text)

	var explanation entities.Explanation
	if err := json.Unmarshal([]byte(raw), &explanation); err != nil {
		return nil, err
	}
	if !explanation.FinalStatus.IsValid() {
		return nil, fmt.Errorf("invalid final_status %q", explanation.FinalStatus)
	}
	return &explanation, nil
}

// extractJSON returns the outermost {...} block of text, stripping markdown
// code fences first.
func extractJSON(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	cleaned = strings.TrimSpace(cleaned)

	if strings.HasPrefix(cleaned, "{") && strings.HasSuffix(cleaned, "}") {
		return cleaned
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		return cleaned[start : end+1]
	}
	return cleaned
}
