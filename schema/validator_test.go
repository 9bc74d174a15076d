package judgementschema

import (
	"strings"
	"testing"
)

func TestValidateJudgementPayloadAcceptsWellFormedReply(t *testing.T) {
	t.Parallel()

	payload := []byte(`{
		"relevant": true,
		"risk_codes": [" CYB-001 ", "MKT-002"],
		"confidence": 0.82,
		"likelihood_change": 1,
		"reasoning": "  direct match  ",
		"impact_assessment": "elevated exposure",
		"suggested_controls": ["review incident response plan"]
	}`)

	judgement, err := ValidateJudgementPayload(payload)
	if err != nil {
		t.Fatalf("ValidateJudgementPayload failed: %v", err)
	}
	if !judgement.Relevant {
		t.Fatal("judgement.Relevant = false")
	}
	if len(judgement.RiskCodes) != 2 || judgement.RiskCodes[0] != "CYB-001" {
		t.Fatalf("judgement.RiskCodes = %v", judgement.RiskCodes)
	}
	if judgement.Reasoning != "direct match" {
		t.Fatalf("judgement.Reasoning = %q, want trimmed", judgement.Reasoning)
	}
	if judgement.LikelihoodChange != 1 {
		t.Fatalf("judgement.LikelihoodChange = %d", judgement.LikelihoodChange)
	}
}

func TestValidateJudgementPayloadToleratesMarkdownFences(t *testing.T) {
	t.Parallel()

	payload := []byte("Here is my answer:\n```json\n{\"relevant\": false, \"risk_codes\": [], \"confidence\": 0.2}\n```\n")
	judgement, err := ValidateJudgementPayload(payload)
	if err != nil {
		t.Fatalf("ValidateJudgementPayload failed: %v", err)
	}
	if judgement.Relevant {
		t.Fatal("judgement.Relevant = true, want false")
	}
}

func TestValidateJudgementPayloadRejectsBadReplies(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
	}{
		{"empty reply", ""},
		{"no JSON object", "the event is not relevant"},
		{"missing required fields", `{"relevant": true}`},
		{"confidence out of range", `{"relevant": true, "risk_codes": [], "confidence": 1.4}`},
		{"likelihood out of range", `{"relevant": true, "risk_codes": ["A"], "confidence": 0.5, "likelihood_change": 5}`},
		{"risk codes wrong type", `{"relevant": true, "risk_codes": "CYB-001", "confidence": 0.5}`},
		{"too many risk codes", `{"relevant": true, "risk_codes": [` + strings.Repeat(`"C",`, 20) + `"C"], "confidence": 0.5}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ValidateJudgementPayload([]byte(tc.payload)); err == nil {
				t.Fatalf("ValidateJudgementPayload accepted %q", tc.payload)
			}
		})
	}
}

func TestExtractJSONFindsOutermostObject(t *testing.T) {
	t.Parallel()

	got := ExtractJSON([]byte(`prefix {"a": {"b": 1}} suffix`))
	if string(got) != `{"a": {"b": 1}}` {
		t.Fatalf("ExtractJSON = %q", got)
	}
	if got := ExtractJSON([]byte("no braces here")); got != nil {
		t.Fatalf("ExtractJSON = %q, want nil", got)
	}
}
