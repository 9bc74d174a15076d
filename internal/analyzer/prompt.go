package analyzer

import (
	"fmt"
	"strings"

	"vigil.fyi/riskradar/internal/keywords"
	"vigil.fyi/riskradar/internal/risks"
)

const systemPrompt = "You are a risk intelligence analyst. You judge whether an external " +
	"news or regulatory event is relevant to an organization's registered risks. " +
	"Reply with a single JSON object and nothing else."

// categoryRiskPrefixes biases keyword categories toward risk-code prefixes.
// The same table drives the prompt's matching rules and the deterministic
// fallback, so both paths agree on what a match means.
var categoryRiskPrefixes = map[string][]string{
	keywords.DictCybersecurity: {"CYB", "SEC", "TEC", "IT"},
	keywords.DictRegulatory:    {"REG", "COM", "LEG", "GOV"},
	keywords.DictMarket:        {"MKT", "FIN"},
	keywords.DictOperational:   {"OPS", "OPR", "BCP"},
	keywords.DictStrategic:     {"STR", "REP"},
}

// BuildPrompt renders the structured judgement request for one event.
func BuildPrompt(event Event, riskList []risks.Risk) string {
	var b strings.Builder

	b.WriteString("EVENT\n")
	fmt.Fprintf(&b, "Title: %s\n", event.Title)
	fmt.Fprintf(&b, "Category: %s\n", event.Category)
	fmt.Fprintf(&b, "Summary: %s\n", event.Summary)
	if len(event.MatchedKeywords) > 0 {
		fmt.Fprintf(&b, "Matched keywords: %s\n", strings.Join(event.MatchedKeywords, ", "))
	}

	b.WriteString("\nREGISTERED RISKS\n")
	for _, r := range riskList {
		fmt.Fprintf(&b, "- %s: %s\n", r.Code, r.Title)
	}

	b.WriteString("\nMATCHING RULES\n")
	for _, category := range keywords.DictionaryCategories {
		prefixes := categoryRiskPrefixes[category]
		fmt.Fprintf(&b, "- %s keywords bias toward risk codes prefixed %s\n",
			category, strings.Join(prefixes, ", "))
	}
	b.WriteString("- Only use risk codes from the REGISTERED RISKS list.\n")
	b.WriteString("- When the event is irrelevant, set relevant=false and risk_codes=[].\n")

	b.WriteString("\nRespond with JSON: {\"relevant\": bool, \"risk_codes\": [string], " +
		"\"confidence\": number 0..1, \"likelihood_change\": integer -2..2, " +
		"\"reasoning\": string, \"impact_assessment\": string, " +
		"\"suggested_controls\": [string]}\n")

	return b.String()
}
