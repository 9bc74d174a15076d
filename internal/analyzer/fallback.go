package analyzer

import (
	"fmt"
	"strings"

	"vigil.fyi/riskradar/internal/keywords"
	"vigil.fyi/riskradar/internal/risks"
)

const (
	fallbackConfidence      = 0.5
	fallbackLikelihoodDelta = 1
)

// FallbackJudgement re-scans the event text against the keyword dictionaries
// and selects registered risks whose code or title matches a hit category.
// Deterministic and auditable: this is the authoritative safety net when the
// model path fails or is inconclusive.
func FallbackJudgement(event Event, riskList []risks.Risk, set *keywords.Set) Judgement {
	matches := set.Scan(event.Title + " " + event.Summary)
	if len(matches) == 0 {
		return Judgement{
			Relevant:  false,
			Reasoning: "no configured keywords matched",
			Source:    SourceKeywordFallback,
		}
	}

	// Multi-category hits union all matched categories' risks.
	matchedCategories := keywords.MatchedCategories(matches)
	keywordsByCategory := groupKeywords(matches)

	selected := make([]string, 0, 4)
	seen := make(map[string]struct{}, 4)
	for _, r := range riskList {
		if !riskMatchesAny(r, matchedCategories, keywordsByCategory) {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(r.Code))
		if _, exists := seen[code]; exists {
			continue
		}
		seen[code] = struct{}{}
		selected = append(selected, code)
	}

	matchedWords := uniqueKeywords(matches)
	if len(selected) == 0 {
		return Judgement{
			Relevant:  false,
			Reasoning: fmt.Sprintf("keywords matched (%s) but no registered risk maps to them", strings.Join(matchedWords, ", ")),
			Source:    SourceKeywordFallback,
		}
	}

	return Judgement{
		Relevant:         true,
		RiskCodes:        selected,
		Confidence:       fallbackConfidence,
		LikelihoodDelta:  fallbackLikelihoodDelta,
		Reasoning:        fmt.Sprintf("keyword match: %s", strings.Join(matchedWords, ", ")),
		ImpactAssessment: fmt.Sprintf("external %s signal detected by keyword scan; review against the linked risks", strings.Join(matchedCategories, "/")),
		Source:           SourceKeywordFallback,
	}
}

func riskMatchesAny(r risks.Risk, categories []string, keywordsByCategory map[string][]string) bool {
	code := strings.ToUpper(strings.TrimSpace(r.Code))
	title := strings.ToLower(r.Title)

	for _, category := range categories {
		for _, prefix := range categoryRiskPrefixes[category] {
			if strings.HasPrefix(code, prefix) || strings.Contains(code, "-"+prefix) {
				return true
			}
		}
		for _, keyword := range keywordsByCategory[category] {
			if strings.Contains(title, keyword) {
				return true
			}
		}
	}
	return false
}

func groupKeywords(matches []keywords.Match) map[string][]string {
	grouped := make(map[string][]string, len(matches))
	for _, m := range matches {
		grouped[m.Category] = append(grouped[m.Category], m.Keyword)
	}
	return grouped
}

func uniqueKeywords(matches []keywords.Match) []string {
	seen := make(map[string]struct{}, len(matches))
	words := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, exists := seen[m.Keyword]; exists {
			continue
		}
		seen[m.Keyword] = struct{}{}
		words = append(words, m.Keyword)
	}
	return words
}
