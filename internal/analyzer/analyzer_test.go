package analyzer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"vigil.fyi/riskradar/internal/keywords"
	"vigil.fyi/riskradar/internal/risks"
)

type stubClient struct {
	reply string
	err   error
	calls int
}

func (s *stubClient) Judge(_ context.Context, _, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func testRisks() []risks.Risk {
	return []risks.Risk{
		{Code: "CYB-001", Title: "Ransomware attack on core systems"},
		{Code: "MKT-003", Title: "Interest rate exposure"},
		{Code: "OPS-007", Title: "Supply chain disruption"},
	}
}

func testSet() *keywords.Set {
	return keywords.NewSet(keywords.DefaultCorpus())
}

func testEvent() Event {
	return Event{
		Title:           "Ransomware gang hits logistics provider",
		Summary:         "Attackers encrypted dispatch systems and demanded payment",
		Category:        "cybersecurity",
		MatchedKeywords: []string{"ransomware"},
	}
}

func TestAnalyzeUsesValidModelReply(t *testing.T) {
	t.Parallel()

	client := &stubClient{reply: `{
		"relevant": true,
		"risk_codes": ["CYB-001", "ZZZ-999"],
		"confidence": 0.9,
		"likelihood_change": 2,
		"reasoning": "direct ransomware threat",
		"impact_assessment": "core systems at risk",
		"suggested_controls": ["test backups"]
	}`}

	a := New(client, Options{}, zerolog.Nop())
	judgement, err := a.Analyze(context.Background(), testEvent(), testRisks(), testSet())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if judgement.Source != SourceModel {
		t.Fatalf("judgement.Source = %q, want %q", judgement.Source, SourceModel)
	}
	// The invented code is dropped, the registered one kept.
	if len(judgement.RiskCodes) != 1 || judgement.RiskCodes[0] != "CYB-001" {
		t.Fatalf("judgement.RiskCodes = %v, want [CYB-001]", judgement.RiskCodes)
	}
	if judgement.Confidence != 0.9 || judgement.LikelihoodDelta != 2 {
		t.Fatalf("judgement = %+v", judgement)
	}
}

func TestAnalyzeFallsBackOnModelError(t *testing.T) {
	t.Parallel()

	client := &stubClient{err: fmt.Errorf("upstream timeout")}
	a := New(client, Options{}, zerolog.Nop())

	judgement, err := a.Analyze(context.Background(), testEvent(), testRisks(), testSet())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if judgement.Source != SourceKeywordFallback {
		t.Fatalf("judgement.Source = %q, want fallback", judgement.Source)
	}
	if !judgement.Relevant {
		t.Fatal("fallback judgement.Relevant = false for a ransomware event")
	}
	if judgement.Confidence != 0.5 {
		t.Fatalf("fallback confidence = %v, want 0.5", judgement.Confidence)
	}
}

func TestAnalyzeFallsBackOnMalformedReply(t *testing.T) {
	t.Parallel()

	client := &stubClient{reply: "I think this event is probably relevant."}
	a := New(client, Options{}, zerolog.Nop())

	judgement, err := a.Analyze(context.Background(), testEvent(), testRisks(), testSet())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if judgement.Source != SourceKeywordFallback {
		t.Fatalf("judgement.Source = %q, want fallback", judgement.Source)
	}
}

func TestAnalyzeSecondOpinionOnIrrelevantVerdict(t *testing.T) {
	t.Parallel()

	// The model says irrelevant, but the keyword scan clearly disagrees.
	client := &stubClient{reply: `{"relevant": false, "risk_codes": [], "confidence": 0.3}`}
	a := New(client, Options{}, zerolog.Nop())

	judgement, err := a.Analyze(context.Background(), testEvent(), testRisks(), testSet())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if judgement.Source != SourceKeywordFallback || !judgement.Relevant {
		t.Fatalf("judgement = %+v, want relevant fallback verdict", judgement)
	}
}

func TestAnalyzeWithNilClientUsesFallback(t *testing.T) {
	t.Parallel()

	a := New(nil, Options{}, zerolog.Nop())
	judgement, err := a.Analyze(context.Background(), testEvent(), testRisks(), testSet())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if judgement.Source != SourceKeywordFallback {
		t.Fatalf("judgement.Source = %q, want fallback", judgement.Source)
	}
}

func TestFallbackSelectsOnlyMatchingRisks(t *testing.T) {
	t.Parallel()

	judgement := FallbackJudgement(testEvent(), testRisks(), testSet())
	if !judgement.Relevant {
		t.Fatal("FallbackJudgement.Relevant = false")
	}
	for _, code := range judgement.RiskCodes {
		if strings.HasPrefix(code, "MKT") {
			t.Fatalf("fallback selected market risk %q for a cybersecurity event", code)
		}
	}
	if len(judgement.RiskCodes) == 0 {
		t.Fatal("FallbackJudgement selected no risks")
	}
	if judgement.Reasoning == "" {
		t.Fatal("FallbackJudgement.Reasoning is empty")
	}
}

func TestFallbackUnionsMultipleCategories(t *testing.T) {
	t.Parallel()

	event := Event{
		Title:    "Ransomware attack triggers supply chain disruption",
		Summary:  "Shipments halted while systems are restored",
		Category: "cybersecurity",
	}

	judgement := FallbackJudgement(event, testRisks(), testSet())
	if !judgement.Relevant {
		t.Fatal("FallbackJudgement.Relevant = false")
	}

	var hasCyb, hasOps bool
	for _, code := range judgement.RiskCodes {
		switch {
		case strings.HasPrefix(code, "CYB"):
			hasCyb = true
		case strings.HasPrefix(code, "OPS"):
			hasOps = true
		}
	}
	if !hasCyb || !hasOps {
		t.Fatalf("RiskCodes = %v, want both CYB and OPS risks", judgement.RiskCodes)
	}
}

func TestFallbackIrrelevantWhenNothingMatches(t *testing.T) {
	t.Parallel()

	event := Event{
		Title:    "Local bakery opens second shop",
		Summary:  "Croissants praised by visitors",
		Category: "other",
	}

	judgement := FallbackJudgement(event, testRisks(), testSet())
	if judgement.Relevant {
		t.Fatalf("FallbackJudgement = %+v, want irrelevant", judgement)
	}
	if len(judgement.RiskCodes) != 0 {
		t.Fatalf("RiskCodes = %v, want none", judgement.RiskCodes)
	}
}

func TestBuildPromptListsRisksAndRules(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt(testEvent(), testRisks())
	for _, want := range []string{"CYB-001", "MKT-003", "OPS-007", "REGISTERED RISKS", "MATCHING RULES", "ransomware"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestClampHelpers(t *testing.T) {
	t.Parallel()

	if got := clampConfidence(1.7); got != 1 {
		t.Fatalf("clampConfidence(1.7) = %v", got)
	}
	if got := clampConfidence(-0.2); got != 0 {
		t.Fatalf("clampConfidence(-0.2) = %v", got)
	}
	if got := clampLikelihoodDelta(5); got != 2 {
		t.Fatalf("clampLikelihoodDelta(5) = %d", got)
	}
	if got := clampLikelihoodDelta(-5); got != -2 {
		t.Fatalf("clampLikelihoodDelta(-5) = %d", got)
	}
}
