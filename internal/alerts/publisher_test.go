package alerts

import (
	"reflect"
	"testing"

	"vigil.fyi/riskradar/internal/analyzer"
)

func TestQualifyingCodesAppliesConfidenceGate(t *testing.T) {
	t.Parallel()

	judgement := analyzer.Judgement{
		Relevant:   true,
		RiskCodes:  []string{"CYB-001"},
		Confidence: 0.55,
	}

	if codes := QualifyingCodes(judgement, 0.6); codes != nil {
		t.Fatalf("QualifyingCodes below threshold = %v, want nil", codes)
	}
	if codes := QualifyingCodes(judgement, 0.5); len(codes) != 1 {
		t.Fatalf("QualifyingCodes above threshold = %v, want one code", codes)
	}
}

func TestQualifyingCodesPassesKeywordFallbackBelowThreshold(t *testing.T) {
	t.Parallel()

	judgement := analyzer.Judgement{
		Relevant:   true,
		RiskCodes:  []string{"FIN-MKT-001"},
		Confidence: 0.5,
		Source:     analyzer.SourceKeywordFallback,
	}

	got := QualifyingCodes(judgement, 0.6)
	want := []string{"FIN-MKT-001"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("QualifyingCodes for fallback judgement = %v, want %v", got, want)
	}

	judgement.Source = analyzer.SourceModel
	if codes := QualifyingCodes(judgement, 0.6); codes != nil {
		t.Fatalf("QualifyingCodes for model judgement below threshold = %v, want nil", codes)
	}
}

func TestQualifyingCodesIgnoresIrrelevantFallbackJudgements(t *testing.T) {
	t.Parallel()

	judgement := analyzer.Judgement{
		Relevant:   false,
		RiskCodes:  []string{"FIN-MKT-001"},
		Confidence: 0.5,
		Source:     analyzer.SourceKeywordFallback,
	}
	if codes := QualifyingCodes(judgement, 0.6); codes != nil {
		t.Fatalf("QualifyingCodes for irrelevant fallback judgement = %v, want nil", codes)
	}
}

func TestQualifyingCodesIgnoresIrrelevantJudgements(t *testing.T) {
	t.Parallel()

	judgement := analyzer.Judgement{
		Relevant:   false,
		RiskCodes:  []string{"CYB-001"},
		Confidence: 0.95,
	}
	if codes := QualifyingCodes(judgement, 0.6); codes != nil {
		t.Fatalf("QualifyingCodes for irrelevant judgement = %v, want nil", codes)
	}
}

func TestQualifyingCodesNormalizesAndDeduplicates(t *testing.T) {
	t.Parallel()

	judgement := analyzer.Judgement{
		Relevant:   true,
		RiskCodes:  []string{" cyb-001 ", "CYB-001", "", "ops-007"},
		Confidence: 0.8,
	}

	got := QualifyingCodes(judgement, 0.6)
	want := []string{"CYB-001", "OPS-007"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("QualifyingCodes = %v, want %v", got, want)
	}
}

func TestQualifyingCodesBoundaryIsInclusive(t *testing.T) {
	t.Parallel()

	judgement := analyzer.Judgement{
		Relevant:   true,
		RiskCodes:  []string{"MKT-003"},
		Confidence: 0.6,
	}
	if codes := QualifyingCodes(judgement, 0.6); len(codes) != 1 {
		t.Fatalf("QualifyingCodes at exact threshold = %v, want one code", codes)
	}
}
