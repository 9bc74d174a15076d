package keywords

import (
	"reflect"
	"testing"
)

func TestNewSetDeduplicatesAndNormalizes(t *testing.T) {
	t.Parallel()

	set := NewSet([]Entry{
		{Category: "Market", Keyword: " Inflation "},
		{Category: "market", Keyword: "inflation"},
		{Category: "market", Keyword: ""},
		{Category: "", Keyword: "orphan"},
		{Category: "market", Keyword: "recession"},
	})

	if set.Len() != 2 {
		t.Fatalf("set.Len() = %d, want 2", set.Len())
	}

	matches := set.Scan("Inflation fears grow as recession looms")
	if len(matches) != 2 {
		t.Fatalf("Scan returned %d matches, want 2: %v", len(matches), matches)
	}
}

func TestScanIsCaseInsensitiveAndOrdered(t *testing.T) {
	t.Parallel()

	set := NewSet([]Entry{
		{Category: DictCybersecurity, Keyword: "ransomware"},
		{Category: DictMarket, Keyword: "inflation"},
	})

	matches := set.Scan("INFLATION jumps after RANSOMWARE attack on payment processor")
	want := []Match{
		{Category: DictCybersecurity, Keyword: "ransomware"},
		{Category: DictMarket, Keyword: "inflation"},
	}
	if !reflect.DeepEqual(matches, want) {
		t.Fatalf("Scan = %v, want %v", matches, want)
	}
}

func TestPreFilterGatesOnAnyField(t *testing.T) {
	t.Parallel()

	set := NewSet(DefaultCorpus())

	passed, matched := PreFilter("Central bank raises interest rate", "Markets react to the decision", EventMarket, set)
	if !passed {
		t.Fatal("PreFilter rejected an item with dictionary keywords in the title")
	}
	if len(matched) == 0 {
		t.Fatal("PreFilter returned no matched keywords for a passing item")
	}

	passed, matched = PreFilter("Local bakery opens second shop", "Croissants praised by visitors", EventOther, set)
	if passed {
		t.Fatalf("PreFilter accepted an item with no keyword hits: %v", matched)
	}
}

func TestPreFilterDeduplicatesMatchedKeywords(t *testing.T) {
	t.Parallel()

	set := NewSet([]Entry{{Category: DictMarket, Keyword: "inflation"}})

	passed, matched := PreFilter("Inflation inflation inflation", "More on inflation", EventMarket, set)
	if !passed {
		t.Fatal("PreFilter rejected a matching item")
	}
	if len(matched) != 1 || matched[0] != "inflation" {
		t.Fatalf("matched = %v, want [inflation]", matched)
	}
}

func TestMatchedCategoriesKeepsFirstHitOrder(t *testing.T) {
	t.Parallel()

	got := MatchedCategories([]Match{
		{Category: DictMarket, Keyword: "inflation"},
		{Category: DictCybersecurity, Keyword: "ransomware"},
		{Category: DictMarket, Keyword: "recession"},
	})
	want := []string{DictMarket, DictCybersecurity}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MatchedCategories = %v, want %v", got, want)
	}
}

func TestDefaultCorpusCoversEveryDictionaryCategory(t *testing.T) {
	t.Parallel()

	counts := map[string]int{}
	for _, entry := range DefaultCorpus() {
		counts[entry.Category]++
	}
	for _, category := range DictionaryCategories {
		if counts[category] == 0 {
			t.Fatalf("default corpus has no entries for category %q", category)
		}
	}
}
