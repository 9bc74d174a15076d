package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vigil.fyi/riskradar/internal/config"
	"vigil.fyi/riskradar/internal/db"
	"vigil.fyi/riskradar/internal/feeds"
	"vigil.fyi/riskradar/internal/globaltime"
	"vigil.fyi/riskradar/internal/keywords"
	"vigil.fyi/riskradar/internal/risks"
	"vigil.fyi/riskradar/internal/store"
)

// newBareService builds a Service with no storage wired. Tests using it cover
// paths that must decide before touching the database; a nil gateway panics
// if that contract breaks.
func newBareService() *Service {
	return &Service{logger: zerolog.Nop()}
}

func testFeedSource() feeds.Source {
	return feeds.Source{FeedSourceID: 1, Name: "Test Feed", URL: "https://example.com/feed.xml"}
}

func TestAdmitItemFiltersItemsOlderThanLookbackWindow(t *testing.T) {
	t.Parallel()

	svc := newBareService()
	set := keywords.NewSet(keywords.DefaultCorpus())
	cutoff := globaltime.UTC().AddDate(0, 0, -7)

	item := feeds.Item{
		Title:       "Major ransomware attack hits logistics providers",
		Description: "A data breach affecting supply chain operators.",
		Link:        "https://example.com/old-news",
		PublishedAt: globaltime.UTC().AddDate(0, 0, -10),
	}

	summary := Summary{}
	if err := svc.admitItem(context.Background(), 1, item, testFeedSource(), set, cutoff, &summary); err != nil {
		t.Fatalf("admitItem returned error: %v", err)
	}
	if summary.ItemsFiltered != 1 {
		t.Fatalf("ItemsFiltered = %d, want 1", summary.ItemsFiltered)
	}
	if summary.ItemsStored != 0 || summary.ItemsDuplicate != 0 {
		t.Fatalf("stale item reached the store: %+v", summary)
	}
}

func TestAdmitItemFiltersItemsWithoutKeywordMatch(t *testing.T) {
	t.Parallel()

	svc := newBareService()
	set := keywords.NewSet(keywords.DefaultCorpus())
	cutoff := globaltime.UTC().AddDate(0, 0, -7)

	item := feeds.Item{
		Title:       "Local bakery wins pastry award",
		Description: "Croissants praised by judges at the county fair.",
		Link:        "https://example.com/bakery",
		PublishedAt: globaltime.UTC().Add(-2 * time.Hour),
	}

	summary := Summary{}
	if err := svc.admitItem(context.Background(), 1, item, testFeedSource(), set, cutoff, &summary); err != nil {
		t.Fatalf("admitItem returned error: %v", err)
	}
	if summary.ItemsFiltered != 1 {
		t.Fatalf("ItemsFiltered = %d, want 1", summary.ItemsFiltered)
	}
	if summary.ItemsStored != 0 {
		t.Fatalf("non-matching item stored: %+v", summary)
	}
}

func TestProcessEventsStopsCleanlyWhenBudgetExhausted(t *testing.T) {
	t.Parallel()

	svc := newBareService()
	set := keywords.NewSet(keywords.DefaultCorpus())
	settings := db.OrgScanSettings{
		ScannerMode:   config.ScannerModeKeywordOnly,
		MinConfidence: 0.6,
		LookbackDays:  7,
	}
	riskList := []risks.Risk{{Code: "CYB-001", Title: "Cyber attack"}}
	events := []store.Event{
		{EventID: 1, Title: "Ransomware attack", Summary: "A breach.", Category: "cybersecurity"},
		{EventID: 2, Title: "Another breach", Summary: "More trouble.", Category: "cybersecurity"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	analyzed, created, err := svc.processEvents(ctx, 1, events, riskList, set, settings)
	if err != nil {
		t.Fatalf("processEvents returned error: %v", err)
	}
	if analyzed != 0 || created != 0 {
		t.Fatalf("processEvents = (%d, %d), want (0, 0); pending events must stay in the backlog", analyzed, created)
	}
}
