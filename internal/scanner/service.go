package scanner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"vigil.fyi/riskradar/internal/alerts"
	"vigil.fyi/riskradar/internal/analyzer"
	"vigil.fyi/riskradar/internal/config"
	"vigil.fyi/riskradar/internal/db"
	"vigil.fyi/riskradar/internal/feeds"
	"vigil.fyi/riskradar/internal/globaltime"
	"vigil.fyi/riskradar/internal/keywords"
	"vigil.fyi/riskradar/internal/risks"
	"vigil.fyi/riskradar/internal/store"
)

// persistRetryDelay separates the two persistence attempts after a judgement.
// Losing a judgement costs a repeat model call, so one retry is worth it.
const persistRetryDelay = 500 * time.Millisecond

// Service orchestrates the full pipeline: fetch, classify, filter, store,
// analyze, publish. Every operation is scoped to one organization.
type Service struct {
	cfg       *config.Config
	pool      *db.Pool
	logger    zerolog.Logger
	fetcher   *feeds.Fetcher
	registry  *keywords.Registry
	gateway   *store.Gateway
	analyzer  *analyzer.Analyzer
	publisher *alerts.Publisher
}

func NewService(
	cfg *config.Config,
	pool *db.Pool,
	logger zerolog.Logger,
	fetcher *feeds.Fetcher,
	registry *keywords.Registry,
	gateway *store.Gateway,
	eventAnalyzer *analyzer.Analyzer,
	publisher *alerts.Publisher,
) *Service {
	return &Service{
		cfg:       cfg,
		pool:      pool,
		logger:    logger,
		fetcher:   fetcher,
		registry:  registry,
		gateway:   gateway,
		analyzer:  eventAnalyzer,
		publisher: publisher,
	}
}

type fetchResult struct {
	source feeds.Source
	items  []feeds.Item
	err    error
}

// RunFullScan executes the complete pipeline for one organization and records
// the outcome in the audit ledger. Per-source fetch failures degrade the run
// to partial; only infrastructure failures fail it outright.
func (s *Service) RunFullScan(ctx context.Context, organizationID int64, trigger string) (Summary, error) {
	if s == nil || s.pool == nil {
		return Summary{}, fmt.Errorf("scanner service is not initialized")
	}
	if trigger = strings.TrimSpace(trigger); trigger == "" {
		trigger = "manual"
	}

	runUUID, startedAt, err := s.openRun(ctx, organizationID, trigger)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		RunUUID:        runUUID,
		OrganizationID: organizationID,
		Trigger:        trigger,
		StartedAt:      startedAt,
		Status:         RunStatusRunning,
	}

	err = s.runScan(ctx, organizationID, &summary)

	summary.FinishedAt = globaltime.UTC()
	errorMessage := ""
	switch {
	case err != nil:
		summary.Status = RunStatusFailed
		errorMessage = err.Error()
	case len(summary.SourceErrors) > 0:
		summary.Status = RunStatusPartial
	default:
		summary.Status = RunStatusCompleted
	}

	if finalizeErr := s.finalizeRun(ctx, summary, errorMessage); finalizeErr != nil {
		s.logger.Error().Err(finalizeErr).Str("run_uuid", runUUID).Msg("failed to finalize scan run")
		if err == nil {
			err = finalizeErr
		}
	}

	s.logger.Info().
		Str("run_uuid", runUUID).
		Int64("organization_id", organizationID).
		Str("status", summary.Status).
		Int("feeds_processed", summary.FeedsProcessed).
		Int("items_stored", summary.ItemsStored).
		Int("items_filtered", summary.ItemsFiltered).
		Int("items_duplicate", summary.ItemsDuplicate).
		Int("events_analyzed", summary.EventsAnalyzed).
		Int("alerts_created", summary.AlertsCreated).
		Msg("scan run finished")

	return summary, err
}

func (s *Service) runScan(ctx context.Context, organizationID int64, summary *Summary) error {
	settings, err := s.loadSettings(ctx, organizationID)
	if err != nil {
		return err
	}

	set, err := s.registry.Load(ctx, organizationID)
	if err != nil {
		return fmt.Errorf("load keyword set: %w", err)
	}

	sources, err := feeds.ListActiveSources(ctx, s.pool, organizationID)
	if err != nil {
		return fmt.Errorf("list feed sources: %w", err)
	}
	if len(sources) == 0 {
		s.logger.Warn().Int64("organization_id", organizationID).Msg("no active feed sources configured")
	}

	results := s.fetchAll(ctx, sources)
	cutoff := globaltime.UTC().AddDate(0, 0, -settings.LookbackDays)

	for _, result := range results {
		if result.err != nil {
			summary.SourceErrors = append(summary.SourceErrors, SourceError{
				SourceName: result.source.Name,
				Error:      result.err.Error(),
			})
			s.logger.Warn().Err(result.err).Str("source", result.source.Name).Msg("feed fetch failed")
			continue
		}
		summary.FeedsProcessed++

		for _, item := range result.items {
			if err := s.admitItem(ctx, organizationID, item, result.source, set, cutoff, summary); err != nil {
				return err
			}
		}
	}

	analyzed, created, err := s.analyzeBacklog(ctx, organizationID, settings, s.analysisBatchLimit())
	summary.EventsAnalyzed += analyzed
	summary.AlertsCreated += created
	return err
}

// admitItem runs one feed item through classification and the keyword gate,
// then offers it to the dedup store.
func (s *Service) admitItem(
	ctx context.Context,
	organizationID int64,
	item feeds.Item,
	source feeds.Source,
	set *keywords.Set,
	cutoff time.Time,
	summary *Summary,
) error {
	if item.PublishedAt.Before(cutoff) {
		summary.ItemsFiltered++
		return nil
	}

	category := keywords.Classify(item.Title, item.Description)
	passed, matched := keywords.PreFilter(item.Title, item.Description, category, set)
	if !passed {
		summary.ItemsFiltered++
		return nil
	}

	outcome, err := s.gateway.StoreIfNew(ctx, organizationID, item, source, category, matched)
	if err != nil {
		return fmt.Errorf("store feed item: %w", err)
	}
	if outcome == store.OutcomeDuplicate {
		summary.ItemsDuplicate++
	} else {
		summary.ItemsStored++
	}
	return nil
}

// fetchAll retrieves every source concurrently, bounded by the worker limit.
// Result order follows the source list so runs log deterministically.
func (s *Service) fetchAll(ctx context.Context, sources []feeds.Source) []fetchResult {
	results := make([]fetchResult, len(sources))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.fetchWorkers())

	for i, source := range sources {
		i, source := i, source
		group.Go(func() error {
			items, err := s.fetcher.Fetch(groupCtx, source)
			results[i] = fetchResult{source: source, items: items, err: err}
			return nil
		})
	}
	_ = group.Wait()

	return results
}

func (s *Service) fetchWorkers() int {
	if s.cfg == nil || s.cfg.FetchWorkers < 1 {
		return 4
	}
	return s.cfg.FetchWorkers
}

// AnalyzeBacklog judges pending events without fetching feeds first. Used by
// the standalone analyze operation. maxBatch <= 0 uses the configured limit.
func (s *Service) AnalyzeBacklog(ctx context.Context, organizationID int64, maxBatch int) (eventsAnalyzed, alertsCreated int, err error) {
	if s == nil || s.pool == nil {
		return 0, 0, fmt.Errorf("scanner service is not initialized")
	}
	settings, err := s.loadSettings(ctx, organizationID)
	if err != nil {
		return 0, 0, err
	}
	if maxBatch <= 0 {
		maxBatch = s.analysisBatchLimit()
	}
	return s.analyzeBacklog(ctx, organizationID, settings, maxBatch)
}

func (s *Service) analyzeBacklog(ctx context.Context, organizationID int64, settings db.OrgScanSettings, maxBatch int) (eventsAnalyzed, alertsCreated int, err error) {
	riskList, err := risks.ActiveRisks(ctx, s.pool, organizationID)
	if err != nil {
		return 0, 0, fmt.Errorf("load active risks: %w", err)
	}

	set, err := s.registry.Load(ctx, organizationID)
	if err != nil {
		return 0, 0, fmt.Errorf("load keyword set: %w", err)
	}

	events, err := s.gateway.ListUnanalyzed(ctx, organizationID, maxBatch)
	if err != nil {
		return 0, 0, fmt.Errorf("list unanalyzed events: %w", err)
	}

	return s.processEvents(ctx, organizationID, events, riskList, set, settings)
}

// processEvents judges and persists a batch of pending events. An exhausted
// context budget stops the loop cleanly; whatever was not judged stays in the
// backlog for the next pass.
func (s *Service) processEvents(
	ctx context.Context,
	organizationID int64,
	events []store.Event,
	riskList []risks.Risk,
	set *keywords.Set,
	settings db.OrgScanSettings,
) (eventsAnalyzed, alertsCreated int, err error) {
	keywordOnly := settings.ScannerMode == config.ScannerModeKeywordOnly

	for _, event := range events {
		if ctx.Err() != nil {
			return eventsAnalyzed, alertsCreated, nil
		}

		judgement, err := s.judgeEvent(ctx, event, riskList, set, keywordOnly)
		if err != nil {
			if ctx.Err() != nil {
				return eventsAnalyzed, alertsCreated, nil
			}
			return eventsAnalyzed, alertsCreated, err
		}

		created, err := s.persistJudgement(ctx, organizationID, event, judgement, settings.MinConfidence)
		alertsCreated += created
		if err != nil {
			// Not stamped analyzed; the event re-enters the next backlog pass.
			s.logger.Error().Err(err).Int64("event_id", event.EventID).Msg("failed to persist judgement")
			continue
		}
		eventsAnalyzed++
	}

	return eventsAnalyzed, alertsCreated, nil
}

func (s *Service) judgeEvent(ctx context.Context, event store.Event, riskList []risks.Risk, set *keywords.Set, keywordOnly bool) (analyzer.Judgement, error) {
	analyzerEvent := analyzer.Event{
		Title:           event.Title,
		Summary:         event.Summary,
		Category:        event.Category,
		MatchedKeywords: event.MatchedKeywords,
	}

	if keywordOnly {
		return analyzer.FallbackJudgement(analyzerEvent, riskList, set), nil
	}
	return s.analyzer.Analyze(ctx, analyzerEvent, riskList, set)
}

// persistJudgement publishes qualifying alerts and stamps the event analyzed,
// retrying each write once. On error the count of alerts already inserted is
// still returned; the event stays pending and re-enters the next backlog pass.
func (s *Service) persistJudgement(ctx context.Context, organizationID int64, event store.Event, judgement analyzer.Judgement, minConfidence float64) (int, error) {
	created, err := s.publisher.Publish(ctx, organizationID, event.EventID, judgement, minConfidence)
	if err != nil {
		s.logger.Warn().Err(err).Int64("event_id", event.EventID).Msg("alert publish failed, retrying once")
		if waitErr := s.retryDelay(ctx); waitErr != nil {
			return int(created), waitErr
		}
		// Publish is idempotent; the replay inserts only the missing codes.
		more, retryErr := s.publisher.Publish(ctx, organizationID, event.EventID, judgement, minConfidence)
		created += more
		if retryErr != nil {
			return int(created), retryErr
		}
	}

	analyzedAt := globaltime.UTC()
	if err := s.gateway.StampAnalyzed(ctx, organizationID, event.EventID, analyzedAt); err != nil {
		s.logger.Warn().Err(err).Int64("event_id", event.EventID).Msg("stamp analyzed failed, retrying once")
		if waitErr := s.retryDelay(ctx); waitErr != nil {
			return int(created), waitErr
		}
		if err := s.gateway.StampAnalyzed(ctx, organizationID, event.EventID, analyzedAt); err != nil {
			return int(created), err
		}
	}
	return int(created), nil
}

func (s *Service) retryDelay(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(persistRetryDelay):
		return nil
	}
}

// ResetAnalysis returns analyzed events matching the filter to the backlog.
func (s *Service) ResetAnalysis(ctx context.Context, organizationID int64, filter store.ResetFilter) (int64, error) {
	if s == nil || s.gateway == nil {
		return 0, fmt.Errorf("scanner service is not initialized")
	}
	return s.gateway.ResetAnalysis(ctx, organizationID, filter)
}

// PurgeEvents removes the organization's events within scope.
func (s *Service) PurgeEvents(ctx context.Context, organizationID int64, scope store.PurgeScope, cascadeAlerts bool) (eventsDeleted, alertsDeleted int64, err error) {
	if s == nil || s.gateway == nil {
		return 0, 0, fmt.Errorf("scanner service is not initialized")
	}
	return s.gateway.Purge(ctx, organizationID, scope, cascadeAlerts)
}

// CreateTestAlert exercises the alert delivery path with a synthetic event.
func (s *Service) CreateTestAlert(ctx context.Context, organizationID int64, riskCode string) (int64, string, error) {
	if s == nil || s.publisher == nil {
		return 0, "", fmt.Errorf("scanner service is not initialized")
	}
	return s.publisher.CreateTestAlert(ctx, organizationID, riskCode)
}

// Settings returns the organization's resolved scan settings.
func (s *Service) Settings(ctx context.Context, organizationID int64) (db.OrgScanSettings, error) {
	if s == nil || s.pool == nil {
		return db.OrgScanSettings{}, fmt.Errorf("scanner service is not initialized")
	}
	return s.loadSettings(ctx, organizationID)
}

// UpdateSettings validates and writes the organization's settings row.
func (s *Service) UpdateSettings(ctx context.Context, organizationID int64, settings db.OrgScanSettings) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("scanner service is not initialized")
	}
	settings.ScannerMode = strings.TrimSpace(strings.ToLower(settings.ScannerMode))
	if !config.IsValidScannerMode(settings.ScannerMode) {
		return fmt.Errorf("scanner mode must be %q or %q", config.ScannerModeAI, config.ScannerModeKeywordOnly)
	}
	if settings.MinConfidence < 0 || settings.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be between 0 and 1")
	}
	if settings.LookbackDays < 1 {
		return fmt.Errorf("lookback days must be >= 1")
	}
	return s.pool.UpsertOrgSettings(ctx, organizationID, settings, globaltime.UTC())
}

func (s *Service) loadSettings(ctx context.Context, organizationID int64) (db.OrgScanSettings, error) {
	fallback := db.OrgScanSettings{
		ScannerMode:   config.ScannerModeAI,
		MinConfidence: 0.6,
		LookbackDays:  7,
	}
	if s.cfg != nil {
		fallback = db.OrgScanSettings{
			ScannerMode:   strings.TrimSpace(strings.ToLower(s.cfg.ScannerMode)),
			MinConfidence: s.cfg.MinConfidence,
			LookbackDays:  s.cfg.LookbackDays,
		}
	}

	settings, err := s.pool.LoadOrgSettings(ctx, organizationID, fallback)
	if err != nil {
		return db.OrgScanSettings{}, err
	}
	return settings, nil
}

func (s *Service) analysisBatchLimit() int {
	if s.cfg == nil || s.cfg.AnalysisBatchLimit < 1 {
		return 50
	}
	return s.cfg.AnalysisBatchLimit
}
