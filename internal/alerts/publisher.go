package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vigil.fyi/riskradar/internal/analyzer"
	"vigil.fyi/riskradar/internal/db"
	"vigil.fyi/riskradar/internal/globaltime"
)

// StatusPending is the only status this pipeline writes. Review workflows own
// every later transition.
const StatusPending = "pending"

// Publisher turns relevance judgements into pending intelligence alerts. The
// unique index on (event_id, risk_code) makes publishing idempotent: replayed
// judgements for the same event create nothing new.
type Publisher struct {
	pool   *db.Pool
	logger zerolog.Logger
}

func NewPublisher(pool *db.Pool, logger zerolog.Logger) *Publisher {
	return &Publisher{
		pool:   pool,
		logger: logger,
	}
}

// QualifyingCodes applies the confidence gate. Irrelevant verdicts publish
// nothing. The gate meters model judgements only: keyword-fallback verdicts
// are deterministic, so their fixed confidence is reported on the alert
// rather than compared against the threshold.
func QualifyingCodes(judgement analyzer.Judgement, minConfidence float64) []string {
	if !judgement.Relevant {
		return nil
	}
	if judgement.Source != analyzer.SourceKeywordFallback && judgement.Confidence < minConfidence {
		return nil
	}

	seen := make(map[string]struct{}, len(judgement.RiskCodes))
	codes := make([]string, 0, len(judgement.RiskCodes))
	for _, code := range judgement.RiskCodes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, exists := seen[code]; exists {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}

// Publish creates one pending alert per qualifying risk code and returns how
// many rows were actually inserted.
func (p *Publisher) Publish(ctx context.Context, organizationID, eventID int64, judgement analyzer.Judgement, minConfidence float64) (int64, error) {
	if p == nil || p.pool == nil {
		return 0, fmt.Errorf("alert publisher is not initialized")
	}

	codes := QualifyingCodes(judgement, minConfidence)
	if len(codes) == 0 {
		return 0, nil
	}

	controlsJSON, err := json.Marshal(judgement.SuggestedControls)
	if err != nil {
		return 0, fmt.Errorf("marshal suggested controls: %w", err)
	}

	const q = `
INSERT INTO radar.intelligence_alerts (
	organization_id,
	event_id,
	risk_code,
	confidence_score,
	suggested_likelihood_delta,
	reasoning,
	impact_assessment,
	suggested_controls,
	status,
	created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10)
ON CONFLICT (event_id, risk_code) DO NOTHING
`

	var created int64
	for _, code := range codes {
		commandTag, err := p.pool.Exec(
			ctx,
			q,
			organizationID,
			eventID,
			code,
			judgement.Confidence,
			judgement.LikelihoodDelta,
			judgement.Reasoning,
			judgement.ImpactAssessment,
			string(controlsJSON),
			StatusPending,
			globaltime.UTC(),
		)
		if err != nil {
			return created, fmt.Errorf("insert alert event_id=%d risk_code=%s: %w", eventID, code, err)
		}
		created += commandTag.RowsAffected()
	}

	if created > 0 {
		p.logger.Info().
			Int64("organization_id", organizationID).
			Int64("event_id", eventID).
			Int64("alerts_created", created).
			Str("source", judgement.Source).
			Msg("published intelligence alerts")
	}
	return created, nil
}

// CreateTestAlert inserts a synthetic pre-analyzed event plus one pending
// alert against riskCode, for verifying the delivery path end to end.
func (p *Publisher) CreateTestAlert(ctx context.Context, organizationID int64, riskCode string) (alertID int64, alertUUID string, err error) {
	if p == nil || p.pool == nil {
		return 0, "", fmt.Errorf("alert publisher is not initialized")
	}

	riskCode = strings.ToUpper(strings.TrimSpace(riskCode))
	if riskCode == "" {
		return 0, "", fmt.Errorf("risk code is empty")
	}

	tx, err := p.pool.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return 0, "", fmt.Errorf("begin test alert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	now := globaltime.UTC()
	// Unique per call so the dedup index never rejects a second test.
	sourceURL := "urn:riskradar:test-alert:" + uuid.NewString()

	const insertEvent = `
INSERT INTO radar.external_events (
	organization_id,
	title,
	summary,
	source_name,
	source_url,
	published_at,
	category,
	matched_keywords,
	analyzed_at,
	created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, '[]'::jsonb, $8, $8)
RETURNING event_id
`

	var eventID int64
	if err := tx.QueryRow(
		ctx,
		insertEvent,
		organizationID,
		"Test alert: verify delivery path",
		"Synthetic event created by the test-alert operation. Safe to dismiss.",
		"riskradar",
		sourceURL,
		now,
		"other",
		now,
	).Scan(&eventID); err != nil {
		return 0, "", fmt.Errorf("insert test event: %w", err)
	}

	const insertAlert = `
INSERT INTO radar.intelligence_alerts (
	organization_id,
	event_id,
	risk_code,
	confidence_score,
	suggested_likelihood_delta,
	reasoning,
	impact_assessment,
	suggested_controls,
	status,
	created_at
)
VALUES ($1, $2, $3, 1.0, 0, $4, $5, '[]'::jsonb, $6, $7)
RETURNING alert_id, alert_uuid::text
`

	if err := tx.QueryRow(
		ctx,
		insertAlert,
		organizationID,
		eventID,
		riskCode,
		"Synthetic test alert; no action required.",
		"None. This alert exists only to verify delivery.",
		StatusPending,
		now,
	).Scan(&alertID, &alertUUID); err != nil {
		return 0, "", fmt.Errorf("insert test alert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, "", fmt.Errorf("commit test alert tx: %w", err)
	}

	p.logger.Info().
		Int64("organization_id", organizationID).
		Str("risk_code", riskCode).
		Str("alert_uuid", alertUUID).
		Msg("created test alert")
	return alertID, alertUUID, nil
}
