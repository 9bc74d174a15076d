package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vigil.fyi/riskradar/internal/db"
	"vigil.fyi/riskradar/internal/feeds"
	"vigil.fyi/riskradar/internal/globaltime"
)

// Outcome is the result of offering one feed item to the gateway.
type Outcome string

const (
	OutcomeStored    Outcome = "stored"
	OutcomeDuplicate Outcome = "duplicate"
)

// Event is one stored external event.
type Event struct {
	EventID         int64
	EventUUID       string
	OrganizationID  int64
	Title           string
	Summary         string
	SourceName      string
	SourceURL       string
	PublishedAt     time.Time
	Category        string
	MatchedKeywords []string
	AnalyzedAt      *time.Time
	CreatedAt       time.Time
}

// Gateway persists qualifying events and answers dedup questions. The unique
// index on (organization_id, source_url) is the authoritative guard: a
// concurrent insert of the same item degrades to a duplicate outcome.
type Gateway struct {
	pool   *db.Pool
	logger zerolog.Logger
}

func NewGateway(pool *db.Pool, logger zerolog.Logger) *Gateway {
	return &Gateway{
		pool:   pool,
		logger: logger,
	}
}

// StoreIfNew inserts the item as a pending event unless the organization has
// already seen its source URL.
func (g *Gateway) StoreIfNew(ctx context.Context, organizationID int64, item feeds.Item, source feeds.Source, category string, matchedKeywords []string) (Outcome, error) {
	if g == nil || g.pool == nil {
		return "", fmt.Errorf("event gateway is not initialized")
	}

	sourceURL := strings.TrimSpace(item.Link)
	if sourceURL == "" {
		// Feeds without per-item links still dedup, keyed by source + title.
		sourceURL = "urn:riskradar:" + strings.TrimSpace(source.Name) + ":" + strings.ToLower(strings.TrimSpace(item.Title))
	}

	matchedJSON, err := json.Marshal(matchedKeywords)
	if err != nil {
		return "", fmt.Errorf("marshal matched keywords: %w", err)
	}

	const q = `
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
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, NULL, $9)
ON CONFLICT (organization_id, source_url) DO NOTHING
`

	commandTag, err := g.pool.Exec(
		ctx,
		q,
		organizationID,
		item.Title,
		item.Description,
		source.Name,
		sourceURL,
		item.PublishedAt.UTC(),
		category,
		string(matchedJSON),
		globaltime.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert external event organization_id=%d: %w", organizationID, err)
	}

	if commandTag.RowsAffected() == 0 {
		return OutcomeDuplicate, nil
	}
	return OutcomeStored, nil
}

// ListUnanalyzed returns up to limit pending events for the organization,
// oldest first, so backlog clears in arrival order.
func (g *Gateway) ListUnanalyzed(ctx context.Context, organizationID int64, limit int) ([]Event, error) {
	if g == nil || g.pool == nil {
		return nil, fmt.Errorf("event gateway is not initialized")
	}
	if limit <= 0 {
		return nil, nil
	}

	const q = `
SELECT
	event_id,
	event_uuid::text,
	organization_id,
	title,
	summary,
	source_name,
	source_url,
	published_at,
	category,
	matched_keywords,
	created_at
FROM radar.external_events
WHERE organization_id = $1
  AND analyzed_at IS NULL
ORDER BY event_id
LIMIT $2
`

	rows, err := g.pool.Query(ctx, q, organizationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query unanalyzed events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, limit)
	for rows.Next() {
		var (
			event      Event
			matchedRaw []byte
		)
		if err := rows.Scan(
			&event.EventID,
			&event.EventUUID,
			&event.OrganizationID,
			&event.Title,
			&event.Summary,
			&event.SourceName,
			&event.SourceURL,
			&event.PublishedAt,
			&event.Category,
			&matchedRaw,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan unanalyzed event: %w", err)
		}
		event.MatchedKeywords = decodeKeywords(matchedRaw)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unanalyzed events: %w", err)
	}
	return events, nil
}

// StampAnalyzed marks one event as analyzed. This is the only mutation an
// event sees after insert; leaving the stamp unset keeps the event in the
// backlog for the next run.
func (g *Gateway) StampAnalyzed(ctx context.Context, organizationID, eventID int64, analyzedAt time.Time) error {
	if g == nil || g.pool == nil {
		return fmt.Errorf("event gateway is not initialized")
	}

	const q = `
UPDATE radar.external_events
SET analyzed_at = $3
WHERE organization_id = $1
  AND event_id = $2
`
	if _, err := g.pool.Exec(ctx, q, organizationID, eventID, analyzedAt.UTC()); err != nil {
		return fmt.Errorf("stamp analyzed event_id=%d: %w", eventID, err)
	}
	return nil
}

// ResetFilter narrows which analyzed events go back into the backlog.
type ResetFilter struct {
	Category string
	Since    *time.Time
}

// ResetAnalysis clears analyzed_at on the organization's events matching the
// filter and returns how many rows changed.
func (g *Gateway) ResetAnalysis(ctx context.Context, organizationID int64, filter ResetFilter) (int64, error) {
	if g == nil || g.pool == nil {
		return 0, fmt.Errorf("event gateway is not initialized")
	}

	const q = `
UPDATE radar.external_events
SET analyzed_at = NULL
WHERE organization_id = $1
  AND analyzed_at IS NOT NULL
  AND ($2 = '' OR category = $2)
  AND ($3::timestamptz IS NULL OR created_at >= $3)
`

	category := strings.TrimSpace(strings.ToLower(filter.Category))
	commandTag, err := g.pool.Exec(ctx, q, organizationID, category, filter.Since)
	if err != nil {
		return 0, fmt.Errorf("reset analysis organization_id=%d: %w", organizationID, err)
	}
	return commandTag.RowsAffected(), nil
}

// PurgeScope selects which events an explicit purge removes.
type PurgeScope string

const (
	PurgeUnanalyzed PurgeScope = "unanalyzed"
	PurgeAll        PurgeScope = "all"
)

func ParsePurgeScope(raw string) (PurgeScope, error) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case string(PurgeUnanalyzed):
		return PurgeUnanalyzed, nil
	case string(PurgeAll):
		return PurgeAll, nil
	default:
		return "", fmt.Errorf("purge scope must be %q or %q", PurgeUnanalyzed, PurgeAll)
	}
}

// Purge deletes the organization's events within scope. Alerts created from
// those events are removed only when cascadeAlerts is set.
func (g *Gateway) Purge(ctx context.Context, organizationID int64, scope PurgeScope, cascadeAlerts bool) (eventsDeleted, alertsDeleted int64, err error) {
	if g == nil || g.pool == nil {
		return 0, 0, fmt.Errorf("event gateway is not initialized")
	}

	tx, err := g.pool.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("begin purge tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	onlyUnanalyzed := scope == PurgeUnanalyzed

	if cascadeAlerts {
		const deleteAlerts = `
DELETE FROM radar.intelligence_alerts a
USING radar.external_events e
WHERE a.event_id = e.event_id
  AND e.organization_id = $1
  AND (NOT $2 OR e.analyzed_at IS NULL)
`
		commandTag, err := tx.Exec(ctx, deleteAlerts, organizationID, onlyUnanalyzed)
		if err != nil {
			return 0, 0, fmt.Errorf("purge alerts organization_id=%d: %w", organizationID, err)
		}
		alertsDeleted = commandTag.RowsAffected()
	}

	const deleteEvents = `
DELETE FROM radar.external_events
WHERE organization_id = $1
  AND (NOT $2 OR analyzed_at IS NULL)
`
	commandTag, err := tx.Exec(ctx, deleteEvents, organizationID, onlyUnanalyzed)
	if err != nil {
		return 0, 0, fmt.Errorf("purge events organization_id=%d: %w", organizationID, err)
	}
	eventsDeleted = commandTag.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit purge tx: %w", err)
	}
	return eventsDeleted, alertsDeleted, nil
}

func decodeKeywords(raw []byte) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var keywords []string
	if err := json.Unmarshal(raw, &keywords); err != nil {
		return nil
	}
	return keywords
}
