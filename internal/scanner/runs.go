package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vigil.fyi/riskradar/internal/globaltime"
)

// Run statuses recorded in the audit ledger.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusPartial   = "partial"
	RunStatusFailed    = "failed"
)

// SourceError records one feed that could not be fetched during a run.
type SourceError struct {
	SourceName string `json:"source_name"`
	Error      string `json:"error"`
}

// Summary is the outcome of one full scan, mirrored into radar.scan_runs.
type Summary struct {
	RunUUID        string
	OrganizationID int64
	Trigger        string
	StartedAt      time.Time
	FinishedAt     time.Time
	Status         string
	FeedsProcessed int
	ItemsStored    int
	ItemsFiltered  int
	ItemsDuplicate int
	EventsAnalyzed int
	AlertsCreated  int
	SourceErrors   []SourceError
}

func (s *Service) openRun(ctx context.Context, organizationID int64, trigger string) (runUUID string, startedAt time.Time, err error) {
	runUUID = uuid.NewString()
	startedAt = globaltime.UTC()

	const q = `
INSERT INTO radar.scan_runs (
	scan_run_uuid,
	organization_id,
	trigger,
	started_at,
	status,
	source_errors,
	created_at,
	updated_at
)
VALUES ($1, $2, $3, $4, $5, '[]'::jsonb, $4, $4)
`
	if _, err := s.pool.Exec(ctx, q, runUUID, organizationID, trigger, startedAt, RunStatusRunning); err != nil {
		return "", time.Time{}, fmt.Errorf("open scan run: %w", err)
	}
	return runUUID, startedAt, nil
}

func (s *Service) finalizeRun(ctx context.Context, summary Summary, errorMessage string) error {
	sourceErrorsJSON, err := json.Marshal(summary.SourceErrors)
	if err != nil {
		return fmt.Errorf("marshal source errors: %w", err)
	}

	const q = `
UPDATE radar.scan_runs
SET
	finished_at = $2,
	status = $3,
	feeds_processed = $4,
	items_stored = $5,
	items_filtered = $6,
	items_duplicate = $7,
	events_analyzed = $8,
	alerts_created = $9,
	source_errors = $10::jsonb,
	error_message = NULLIF($11, ''),
	updated_at = $2
WHERE scan_run_uuid = $1
`
	if _, err := s.pool.Exec(
		ctx,
		q,
		summary.RunUUID,
		summary.FinishedAt,
		summary.Status,
		summary.FeedsProcessed,
		summary.ItemsStored,
		summary.ItemsFiltered,
		summary.ItemsDuplicate,
		summary.EventsAnalyzed,
		summary.AlertsCreated,
		string(sourceErrorsJSON),
		errorMessage,
	); err != nil {
		return fmt.Errorf("finalize scan run %s: %w", summary.RunUUID, err)
	}
	return nil
}

// RunRecord is one ledger row, as reported to operators.
type RunRecord struct {
	RunUUID        string        `json:"run_uuid"`
	Trigger        string        `json:"trigger"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     *time.Time    `json:"finished_at,omitempty"`
	Status         string        `json:"status"`
	FeedsProcessed int           `json:"feeds_processed"`
	ItemsStored    int           `json:"items_stored"`
	ItemsFiltered  int           `json:"items_filtered"`
	ItemsDuplicate int           `json:"items_duplicate"`
	EventsAnalyzed int           `json:"events_analyzed"`
	AlertsCreated  int           `json:"alerts_created"`
	SourceErrors   []SourceError `json:"source_errors,omitempty"`
	ErrorMessage   *string       `json:"error_message,omitempty"`
}

// ListRuns returns the organization's most recent scan runs, newest first.
func (s *Service) ListRuns(ctx context.Context, organizationID int64, limit int) ([]RunRecord, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("scanner service is not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	const q = `
SELECT
	scan_run_uuid::text,
	trigger,
	started_at,
	finished_at,
	status,
	feeds_processed,
	items_stored,
	items_filtered,
	items_duplicate,
	events_analyzed,
	alerts_created,
	source_errors,
	error_message
FROM radar.scan_runs
WHERE organization_id = $1
ORDER BY scan_run_id DESC
LIMIT $2
`

	rows, err := s.pool.Query(ctx, q, organizationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query scan runs: %w", err)
	}
	defer rows.Close()

	records := make([]RunRecord, 0, limit)
	for rows.Next() {
		var (
			record          RunRecord
			sourceErrorsRaw []byte
		)
		if err := rows.Scan(
			&record.RunUUID,
			&record.Trigger,
			&record.StartedAt,
			&record.FinishedAt,
			&record.Status,
			&record.FeedsProcessed,
			&record.ItemsStored,
			&record.ItemsFiltered,
			&record.ItemsDuplicate,
			&record.EventsAnalyzed,
			&record.AlertsCreated,
			&sourceErrorsRaw,
			&record.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		if len(sourceErrorsRaw) > 0 && string(sourceErrorsRaw) != "null" {
			_ = json.Unmarshal(sourceErrorsRaw, &record.SourceErrors)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan runs: %w", err)
	}
	return records, nil
}
