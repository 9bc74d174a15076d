package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// OrgScanSettings is the resolved per-organization configuration surface.
type OrgScanSettings struct {
	ScannerMode   string
	MinConfidence float64
	LookbackDays  int
}

// LoadOrgSettings returns the organization's settings row, or fallback when
// no row exists.
func (p *Pool) LoadOrgSettings(ctx context.Context, organizationID int64, fallback OrgScanSettings) (OrgScanSettings, error) {
	const q = `
SELECT scanner_mode, min_confidence, lookback_days
FROM radar.org_settings
WHERE organization_id = $1
`

	var settings OrgScanSettings
	err := p.QueryRow(ctx, q, organizationID).Scan(
		&settings.ScannerMode,
		&settings.MinConfidence,
		&settings.LookbackDays,
	)
	if err != nil {
		if IsNoRows(err) {
			return fallback, nil
		}
		return OrgScanSettings{}, fmt.Errorf("load org settings organization_id=%d: %w", organizationID, err)
	}

	settings.ScannerMode = strings.TrimSpace(strings.ToLower(settings.ScannerMode))
	if settings.ScannerMode == "" {
		settings.ScannerMode = fallback.ScannerMode
	}
	if settings.MinConfidence < 0 || settings.MinConfidence > 1 {
		settings.MinConfidence = fallback.MinConfidence
	}
	if settings.LookbackDays < 1 {
		settings.LookbackDays = fallback.LookbackDays
	}
	return settings, nil
}

// UpsertOrgSettings writes the organization's settings row.
func (p *Pool) UpsertOrgSettings(ctx context.Context, organizationID int64, settings OrgScanSettings, now time.Time) error {
	const q = `
INSERT INTO radar.org_settings (
	organization_id,
	scanner_mode,
	min_confidence,
	lookback_days,
	updated_at
)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (organization_id) DO UPDATE
SET
	scanner_mode = EXCLUDED.scanner_mode,
	min_confidence = EXCLUDED.min_confidence,
	lookback_days = EXCLUDED.lookback_days,
	updated_at = EXCLUDED.updated_at
`
	if _, err := p.Exec(ctx, q, organizationID, settings.ScannerMode, settings.MinConfidence, settings.LookbackDays, now); err != nil {
		return fmt.Errorf("upsert org settings organization_id=%d: %w", organizationID, err)
	}
	return nil
}
