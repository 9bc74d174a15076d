package feeds

import (
	"context"
	"fmt"

	"vigil.fyi/riskradar/internal/db"
)

// Source is one feed to poll.
type Source struct {
	FeedSourceID   int64
	OrganizationID *int64
	Name           string
	URL            string
	Category       string
	Country        string
}

// ListActiveSources returns the feed list for an organization. An
// organization that owns active sources uses exactly those; otherwise the
// global defaults (organization_id IS NULL) apply.
func ListActiveSources(ctx context.Context, pool *db.Pool, organizationID int64) ([]Source, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool is nil")
	}

	own, err := querySources(ctx, pool, &organizationID)
	if err != nil {
		return nil, err
	}
	if len(own) > 0 {
		return own, nil
	}
	return querySources(ctx, pool, nil)
}

func querySources(ctx context.Context, pool *db.Pool, organizationID *int64) ([]Source, error) {
	const q = `
SELECT
	feed_source_id,
	organization_id,
	name,
	url,
	category,
	country
FROM radar.feed_sources
WHERE active
  AND (($1::bigint IS NULL AND organization_id IS NULL) OR organization_id = $1)
ORDER BY feed_source_id
`

	rows, err := pool.Query(ctx, q, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query feed sources: %w", err)
	}
	defer rows.Close()

	sources := make([]Source, 0, 16)
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.FeedSourceID, &s.OrganizationID, &s.Name, &s.URL, &s.Category, &s.Country); err != nil {
			return nil, fmt.Errorf("scan feed source: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed sources: %w", err)
	}
	return sources, nil
}
