package keywords

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"vigil.fyi/riskradar/internal/db"
)

// Registry loads the merged keyword set for an organization.
type Registry struct {
	pool   *db.Pool
	logger zerolog.Logger
}

func NewRegistry(pool *db.Pool, logger zerolog.Logger) *Registry {
	return &Registry{
		pool:   pool,
		logger: logger,
	}
}

// Load merges the built-in corpus with the organization's active keyword
// rows. Rows with an unknown dictionary category are skipped, not fatal.
func (r *Registry) Load(ctx context.Context, organizationID int64) (*Set, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("keyword registry is not initialized")
	}

	const q = `
SELECT category, keyword
FROM radar.keyword_entries
WHERE active
  AND (organization_id IS NULL OR organization_id = $1)
ORDER BY keyword_entry_id
`

	rows, err := r.pool.Query(ctx, q, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query keyword entries: %w", err)
	}
	defer rows.Close()

	entries := DefaultCorpus()
	skipped := 0
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.Category, &entry.Keyword); err != nil {
			return nil, fmt.Errorf("scan keyword entry: %w", err)
		}
		if !IsDictionaryCategory(entry.Category) {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keyword entries: %w", err)
	}

	if skipped > 0 {
		r.logger.Warn().
			Int64("organization_id", organizationID).
			Int("skipped", skipped).
			Msg("keyword entries with unknown category ignored")
	}

	return NewSet(entries), nil
}
