package risks

import (
	"context"
	"fmt"
	"strings"

	"vigil.fyi/riskradar/internal/db"
)

// Risk is a read-only summary of one registered risk, owned by the risk
// register collaborator. The pipeline consumes codes and titles only.
type Risk struct {
	Code  string
	Title string
}

// ActiveRisks returns the organization's active risk list, fetched fresh per
// run; no staleness guarantee is required or offered.
func ActiveRisks(ctx context.Context, pool *db.Pool, organizationID int64) ([]Risk, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool is nil")
	}

	const q = `
SELECT risk_code, risk_title
FROM radar.register_risks
WHERE active
  AND organization_id = $1
ORDER BY risk_code
`

	rows, err := pool.Query(ctx, q, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query active risks: %w", err)
	}
	defer rows.Close()

	riskList := make([]Risk, 0, 32)
	for rows.Next() {
		var r Risk
		if err := rows.Scan(&r.Code, &r.Title); err != nil {
			return nil, fmt.Errorf("scan risk: %w", err)
		}
		r.Code = strings.TrimSpace(r.Code)
		if r.Code == "" {
			continue
		}
		riskList = append(riskList, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate risks: %w", err)
	}
	return riskList, nil
}

// HasCode reports whether code is present in the risk list.
func HasCode(riskList []Risk, code string) bool {
	for _, r := range riskList {
		if strings.EqualFold(r.Code, code) {
			return true
		}
	}
	return false
}
