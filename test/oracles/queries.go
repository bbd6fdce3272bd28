// Package oracles holds SQL invariant checks run against the applications
// table during and after a stress run. A non-empty result is a violation.
package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_decision_requires_score",
			SQL: `SELECT application_id FROM applications
                  WHERE decision IS NOT NULL AND score IS NULL`,
		},
		{
			Name: "O2_decision_requires_reason",
			SQL: `SELECT application_id FROM applications
                  WHERE decision IS NOT NULL
                    AND (decision_reason IS NULL OR decision_reason = '')`,
		},
		{
			Name: "O3_decision_values",
			SQL: `SELECT application_id FROM applications
                  WHERE decision IS NOT NULL AND decision NOT IN ('Approved','Denied')`,
		},
		{
			Name: "O4_supported_scales",
			SQL: `SELECT application_id FROM applications
                  WHERE score_scale IS NOT NULL AND score_scale NOT IN (5, 10, 50, 100)`,
		},
		{
			Name: "O5_score_scale_pairing",
			SQL: `SELECT application_id FROM applications
                  WHERE (score IS NULL) <> (score_scale IS NULL)`,
		},
		{
			Name: "O6_finish_after_start",
			SQL: `SELECT application_id FROM applications
                  WHERE finished_at IS NOT NULL AND started_at IS NOT NULL
                    AND finished_at < started_at`,
		},
		{
			Name: "O7_decided_records_reviewer",
			SQL: `SELECT application_id FROM applications
                  WHERE decision IS NOT NULL AND reviewer_id IS NULL`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row
// text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
