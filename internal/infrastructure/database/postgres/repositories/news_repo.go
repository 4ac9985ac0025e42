package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/meridiancap/riskradar/internal/domain/news"
	"github.com/meridiancap/riskradar/internal/infrastructure/database/postgres"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/pkg/errors"
)

type postgresNewsRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPostgresNewsRepo builds the news alert repository.
func NewPostgresNewsRepo(conn *postgres.Connection, log logging.Logger) news.Repository {
	return &postgresNewsRepo{conn: conn, log: log}
}

func (r *postgresNewsRepo) ListAlerts(ctx context.Context, ownerID uuid.UUID, minRelevance int) ([]*news.Alert, error) {
	query := `
		SELECT id, owner_id, headline, source, source_url, published_date,
		       summary, competitor, competitor_type, relevance_score, scanned_at
		FROM news_alerts
		WHERE owner_id = $1 AND relevance_score >= $2
		ORDER BY relevance_score DESC, published_date DESC NULLS LAST, id DESC`
	rows, err := r.conn.DB().QueryContext(ctx, query, ownerID, minRelevance)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to list news alerts")
	}
	defer rows.Close()

	var alerts []*news.Alert
	byID := map[int64]*news.Alert{}
	for rows.Next() {
		a := &news.Alert{}
		var competitorType *string
		err := rows.Scan(
			&a.ID, &a.OwnerID, &a.Headline, &a.Source, &a.SourceURL, &a.PublishedDate,
			&a.Summary, &a.Competitor, &competitorType, &a.RelevanceScore, &a.ScannedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to scan news alert")
		}
		if competitorType != nil {
			ct := news.CompetitorType(*competitorType)
			a.CompetitorType = &ct
		}
		alerts = append(alerts, a)
		byID[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to read news alerts")
	}
	if len(alerts) == 0 {
		return alerts, nil
	}

	impactQuery := `
		SELECT i.id, i.alert_id, i.portfolio_id, c.name, i.explanation
		FROM news_alert_impacts i
		JOIN portfolio p ON p.id = i.portfolio_id
		JOIN assessments a ON a.id = p.assessment_id
		JOIN companies c ON c.id = a.company_id
		JOIN news_alerts n ON n.id = i.alert_id
		WHERE n.owner_id = $1
		ORDER BY i.id`
	impactRows, err := r.conn.DB().QueryContext(ctx, impactQuery, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to list alert impacts")
	}
	defer impactRows.Close()

	for impactRows.Next() {
		imp := &news.Impact{}
		if err := impactRows.Scan(&imp.ID, &imp.AlertID, &imp.PortfolioID, &imp.CompanyName, &imp.Explanation); err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to scan alert impact")
		}
		if a, ok := byID[imp.AlertID]; ok {
			a.Impacts = append(a.Impacts, imp)
		}
	}
	return alerts, impactRows.Err()
}

func (r *postgresNewsRepo) LatestScanTime(ctx context.Context, ownerID uuid.UUID) (time.Time, bool, error) {
	// MAX over zero rows yields NULL, hence the nullable scan target.
	var last sql.NullTime
	err := r.conn.DB().QueryRowContext(ctx,
		`SELECT MAX(scanned_at) FROM news_alerts WHERE owner_id = $1`,
		ownerID).Scan(&last)
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, errors.CodeDatabaseError, "failed to read last scan time")
	}
	if !last.Valid {
		return time.Time{}, false, nil
	}
	return last.Time, true, nil
}

func (r *postgresNewsRepo) Count(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var n int
	err := r.conn.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM news_alerts WHERE owner_id = $1`, ownerID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeDatabaseError, "failed to count news alerts")
	}
	return n, nil
}

func (r *postgresNewsRepo) Headlines(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	rows, err := r.conn.DB().QueryContext(ctx,
		`SELECT headline FROM news_alerts WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to list headlines")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to scan headline")
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *postgresNewsRepo) SaveScan(ctx context.Context, ownerID uuid.UUID, pruneBefore time.Time, alerts []*news.Alert) error {
	return withTx(ctx, r.conn, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM news_alerts WHERE owner_id = $1 AND published_date IS NOT NULL AND published_date < $2`,
			ownerID, pruneBefore)
		if err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "failed to prune expired alerts")
		}

		for _, a := range alerts {
			var competitorType *string
			if a.CompetitorType != nil {
				v := string(*a.CompetitorType)
				competitorType = &v
			}
			err := tx.QueryRowContext(ctx, `
				INSERT INTO news_alerts (
					owner_id, headline, source, source_url, published_date,
					summary, competitor, competitor_type, relevance_score, scanned_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				RETURNING id`,
				ownerID, a.Headline, a.Source, a.SourceURL, a.PublishedDate,
				a.Summary, a.Competitor, competitorType, a.RelevanceScore, a.ScannedAt,
			).Scan(&a.ID)
			if err != nil {
				return errors.Wrap(err, errors.CodeDatabaseError, "failed to insert news alert")
			}
			a.OwnerID = ownerID

			for _, imp := range a.Impacts {
				err := tx.QueryRowContext(ctx, `
					INSERT INTO news_alert_impacts (alert_id, portfolio_id, explanation)
					VALUES ($1, $2, $3)
					RETURNING id`,
					a.ID, imp.PortfolioID, imp.Explanation,
				).Scan(&imp.ID)
				if err != nil {
					return errors.Wrap(err, errors.CodeDatabaseError, "failed to insert alert impact")
				}
				imp.AlertID = a.ID
			}
		}
		return nil
	})
}
