package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/meridiancap/riskradar/internal/domain/portfolio"
	"github.com/meridiancap/riskradar/internal/domain/rating"
	"github.com/meridiancap/riskradar/internal/infrastructure/database/postgres"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/pkg/errors"
)

type postgresPortfolioRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPostgresPortfolioRepo builds the portfolio repository.
func NewPostgresPortfolioRepo(conn *postgres.Connection, log logging.Logger) portfolio.Repository {
	return &postgresPortfolioRepo{conn: conn, log: log}
}

func (r *postgresPortfolioRepo) List(ctx context.Context, ownerID uuid.UUID) ([]*portfolio.EntryView, error) {
	query := `
		SELECT p.id, p.owner_id, p.assessment_id, p.weight, p.added_at,
		       c.name, c.sector, a.composite_score, a.composite_rating,
		       a.domain_ratings, a.updated_at
		FROM portfolio p
		JOIN assessments a ON a.id = p.assessment_id
		JOIN companies c ON c.id = a.company_id
		WHERE p.owner_id = $1 AND a.status = 'completed'
		ORDER BY p.added_at DESC, p.id DESC`
	rows, err := r.conn.DB().QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to list portfolio")
	}
	defer rows.Close()

	var out []*portfolio.EntryView
	for rows.Next() {
		v := &portfolio.EntryView{}
		var label *string
		var ratingsJSON []byte
		err := rows.Scan(
			&v.ID, &v.OwnerID, &v.AssessmentID, &v.Weight, &v.AddedAt,
			&v.CompanyName, &v.CompanySector, &v.CompositeScore, &label,
			&ratingsJSON, &v.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to scan portfolio entry")
		}
		if label != nil {
			l := rating.CompositeLabel(*label)
			v.CompositeLabel = &l
		}
		v.DomainRatings = map[int]rating.Rating{}
		if len(ratingsJSON) > 0 {
			if err := json.Unmarshal(ratingsJSON, &v.DomainRatings); err != nil {
				return nil, errors.Wrap(err, errors.CodeSerialization, "corrupt domain ratings")
			}
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *postgresPortfolioRepo) Add(ctx context.Context, ownerID uuid.UUID, assessmentIDs []int64) error {
	return withTx(ctx, r.conn, func(tx *sql.Tx) error {
		for _, id := range assessmentIDs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO portfolio (owner_id, assessment_id, weight)
				VALUES ($1, $2, 0)
				ON CONFLICT (owner_id, assessment_id) DO NOTHING`,
				ownerID, id)
			if err != nil {
				return errors.Wrap(err, errors.CodeDatabaseError, "failed to add portfolio entry")
			}
		}
		return redistribute(ctx, tx, ownerID)
	})
}

func (r *postgresPortfolioRepo) Remove(ctx context.Context, ownerID uuid.UUID, entryID int64) error {
	return withTx(ctx, r.conn, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM portfolio WHERE id = $1 AND owner_id = $2`, entryID, ownerID)
		if err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "failed to remove portfolio entry")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.New(errors.CodePortfolioEntryNotFound, "portfolio entry not found")
		}
		return redistribute(ctx, tx, ownerID)
	})
}

func (r *postgresPortfolioRepo) UpdateWeights(ctx context.Context, ownerID uuid.UUID, updates []portfolio.WeightUpdate) error {
	return withTx(ctx, r.conn, func(tx *sql.Tx) error {
		for _, u := range updates {
			res, err := tx.ExecContext(ctx,
				`UPDATE portfolio SET weight = $1 WHERE id = $2 AND owner_id = $3`,
				u.Weight, u.EntryID, ownerID)
			if err != nil {
				return errors.Wrap(err, errors.CodeDatabaseError, "failed to update weight")
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return errors.New(errors.CodePortfolioEntryNotFound, "portfolio entry not found")
			}
		}
		return nil
	})
}

func (r *postgresPortfolioRepo) HasEntry(ctx context.Context, ownerID uuid.UUID, assessmentID int64) (bool, error) {
	var exists bool
	err := r.conn.DB().QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM portfolio WHERE owner_id = $1 AND assessment_id = $2)`,
		ownerID, assessmentID).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, errors.CodeDatabaseError, "failed to check portfolio entry")
	}
	return exists, nil
}

// redistribute applies equal weights over the owner's current entry set
// within the caller's transaction.  Rows are locked so concurrent mutations
// serialize on the same owner.
func redistribute(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM portfolio WHERE owner_id = $1 ORDER BY id FOR UPDATE`, ownerID)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to lock portfolio entries")
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return errors.Wrap(err, errors.CodeDatabaseError, "failed to scan portfolio entry id")
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to read portfolio entries")
	}

	for id, weight := range portfolio.EqualWeights(ids) {
		if _, err := tx.ExecContext(ctx,
			`UPDATE portfolio SET weight = $1 WHERE id = $2`, weight, id); err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "failed to write redistributed weight")
		}
	}
	return nil
}
