package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridiancap/riskradar/internal/domain/assessment"
	"github.com/meridiancap/riskradar/internal/domain/rating"
	"github.com/meridiancap/riskradar/internal/infrastructure/database/postgres"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/pkg/errors"
)

type postgresAssessmentRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPostgresAssessmentRepo builds the assessment repository.
func NewPostgresAssessmentRepo(conn *postgres.Connection, log logging.Logger) assessment.Repository {
	return &postgresAssessmentRepo{conn: conn, log: log}
}

const assessmentColumns = `
	a.id, a.company_id, a.owner_id, a.status, a.narrative,
	a.domain_ratings, a.composite_score, a.composite_rating, a.ai_model,
	a.user_modified, a.notes, a.domain_summaries, a.created_at, a.updated_at,
	c.name, c.sector, c.description
`

const assessmentFrom = `
	FROM assessments a
	JOIN companies c ON c.id = a.company_id
`

func scanAssessment(s scanner) (*assessment.Assessment, error) {
	a := &assessment.Assessment{}
	var ratingsJSON, summariesJSON []byte
	var label *string
	err := s.Scan(
		&a.ID, &a.CompanyID, &a.OwnerID, &a.Status, &a.Narrative,
		&ratingsJSON, &a.CompositeScore, &label, &a.AIModel,
		&a.UserModified, &a.Notes, &summariesJSON, &a.CreatedAt, &a.UpdatedAt,
		&a.CompanyName, &a.CompanySector, &a.CompanyDescription,
	)
	if err != nil {
		return nil, err
	}
	if label != nil {
		l := rating.CompositeLabel(*label)
		a.CompositeLabel = &l
	}
	a.DomainRatings = map[int]rating.Rating{}
	if len(ratingsJSON) > 0 {
		if err := json.Unmarshal(ratingsJSON, &a.DomainRatings); err != nil {
			return nil, errors.Wrap(err, errors.CodeSerialization, "corrupt domain ratings")
		}
	}
	a.DomainSummaries = map[int]string{}
	if len(summariesJSON) > 0 {
		if err := json.Unmarshal(summariesJSON, &a.DomainSummaries); err != nil {
			return nil, errors.Wrap(err, errors.CodeSerialization, "corrupt domain summaries")
		}
	}
	return a, nil
}

func marshalRatings(ratings map[int]rating.Rating) ([]byte, error) {
	if ratings == nil {
		ratings = map[int]rating.Rating{}
	}
	b, err := json.Marshal(ratings)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "failed to encode domain ratings")
	}
	return b, nil
}

func marshalSummaries(summaries map[int]string) ([]byte, error) {
	if summaries == nil {
		summaries = map[int]string{}
	}
	b, err := json.Marshal(summaries)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "failed to encode domain summaries")
	}
	return b, nil
}

func (r *postgresAssessmentRepo) Create(ctx context.Context, a *assessment.Assessment) error {
	ratingsJSON, err := marshalRatings(a.DomainRatings)
	if err != nil {
		return err
	}
	summariesJSON, err := marshalSummaries(a.DomainSummaries)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO assessments (
			company_id, owner_id, status, narrative, domain_ratings,
			composite_score, composite_rating, ai_model, user_modified,
			notes, domain_summaries
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	var label *string
	if a.CompositeLabel != nil {
		s := string(*a.CompositeLabel)
		label = &s
	}
	err = r.conn.DB().QueryRowContext(ctx, query,
		a.CompanyID, a.OwnerID, a.Status, a.Narrative, ratingsJSON,
		a.CompositeScore, label, a.AIModel, a.UserModified,
		a.Notes, summariesJSON,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to create assessment")
	}
	return nil
}

func (r *postgresAssessmentRepo) GetOwned(ctx context.Context, ownerID uuid.UUID, id int64) (*assessment.Assessment, error) {
	query := `SELECT ` + assessmentColumns + assessmentFrom + `WHERE a.id = $1 AND a.owner_id = $2`
	a, err := scanAssessment(r.conn.DB().QueryRowContext(ctx, query, id, ownerID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("assessment not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to load assessment")
	}
	return a, nil
}

func (r *postgresAssessmentRepo) List(ctx context.Context, ownerID uuid.UUID, filter assessment.ListFilter) ([]*assessment.Assessment, error) {
	query := `SELECT ` + assessmentColumns + assessmentFrom + `WHERE a.owner_id = $1`
	args := []interface{}{ownerID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND a.status = $%d", len(args))
	}
	if filter.Sector != nil {
		args = append(args, *filter.Sector)
		query += fmt.Sprintf(" AND c.sector = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND c.name ILIKE $%d", len(args))
	}

	dir := "DESC"
	if filter.Order == "asc" {
		dir = "ASC"
	}
	switch filter.Sort {
	case "name":
		query += " ORDER BY c.name " + dir
	case "score":
		query += " ORDER BY a.composite_score " + dir + " NULLS LAST"
	case "sector":
		query += " ORDER BY c.sector " + dir + " NULLS LAST, c.name ASC"
	default:
		query += " ORDER BY a.updated_at " + dir
	}

	rows, err := r.conn.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to list assessments")
	}
	defer rows.Close()

	var out []*assessment.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to scan assessment")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *postgresAssessmentRepo) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	res, err := r.conn.DB().ExecContext(ctx,
		`DELETE FROM assessments WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to delete assessment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("assessment not found")
	}
	return nil
}

func (r *postgresAssessmentRepo) FindDonor(ctx context.Context, companyID, excludeID int64) (*assessment.Assessment, error) {
	query := `SELECT ` + assessmentColumns + assessmentFrom + `
		WHERE a.company_id = $1 AND a.status = $2 AND a.id <> $3
		ORDER BY a.updated_at DESC
		LIMIT 1`
	a, err := scanAssessment(r.conn.DB().QueryRowContext(ctx, query, companyID, assessment.StatusCompleted, excludeID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to find donor assessment")
	}
	return a, nil
}

func (r *postgresAssessmentRepo) FindOwnedCompleted(ctx context.Context, ownerID uuid.UUID, companyID int64) (*assessment.Assessment, error) {
	query := `SELECT ` + assessmentColumns + assessmentFrom + `
		WHERE a.owner_id = $1 AND a.company_id = $2 AND a.status = $3
		ORDER BY a.updated_at DESC
		LIMIT 1`
	a, err := scanAssessment(r.conn.DB().QueryRowContext(ctx, query, ownerID, companyID, assessment.StatusCompleted))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to find completed assessment")
	}
	return a, nil
}

func (r *postgresAssessmentRepo) SetStatus(ctx context.Context, id int64, status assessment.Status) error {
	res, err := r.conn.DB().ExecContext(ctx,
		`UPDATE assessments SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to update assessment status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("assessment not found")
	}
	return nil
}

func (r *postgresAssessmentRepo) SaveAnalysisResult(ctx context.Context, id int64, update assessment.AnalysisUpdate) error {
	ratingsJSON, err := marshalRatings(update.DomainRatings)
	if err != nil {
		return err
	}
	summariesJSON, err := marshalSummaries(update.DomainSummaries)
	if err != nil {
		return err
	}

	return withTx(ctx, r.conn, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE assessments SET
				status = $1, narrative = $2, domain_ratings = $3,
				composite_score = $4, composite_rating = $5, ai_model = $6,
				domain_summaries = $7, updated_at = NOW()
			WHERE id = $8`,
			assessment.StatusCompleted, update.Narrative, ratingsJSON,
			update.CompositeScore, string(update.CompositeLabel), update.AIModel,
			summariesJSON, id)
		if err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "failed to save analysis result")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.NotFound("assessment not found")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM domain_scores WHERE assessment_id = $1`, id); err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "failed to clear stale scores")
		}
		for _, s := range update.Scores {
			if err := insertScore(ctx, tx, id, s); err != nil {
				return err
			}
		}

		h := update.History
		h.AssessmentID = id
		return insertHistory(ctx, tx, &h)
	})
}

func (r *postgresAssessmentRepo) MarkFailed(ctx context.Context, id int64, message string) error {
	return withTx(ctx, r.conn, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE assessments SET status = $1, updated_at = NOW() WHERE id = $2`,
			assessment.StatusError, id)
		if err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "failed to mark assessment failed")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.NotFound("assessment not found")
		}
		return insertHistory(ctx, tx, &assessment.HistoryEntry{
			AssessmentID: id,
			Action:       assessment.ActionAnalysisFailed,
			NewValue:     &message,
		})
	})
}

func (r *postgresAssessmentRepo) UpdateNotes(ctx context.Context, ownerID uuid.UUID, id int64, notes *string) error {
	return withTx(ctx, r.conn, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE assessments SET notes = $1, updated_at = NOW() WHERE id = $2 AND owner_id = $3`,
			notes, id, ownerID)
		if err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "failed to update notes")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.NotFound("assessment not found")
		}
		return insertHistory(ctx, tx, &assessment.HistoryEntry{
			AssessmentID: id,
			Action:       assessment.ActionNotesUpdated,
			NewValue:     notes,
		})
	})
}

const scoreColumns = `
	id, assessment_id, domain_number, question_key, question_text,
	ai_rating, ai_reasoning, ai_confidence, user_rating, user_reasoning,
	effective_rating
`

func scanScore(s scanner) (*assessment.DomainScore, error) {
	ds := &assessment.DomainScore{}
	var userRating *string
	err := s.Scan(
		&ds.ID, &ds.AssessmentID, &ds.DomainNumber, &ds.QuestionKey, &ds.QuestionText,
		&ds.AIRating, &ds.AIReasoning, &ds.AIConfidence, &userRating, &ds.UserReasoning,
		&ds.EffectiveRating,
	)
	if err != nil {
		return nil, err
	}
	if userRating != nil {
		ur := rating.Rating(*userRating)
		ds.UserRating = &ur
	}
	return ds, nil
}

func insertScore(ctx context.Context, exec queryExecutor, assessmentID int64, s *assessment.DomainScore) error {
	var userRating *string
	if s.UserRating != nil {
		v := string(*s.UserRating)
		userRating = &v
	}
	err := exec.QueryRowContext(ctx, `
		INSERT INTO domain_scores (
			assessment_id, domain_number, question_key, question_text,
			ai_rating, ai_reasoning, ai_confidence, user_rating,
			user_reasoning, effective_rating
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		assessmentID, s.DomainNumber, s.QuestionKey, s.QuestionText,
		s.AIRating, s.AIReasoning, s.AIConfidence, userRating,
		s.UserReasoning, s.EffectiveRating,
	).Scan(&s.ID)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to insert domain score")
	}
	s.AssessmentID = assessmentID
	return nil
}

func (r *postgresAssessmentRepo) ListScores(ctx context.Context, assessmentID int64) ([]*assessment.DomainScore, error) {
	query := `SELECT ` + scoreColumns + `
		FROM domain_scores
		WHERE assessment_id = $1
		ORDER BY domain_number, id`
	rows, err := r.conn.DB().QueryContext(ctx, query, assessmentID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to list scores")
	}
	defer rows.Close()

	var out []*assessment.DomainScore
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to scan score")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *postgresAssessmentRepo) GetScore(ctx context.Context, assessmentID, scoreID int64) (*assessment.DomainScore, error) {
	query := `SELECT ` + scoreColumns + `
		FROM domain_scores
		WHERE id = $1 AND assessment_id = $2`
	s, err := scanScore(r.conn.DB().QueryRowContext(ctx, query, scoreID, assessmentID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.CodeScoreNotFound, "score not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to load score")
	}
	return s, nil
}

func (r *postgresAssessmentRepo) ApplyOverride(ctx context.Context, assessmentID int64, update assessment.OverrideUpdate) error {
	ratingsJSON, err := marshalRatings(update.Recalc.DomainRatings)
	if err != nil {
		return err
	}

	return withTx(ctx, r.conn, func(tx *sql.Tx) error {
		s := update.Score
		var userRating *string
		if s.UserRating != nil {
			v := string(*s.UserRating)
			userRating = &v
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE domain_scores SET
				user_rating = $1, user_reasoning = $2, effective_rating = $3
			WHERE id = $4 AND assessment_id = $5`,
			userRating, s.UserReasoning, s.EffectiveRating, s.ID, assessmentID)
		if err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "failed to apply override")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.New(errors.CodeScoreNotFound, "score not found")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE assessments SET
				domain_ratings = $1, composite_score = $2, composite_rating = $3,
				user_modified = TRUE, updated_at = NOW()
			WHERE id = $4`,
			ratingsJSON, update.Recalc.CompositeScore, string(update.Recalc.CompositeLabel), assessmentID)
		if err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "failed to refresh composite")
		}

		if update.History != nil {
			h := *update.History
			h.AssessmentID = assessmentID
			return insertHistory(ctx, tx, &h)
		}
		return nil
	})
}

func insertHistory(ctx context.Context, exec queryExecutor, h *assessment.HistoryEntry) error {
	err := exec.QueryRowContext(ctx, `
		INSERT INTO assessment_history (assessment_id, action, field_changed, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		h.AssessmentID, h.Action, h.FieldChanged, h.OldValue, h.NewValue,
	).Scan(&h.ID, &h.Timestamp)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to append history")
	}
	return nil
}

func (r *postgresAssessmentRepo) ListHistory(ctx context.Context, assessmentID int64) ([]*assessment.HistoryEntry, error) {
	query := `
		SELECT id, assessment_id, action, field_changed, old_value, new_value, created_at
		FROM assessment_history
		WHERE assessment_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.conn.DB().QueryContext(ctx, query, assessmentID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to list history")
	}
	defer rows.Close()

	var out []*assessment.HistoryEntry
	for rows.Next() {
		h := &assessment.HistoryEntry{}
		if err := rows.Scan(&h.ID, &h.AssessmentID, &h.Action, &h.FieldChanged, &h.OldValue, &h.NewValue, &h.Timestamp); err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to scan history row")
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *postgresAssessmentRepo) AddHistory(ctx context.Context, entry *assessment.HistoryEntry) error {
	return insertHistory(ctx, r.conn.DB(), entry)
}
