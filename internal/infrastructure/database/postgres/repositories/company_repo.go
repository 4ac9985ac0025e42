package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/meridiancap/riskradar/internal/domain/assessment"
	"github.com/meridiancap/riskradar/internal/infrastructure/database/postgres"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/pkg/errors"
)

type postgresCompanyRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPostgresCompanyRepo builds the company repository.
func NewPostgresCompanyRepo(conn *postgres.Connection, log logging.Logger) assessment.CompanyRepository {
	return &postgresCompanyRepo{conn: conn, log: log}
}

func (r *postgresCompanyRepo) FindByName(ctx context.Context, name string) (*assessment.Company, error) {
	query := `
		SELECT id, name, sector, description, created_at, updated_at
		FROM companies
		WHERE LOWER(name) = LOWER($1)
	`
	c := &assessment.Company{}
	err := r.conn.DB().QueryRowContext(ctx, query, name).Scan(
		&c.ID, &c.Name, &c.Sector, &c.Description, &c.CreatedAt, &c.UpdatedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to look up company")
	}
	return c, nil
}

func (r *postgresCompanyRepo) Create(ctx context.Context, c *assessment.Company) error {
	query := `
		INSERT INTO companies (name, sector, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.conn.DB().QueryRowContext(ctx, query, c.Name, c.Sector, c.Description).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to create company")
	}
	return nil
}

func (r *postgresCompanyRepo) UpdateSector(ctx context.Context, id int64, sector string) error {
	query := `UPDATE companies SET sector = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.conn.DB().ExecContext(ctx, query, sector, id); err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to update company sector")
	}
	return nil
}
