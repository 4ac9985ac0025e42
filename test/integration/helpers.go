// Package integration holds tests that exercise the PostgreSQL repositories
// against a real database.  They are skipped unless RISKRADAR_INTEGRATION_TEST
// is set; the target database is dropped to a clean state between tests, so
// never point them at anything but a disposable instance.
package integration

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridiancap/riskradar/internal/config"
	"github.com/meridiancap/riskradar/internal/domain/assessment"
	"github.com/meridiancap/riskradar/internal/domain/rating"
	"github.com/meridiancap/riskradar/internal/infrastructure/database/postgres"
	"github.com/meridiancap/riskradar/internal/infrastructure/database/postgres/repositories"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
)

const (
	envEnabled  = "RISKRADAR_INTEGRATION_TEST"
	envHost     = "RISKRADAR_TEST_DB_HOST"
	envPort     = "RISKRADAR_TEST_DB_PORT"
	envUser     = "RISKRADAR_TEST_DB_USER"
	envPassword = "RISKRADAR_TEST_DB_PASSWORD"
	envDBName   = "RISKRADAR_TEST_DB_NAME"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// setup connects, migrates, truncates all data tables, and seeds one owner.
func setup(t *testing.T) (*postgres.Connection, uuid.UUID) {
	t.Helper()
	if os.Getenv(envEnabled) == "" {
		t.Skipf("integration tests disabled; set %s=1 to run", envEnabled)
	}

	port, err := strconv.Atoi(envOr(envPort, "5432"))
	require.NoError(t, err)

	log := logging.NewNop()
	conn, err := postgres.NewConnection(config.DatabaseConfig{
		Host:     envOr(envHost, "localhost"),
		Port:     port,
		User:     envOr(envUser, "riskradar"),
		Password: envOr(envPassword, "riskradar"),
		DBName:   envOr(envDBName, "riskradar_test"),
		SSLMode:  "disable",
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.RunMigrations("../../migrations"))

	_, err = conn.DB().Exec(`
		TRUNCATE news_alert_impacts, news_alerts, portfolio,
		         assessment_history, domain_scores, assessments,
		         companies, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	ownerID := seedUser(t, conn, "analyst")
	return conn, ownerID
}

func seedUser(t *testing.T, conn *postgres.Connection, username string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := conn.DB().QueryRow(`
		INSERT INTO users (username, password_hash, display_name)
		VALUES ($1, 'x', $2)
		RETURNING id`, username, username).Scan(&id)
	require.NoError(t, err)
	return id
}

// seedCompleted creates a company plus a completed assessment with one
// domain-1 score, returning both IDs.
func seedCompleted(t *testing.T, conn *postgres.Connection, ownerID uuid.UUID, name string) (companyID, assessmentID int64) {
	t.Helper()
	ctx := context.Background()
	log := logging.NewNop()
	companies := repositories.NewPostgresCompanyRepo(conn, log)
	assessments := repositories.NewPostgresAssessmentRepo(conn, log)

	company := &assessment.Company{Name: name}
	require.NoError(t, companies.Create(ctx, company))

	a := &assessment.Assessment{
		CompanyID: company.ID,
		OwnerID:   ownerID,
		Status:    assessment.StatusPending,
	}
	require.NoError(t, assessments.Create(ctx, a))

	require.NoError(t, assessments.SaveAnalysisResult(ctx, a.ID, assessment.AnalysisUpdate{
		Narrative:      "Integration fixture narrative.",
		DomainRatings:  map[int]rating.Rating{1: rating.RatingLow},
		CompositeScore: 3,
		CompositeLabel: rating.LabelMediumLowRisk,
		AIModel:        "fixture-model",
		DomainSummaries: map[int]string{
			1: "Fixture summary.",
		},
		Scores: []*assessment.DomainScore{{
			DomainNumber:    1,
			QuestionKey:     "core_function_automation",
			QuestionText:    "Can the core function be automated?",
			AIRating:        rating.RatingLow,
			AIReasoning:     "Fixture reasoning.",
			AIConfidence:    rating.ConfidenceHigh,
			EffectiveRating: rating.RatingLow,
		}},
		History: assessment.HistoryEntry{
			AssessmentID: a.ID,
			Action:       assessment.ActionAnalysisCompleted,
		},
	}))
	return company.ID, a.ID
}
