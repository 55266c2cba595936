package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"street-screens-service/internal/adapters/repositories"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/enrichment"
	"street-screens-service/internal/platform/db"
	"testing"
)

type testStore struct {
	DB        *sql.DB
	Screens   *repositories.SQLScreenRepository
	Campaigns *repositories.SQLCampaignRepository
	Taxonomy  *repositories.SQLTaxonomyRepository
	Analytics *repositories.SQLAnalyticsRepository
	Users     *repositories.SQLUserRepository
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()
	ctx := context.Background()

	sqlDB, dialect, err := db.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := repositories.InitSchema(ctx, sqlDB, dialect); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	seed := filepath.Join("..", "..", "data", "seeds", "taxonomy.json")
	if err := repositories.SeedFromJSON(ctx, sqlDB, dialect, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	return &testStore{
		DB:        sqlDB,
		Screens:   repositories.NewSQLScreenRepository(sqlDB, dialect),
		Campaigns: repositories.NewSQLCampaignRepository(sqlDB, dialect),
		Taxonomy:  repositories.NewSQLTaxonomyRepository(sqlDB, dialect),
		Analytics: repositories.NewSQLAnalyticsRepository(sqlDB, dialect),
		Users:     repositories.NewSQLUserRepository(sqlDB, dialect),
	}
}

func (s *testStore) user(t *testing.T, email string) int64 {
	t.Helper()

	u := &domain.User{Email: email, PasswordHash: "x"}
	if err := s.Users.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

// recordingSubmitter accepts every job and keeps it for inspection.
type recordingSubmitter struct {
	jobs []enrichment.Job
}

func (r *recordingSubmitter) Submit(job enrichment.Job) bool {
	r.jobs = append(r.jobs, job)
	return true
}

func ptr[T any](v T) *T { return &v }
