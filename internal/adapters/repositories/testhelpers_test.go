package repositories

import (
	"context"
	"database/sql"
	"path/filepath"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/db"
	"testing"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, dialect, err := db.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := InitSchema(context.Background(), sqlDB, dialect); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return sqlDB
}

func newTestUser(t *testing.T, sqlDB *sql.DB, email string) int64 {
	t.Helper()

	u := &domain.User{Email: email, PasswordHash: "x"}
	if err := NewSQLUserRepository(sqlDB, db.SQLite).CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func seedTaxonomy(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	path := filepath.Join("..", "..", "..", "data", "seeds", "taxonomy.json")
	if err := SeedFromJSON(context.Background(), sqlDB, db.SQLite, path); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
