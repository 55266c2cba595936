package repositories

import (
	"context"
	"errors"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/db"
	"testing"
)

func TestUserEmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLUserRepository(newTestDB(t), db.SQLite)

	u := &domain.User{Email: "Jane@Example.com", PasswordHash: "hash", TypeUser: domain.UserAdsClient}
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := repo.GetUserByEmail(ctx, "JANE@example.COM")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != u.ID || got.TypeUser != domain.UserAdsClient {
		t.Fatalf("got %+v", got)
	}

	dup := &domain.User{Email: "jane@example.com", PasswordHash: "hash"}
	if err := repo.CreateUser(ctx, dup); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	if _, err := repo.GetUser(ctx, 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
