package cache

import (
	"context"
	"path/filepath"
	"street-screens-service/internal/adapters/repositories"
	"street-screens-service/internal/platform/db"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *SQLPlacesCache {
	t.Helper()

	sqlDB, dialect, err := db.Open("sqlite", filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := repositories.InitSchema(context.Background(), sqlDB, dialect); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return NewSQLPlacesCache(sqlDB, dialect)
}

func TestPlacesCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	if _, ok, err := c.Get(ctx, "41.3,69.2", "en", time.Hour); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	if err := c.Put(ctx, " Chorsu Bazaar ", "EN", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get(ctx, "chorsu bazaar", "en", time.Hour)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("payload = %s", got)
	}

	if err := c.Put(ctx, "chorsu bazaar", "en", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, _, _ = c.Get(ctx, "chorsu bazaar", "en", 0)
	if string(got) != `{"a":2}` {
		t.Fatalf("payload after overwrite = %s", got)
	}

	if _, ok, _ := c.Get(ctx, "chorsu bazaar", "ru", 0); ok {
		t.Fatal("language must be part of the key")
	}
}

func TestPlacesCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.Now = func() time.Time { return base }
	if err := c.Put(ctx, "q", "en", []byte(`[]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	c.Now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, ok, err := c.Get(ctx, "q", "en", time.Hour); err != nil || ok {
		t.Fatalf("stale entry: ok=%v err=%v", ok, err)
	}
	if _, ok, err := c.Get(ctx, "q", "en", 3*time.Hour); err != nil || !ok {
		t.Fatalf("fresh entry: ok=%v err=%v", ok, err)
	}
}

func TestPlacesCacheRejectsEmptyKey(t *testing.T) {
	c := newTestCache(t)
	if err := c.Put(context.Background(), "  ", "en", []byte(`{}`)); err == nil {
		t.Fatal("expected error for empty key")
	}
}
