package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"street-screens-service/internal/platform/db"
	"street-screens-service/internal/platform/metrics"
	"street-screens-service/internal/platform/obs"
	"street-screens-service/internal/ports"
	"strings"
	"time"
)

// SQLPlacesCache keeps raw provider responses keyed by query and language.
// Query keys are normalized (trimmed, lowercased) before lookup.
type SQLPlacesCache struct {
	DB      *sql.DB
	Dialect db.Dialect
	Now     func() time.Time
}

func NewSQLPlacesCache(sqlDB *sql.DB, dialect db.Dialect) *SQLPlacesCache {
	return &SQLPlacesCache{DB: sqlDB, Dialect: dialect}
}

var _ ports.PlacesCache = (*SQLPlacesCache)(nil)

func (s *SQLPlacesCache) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC().Truncate(time.Microsecond)
	}
	return time.Now().UTC().Truncate(time.Microsecond)
}

func normalizeKey(query, language string) (string, string) {
	return strings.ToLower(strings.TrimSpace(query)), strings.ToLower(strings.TrimSpace(language))
}

// Get returns the cached payload when it is younger than maxAge.
// A zero maxAge accepts any age.
func (s *SQLPlacesCache) Get(
	ctx context.Context,
	query, language string,
	maxAge time.Duration,
) (_ []byte, _ bool, err error) {
	defer obs.Time(ctx, "places.cache.get")(&err)

	if s.DB == nil {
		return nil, false, errors.New("places cache: db is nil")
	}

	q, lang := normalizeKey(query, language)
	if q == "" {
		return nil, false, nil
	}

	var payload string
	var fetchedAt time.Time
	err = s.DB.QueryRowContext(ctx, s.Dialect.Rebind(`
	SELECT payload, fetched_at
	FROM places_cache
	WHERE query = ? AND language = ?;
	`), q, lang).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.PlacesCache.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get places cache query=%q: %w", q, err)
	}

	if maxAge > 0 && s.now().Sub(fetchedAt) > maxAge {
		metrics.PlacesCache.WithLabelValues("stale").Inc()
		return nil, false, nil
	}

	metrics.PlacesCache.WithLabelValues("hit").Inc()
	return []byte(payload), true, nil
}

// Put stores or replaces the payload for a query.
func (s *SQLPlacesCache) Put(ctx context.Context, query, language string, payload []byte) error {
	if s.DB == nil {
		return errors.New("places cache: db is nil")
	}

	q, lang := normalizeKey(query, language)
	if q == "" {
		return fmt.Errorf("insert places cache: empty query key")
	}

	_, err := s.DB.ExecContext(ctx, s.Dialect.Rebind(`
	INSERT INTO places_cache (query, language, payload, fetched_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (query, language) DO UPDATE
	SET payload = EXCLUDED.payload,
		fetched_at = EXCLUDED.fetched_at;
	`), q, lang, string(payload), s.now())
	if err != nil {
		return fmt.Errorf("insert places cache query=%q: %w", q, err)
	}

	return nil
}
