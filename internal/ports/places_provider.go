package ports

import (
	"context"
	"street-screens-service/internal/domain"
	"time"
)

// Contract for looking up place data (foot traffic, address, rating) from an external provider.
type PlacesProvider interface {
	// Return popular times for the place nearest to lat/lng, or nil when the provider has none.
	LookupByCoordinates(ctx context.Context, lat, lng float64, language string) (*domain.PopularTimes, error)
	// Return the best match for a free-text query, or domain.ErrNotFound.
	SearchPlace(ctx context.Context, query, language string) (*domain.PlaceDetails, error)
}

// Optional persistent cache in front of a PlacesProvider, keyed by query and language.
type PlacesCache interface {
	Get(ctx context.Context, query, language string, maxAge time.Duration) ([]byte, bool, error)
	Put(ctx context.Context, query, language string, payload []byte) error
}

// Field-only write-back of enrichment results.
type PopularTimesWriter interface {
	// Set popular_times on a single screen without touching any other column.
	UpdatePopularTimes(ctx context.Context, screenID int64, payload domain.PopularTimesPayload) error
}
