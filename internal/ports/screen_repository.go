package ports

import (
	"context"
	"street-screens-service/internal/domain"
)

type ScreenFilter struct {
	OwnerID      *int64
	Status       domain.ScreenStatus
	TypeCategory string
	RegionID     *int64
	DistrictID   *int64
	// case-insensitive substring over title, position, location, type_category, screen_size
	Search string
	// created_at, updated_at, title or status; "-" prefix for descending
	Ordering string
}

type ScreenRepository interface {
	PopularTimesWriter

	CreateScreen(ctx context.Context, s *domain.Screen) error
	// Persist every editable column. popular_times is left alone.
	UpdateScreen(ctx context.Context, s *domain.Screen) error
	DeleteScreen(ctx context.Context, id int64) error
	GetScreen(ctx context.Context, id int64) (*domain.Screen, error)
	// Return the stored raw coordinates of a screen (nil when unset).
	ScreenCoordinates(ctx context.Context, id int64) (map[string]any, error)
	ListScreens(ctx context.Context, f ScreenFilter) ([]*domain.Screen, error)
}
