package ports

import (
	"context"
	"street-screens-service/internal/domain"
)

type TaxonomyKind string

const (
	KindRegion    TaxonomyKind = "regions"
	KindDistrict  TaxonomyKind = "districts"
	KindInterest  TaxonomyKind = "interests"
	KindVenueType TaxonomyKind = "venue_types"
)

type RegionFilter struct {
	Code     string
	Search   string
	Ordering string
}

type TaxonomyFilter struct {
	// name, slug or description
	SearchField string
	SearchValue string
	// name, created_at (and is_active for venue types), "-" for descending
	SortBy   []string
	IsActive *bool
}

type TaxonomyRepository interface {
	ListRegions(ctx context.Context, f RegionFilter) ([]domain.Region, error)
	GetRegion(ctx context.Context, id int64) (*domain.Region, error)
	CreateRegion(ctx context.Context, r *domain.Region) error

	ListDistricts(ctx context.Context, regionID int64, f RegionFilter) ([]domain.District, error)
	GetDistrict(ctx context.Context, id int64) (*domain.District, error)
	CreateDistrict(ctx context.Context, d *domain.District) error

	ListInterests(ctx context.Context, f TaxonomyFilter) ([]domain.Interest, error)
	GetInterest(ctx context.Context, id int64) (*domain.Interest, error)
	CreateInterest(ctx context.Context, i *domain.Interest) error
	UpdateInterest(ctx context.Context, i *domain.Interest) error
	DeleteInterest(ctx context.Context, id int64) error

	ListVenueTypes(ctx context.Context, f TaxonomyFilter) ([]domain.VenueType, error)
	GetVenueType(ctx context.Context, id int64) (*domain.VenueType, error)
	CreateVenueType(ctx context.Context, v *domain.VenueType) error
	UpdateVenueType(ctx context.Context, v *domain.VenueType) error
	DeleteVenueType(ctx context.Context, id int64) error

	// Return the ids from the input that have no row of the given kind.
	MissingIDs(ctx context.Context, kind TaxonomyKind, ids []int64) ([]int64, error)
}
