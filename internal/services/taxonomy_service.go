package services

import (
	"context"
	"fmt"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/ports"
	"strings"

	"github.com/google/uuid"
)

// TaxonomyService manages regions, districts, interests and venue types.
type TaxonomyService struct {
	repo ports.TaxonomyRepository
}

func NewTaxonomyService(repo ports.TaxonomyRepository) *TaxonomyService {
	return &TaxonomyService{repo: repo}
}

func (s *TaxonomyService) ListRegions(ctx context.Context, f ports.RegionFilter) ([]domain.Region, error) {
	return s.repo.ListRegions(ctx, f)
}

func (s *TaxonomyService) GetRegion(ctx context.Context, id int64) (*domain.Region, error) {
	return s.repo.GetRegion(ctx, id)
}

func (s *TaxonomyService) CreateRegion(ctx context.Context, r *domain.Region) error {
	r.Name = strings.TrimSpace(r.Name)
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	if r.Name == "" {
		return domain.NewFieldError("name", "name is required")
	}
	if r.Code == "" {
		return domain.NewFieldError("code", "code is required")
	}
	return s.repo.CreateRegion(ctx, r)
}

// ListDistricts lists the districts of an existing region.
func (s *TaxonomyService) ListDistricts(ctx context.Context, regionID int64, f ports.RegionFilter) ([]domain.District, error) {
	if _, err := s.repo.GetRegion(ctx, regionID); err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}
	return s.repo.ListDistricts(ctx, regionID, f)
}

func (s *TaxonomyService) CreateDistrict(ctx context.Context, d *domain.District) error {
	d.Name = strings.TrimSpace(d.Name)
	d.Code = strings.ToUpper(strings.TrimSpace(d.Code))
	if d.Name == "" {
		return domain.NewFieldError("name", "name is required")
	}
	if d.Code == "" {
		return domain.NewFieldError("code", "code is required")
	}
	if err := checkTaxonomyRefs(ctx, s.repo, taxonomyRefs{RegionID: &d.RegionID}); err != nil {
		return err
	}
	return s.repo.CreateDistrict(ctx, d)
}

func (s *TaxonomyService) ListInterests(ctx context.Context, f ports.TaxonomyFilter) ([]domain.Interest, error) {
	return s.repo.ListInterests(ctx, f)
}

func (s *TaxonomyService) GetInterest(ctx context.Context, id int64) (*domain.Interest, error) {
	return s.repo.GetInterest(ctx, id)
}

// CreateInterest derives the slug from the name. The slug never changes afterwards.
func (s *TaxonomyService) CreateInterest(ctx context.Context, i *domain.Interest) error {
	i.Name = strings.TrimSpace(i.Name)
	if i.Name == "" {
		return domain.NewFieldError("name", "name is required")
	}
	i.Slug = slugFor("interest", i.Name)
	return s.repo.CreateInterest(ctx, i)
}

// UpdateInterest changes name and description only.
func (s *TaxonomyService) UpdateInterest(ctx context.Context, id int64, name, description *string) (*domain.Interest, error) {
	i, err := s.repo.GetInterest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update interest: %w", err)
	}
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, domain.NewFieldError("name", "name is required")
		}
		i.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		i.Description = *description
	}
	if err := s.repo.UpdateInterest(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *TaxonomyService) DeleteInterest(ctx context.Context, id int64) error {
	return s.repo.DeleteInterest(ctx, id)
}

func (s *TaxonomyService) ListVenueTypes(ctx context.Context, f ports.TaxonomyFilter) ([]domain.VenueType, error) {
	return s.repo.ListVenueTypes(ctx, f)
}

func (s *TaxonomyService) GetVenueType(ctx context.Context, id int64) (*domain.VenueType, error) {
	return s.repo.GetVenueType(ctx, id)
}

func (s *TaxonomyService) CreateVenueType(ctx context.Context, v *domain.VenueType) error {
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" {
		return domain.NewFieldError("name", "name is required")
	}
	v.Slug = slugFor("venue-type", v.Name)
	return s.repo.CreateVenueType(ctx, v)
}

func (s *TaxonomyService) UpdateVenueType(ctx context.Context, id int64, name, description *string, isActive *bool) (*domain.VenueType, error) {
	v, err := s.repo.GetVenueType(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update venue type: %w", err)
	}
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, domain.NewFieldError("name", "name is required")
		}
		v.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		v.Description = *description
	}
	if isActive != nil {
		v.IsActive = *isActive
	}
	if err := s.repo.UpdateVenueType(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *TaxonomyService) DeleteVenueType(ctx context.Context, id int64) error {
	return s.repo.DeleteVenueType(ctx, id)
}

// slugFor falls back to kind plus a short random suffix when the name has
// no ASCII letters or digits.
func slugFor(kind, name string) string {
	if slug := domain.Slugify(name); slug != "" {
		return slug
	}
	return kind + "-" + uuid.NewString()[:8]
}
