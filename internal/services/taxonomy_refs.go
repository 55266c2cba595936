package services

import (
	"context"
	"errors"
	"fmt"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/ports"
)

// taxonomyRefs are the foreign keys a screen or campaign points at.
type taxonomyRefs struct {
	RegionID     *int64
	DistrictID   *int64
	InterestIDs  []int64
	VenueTypeIDs []int64
}

// checkTaxonomyRefs reports unknown ids as a field error naming the field
// and the ids, and rejects a district outside the chosen region.
func checkTaxonomyRefs(ctx context.Context, repo ports.TaxonomyRepository, refs taxonomyRefs) error {
	checks := []struct {
		field string
		kind  ports.TaxonomyKind
		ids   []int64
	}{
		{"region_id", ports.KindRegion, optionalID(refs.RegionID)},
		{"district_id", ports.KindDistrict, optionalID(refs.DistrictID)},
		{"interest_ids", ports.KindInterest, refs.InterestIDs},
		{"venue_type_ids", ports.KindVenueType, refs.VenueTypeIDs},
	}

	for _, c := range checks {
		if len(c.ids) == 0 {
			continue
		}
		missing, err := repo.MissingIDs(ctx, c.kind, c.ids)
		if err != nil {
			return fmt.Errorf("check %s: %w", c.field, err)
		}
		if len(missing) > 0 {
			return domain.NewFieldError(c.field, fmt.Sprintf("invalid pk(s) %v: object does not exist", missing))
		}
	}

	if refs.RegionID != nil && refs.DistrictID != nil {
		d, err := repo.GetDistrict(ctx, *refs.DistrictID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewFieldError("district_id", fmt.Sprintf("invalid pk(s) [%d]: object does not exist", *refs.DistrictID))
		}
		if err != nil {
			return fmt.Errorf("check district_id: %w", err)
		}
		if d.RegionID != *refs.RegionID {
			return domain.NewFieldError("district_id", fmt.Sprintf("district %d does not belong to region %d", d.ID, *refs.RegionID))
		}
	}

	return nil
}

func optionalID(id *int64) []int64 {
	if id == nil {
		return nil
	}
	return []int64{*id}
}
