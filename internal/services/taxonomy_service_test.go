package services

import (
	"context"
	"errors"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/ports"
	"strings"
	"testing"
)

func TestTaxonomyInterestSlug(t *testing.T) {
	ctx := context.Background()
	svc := NewTaxonomyService(newTestStore(t).Taxonomy)

	i := &domain.Interest{Name: "  Board Games "}
	if err := svc.CreateInterest(ctx, i); err != nil {
		t.Fatalf("CreateInterest: %v", err)
	}
	if i.Name != "Board Games" || i.Slug != "board-games" {
		t.Fatalf("interest = %+v", i)
	}

	cyr := &domain.Interest{Name: "Спорт"}
	if err := svc.CreateInterest(ctx, cyr); err != nil {
		t.Fatalf("CreateInterest: %v", err)
	}
	if !strings.HasPrefix(cyr.Slug, "interest-") || len(cyr.Slug) != len("interest-")+8 {
		t.Fatalf("fallback slug = %q", cyr.Slug)
	}

	updated, err := svc.UpdateInterest(ctx, i.ID, ptr("Tabletop"), nil)
	if err != nil {
		t.Fatalf("UpdateInterest: %v", err)
	}
	if updated.Name != "Tabletop" || updated.Slug != "board-games" {
		t.Fatalf("updated = %+v, want slug unchanged", updated)
	}

	if _, err := svc.UpdateInterest(ctx, i.ID, ptr(" "), nil); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("blank name err = %v, want ErrInvalid", err)
	}
	if err := svc.CreateInterest(ctx, &domain.Interest{Name: "Sports"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate err = %v, want ErrConflict", err)
	}
}

func TestTaxonomyVenueTypeUpdate(t *testing.T) {
	ctx := context.Background()
	svc := NewTaxonomyService(newTestStore(t).Taxonomy)

	v, err := svc.UpdateVenueType(ctx, 8, nil, nil, ptr(true))
	if err != nil {
		t.Fatalf("UpdateVenueType: %v", err)
	}
	if !v.IsActive || v.Slug != "highway-billboard" {
		t.Fatalf("venue type = %+v", v)
	}

	inactive := false
	list, err := svc.ListVenueTypes(ctx, ports.TaxonomyFilter{IsActive: &inactive})
	if err != nil {
		t.Fatalf("ListVenueTypes: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("inactive venue types = %d, want 0", len(list))
	}
}

func TestTaxonomyDistricts(t *testing.T) {
	ctx := context.Background()
	svc := NewTaxonomyService(newTestStore(t).Taxonomy)

	if _, err := svc.ListDistricts(ctx, 99, ports.RegionFilter{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown region err = %v, want ErrNotFound", err)
	}
	if err := svc.CreateDistrict(ctx, &domain.District{Name: "Nowhere", Code: "nwh", RegionID: 99}); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("district in unknown region err = %v, want ErrInvalid", err)
	}

	d := &domain.District{Name: "Sergeli", Code: "srg", RegionID: 1}
	if err := svc.CreateDistrict(ctx, d); err != nil {
		t.Fatalf("CreateDistrict: %v", err)
	}
	if d.Code != "SRG" {
		t.Fatalf("code = %q, want SRG", d.Code)
	}

	list, err := svc.ListDistricts(ctx, 1, ports.RegionFilter{})
	if err != nil {
		t.Fatalf("ListDistricts: %v", err)
	}
	if len(list) != 6 {
		t.Fatalf("districts = %d, want 6", len(list))
	}
}
