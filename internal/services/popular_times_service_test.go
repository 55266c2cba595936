package services

import (
	"context"
	"errors"
	"street-screens-service/internal/adapters/places"
	"street-screens-service/internal/domain"
	"testing"
)

func TestPopularTimesSearch(t *testing.T) {
	ctx := context.Background()

	provider := places.NewMockPlacesProvider()
	provider.SetPlace("Samarqand Darvoza", domain.PlaceDetails{
		Query:        "Samarqand Darvoza",
		Name:         "Samarqand Darvoza",
		PopularTimes: []byte(`[{"day":1,"popular_times":[{"hour":10,"percentage":40}]}]`),
	})
	provider.SetPlace("Empty lot", domain.PlaceDetails{Query: "Empty lot", Name: "Empty lot"})
	svc := NewPopularTimesService(provider)

	got, err := svc.Search(ctx, "  Samarqand Darvoza ", "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got.Name != "Samarqand Darvoza" {
		t.Fatalf("name = %q", got.Name)
	}

	empty, err := svc.Search(ctx, "Empty lot", "ru")
	if err != nil {
		t.Fatalf("place without popular times: %v", err)
	}
	if empty.Name != "Empty lot" || domain.HasPopularTimes(empty.PopularTimes) {
		t.Fatalf("place without popular times = %+v", empty)
	}
	if _, err := svc.Search(ctx, "Nowhere", "uz"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown place err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Search(ctx, "x", "de"); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("bad language err = %v, want ErrInvalid", err)
	}
	if _, err := svc.Search(ctx, " ", "en"); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("empty query err = %v, want ErrInvalid", err)
	}
}

func TestPopularTimesProviderErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := NewPopularTimesService(nil).Search(ctx, "x", "en"); !errors.Is(err, ErrProviderNotConfigured) {
		t.Fatalf("nil provider err = %v, want ErrProviderNotConfigured", err)
	}

	provider := places.NewMockPlacesProvider()
	provider.Err = &places.HTTPStatusError{Code: 402, Body: "no credits"}

	_, err := NewPopularTimesService(provider).Search(ctx, "x", "en")
	var herr *places.HTTPStatusError
	if !errors.As(err, &herr) || herr.Code != 402 {
		t.Fatalf("err = %v, want wrapped 402", err)
	}
}
