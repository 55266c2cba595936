package services

import (
	"context"
	"errors"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/ports"
	"testing"
)

func TestQRResolve(t *testing.T) {
	ctx := context.Background()
	svc, store, owner, _ := newCampaignService(t)
	qr := NewQRService(store.Campaigns)

	c, err := svc.Create(ctx, owner, campaignInput("Spring sale", 100))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	noLink := campaignInput("Offline", 100)
	noLink.Link = "  "
	bare, err := svc.Create(ctx, owner, noLink)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 2; i++ {
		link, err := qr.Resolve(ctx, c.ID)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if link != "https://example.com/promo" {
			t.Fatalf("link = %q", link)
		}
	}

	got, err := store.Campaigns.GetCampaign(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCampaign: %v", err)
	}
	if got.InvolveCount != 2 {
		t.Fatalf("involve_count = %d, want 2", got.InvolveCount)
	}

	if _, err := qr.Resolve(ctx, bare.ID); !errors.Is(err, ErrNoLink) {
		t.Fatalf("no link err = %v, want ErrNoLink", err)
	}
	if _, err := qr.Resolve(ctx, 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing err = %v, want ErrNotFound", err)
	}
}

type failingIncrement struct {
	ports.CampaignRepository
	campaign *domain.Campaign
}

func (f *failingIncrement) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	return f.campaign, nil
}

func (f *failingIncrement) IncrementInvolveCount(ctx context.Context, id int64) error {
	return errors.New("database is locked")
}

func TestQRResolveRedirectsWhenCountFails(t *testing.T) {
	qr := NewQRService(&failingIncrement{campaign: &domain.Campaign{ID: 1, Link: "https://example.com"}})

	link, err := qr.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if link != "https://example.com" {
		t.Fatalf("link = %q", link)
	}
}
