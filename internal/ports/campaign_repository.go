package ports

import (
	"context"
	"street-screens-service/internal/domain"
)

type CampaignFilter struct {
	OwnerID     *int64
	Status      domain.CampaignStatus
	Currency    string
	RegionID    *int64
	DistrictID  *int64
	InterestID  *int64
	VenueTypeID *int64
	Search      string
	// created_at, updated_at, campaign_name, budget, start_date or end_date; "-" for descending
	Ordering string
}

type CampaignRepository interface {
	CreateCampaign(ctx context.Context, c *domain.Campaign) error
	UpdateCampaign(ctx context.Context, c *domain.Campaign) error
	DeleteCampaign(ctx context.Context, id int64) error
	GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context, f CampaignFilter) ([]*domain.Campaign, error)
	// Atomically add one to involve_count.
	IncrementInvolveCount(ctx context.Context, id int64) error

	AddVideo(ctx context.Context, v *domain.Video) error
	GetVideo(ctx context.Context, id int64) (*domain.Video, error)
	ListVideos(ctx context.Context, campaignID int64) ([]domain.Video, error)
	DeleteVideo(ctx context.Context, id int64) error

	AddImage(ctx context.Context, img *domain.Image) error
	GetImage(ctx context.Context, id int64) (*domain.Image, error)
	ListImages(ctx context.Context, campaignID int64) ([]domain.Image, error)
	DeleteImage(ctx context.Context, id int64) error
}
