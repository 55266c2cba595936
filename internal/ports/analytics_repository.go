package ports

import (
	"context"
	"street-screens-service/internal/domain"
)

type AnalyticsRepository interface {
	RecordVideoView(ctx context.Context, v *domain.VideoView) error
	// Per-video aggregates for all videos of a campaign, including videos with no views.
	CampaignVideoStats(ctx context.Context, campaignID int64) ([]domain.VideoStats, error)
}
