package services

import (
	"context"
	"fmt"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/metrics"
	"street-screens-service/internal/ports"
)

// AnalyticsService records playback events sent by players.
type AnalyticsService struct {
	repo ports.AnalyticsRepository
}

func NewAnalyticsService(repo ports.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

func (s *AnalyticsService) RecordView(ctx context.Context, v *domain.VideoView) error {
	if v.WatchDurationSeconds != nil && *v.WatchDurationSeconds < 0 {
		return domain.NewFieldError("watch_duration_seconds", "watch_duration_seconds must not be negative")
	}
	if err := s.repo.RecordVideoView(ctx, v); err != nil {
		return fmt.Errorf("record view video=%d: %w", v.VideoID, err)
	}
	metrics.VideoViews.Inc()
	return nil
}
