package repositories

import (
	"context"
	"errors"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/db"
	"testing"
)

func TestCampaignVideoStats(t *testing.T) {
	ctx := context.Background()
	sqlDB := newTestDB(t)
	owner := newTestUser(t, sqlDB, "ads@example.com")
	campaigns := NewSQLCampaignRepository(sqlDB, db.SQLite)
	analytics := NewSQLAnalyticsRepository(sqlDB, db.SQLite)

	c := newCampaign(owner, "Stats")
	if err := campaigns.CreateCampaign(ctx, c); err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}
	watched := &domain.Video{CampaignID: c.ID, URL: "a.mp4", Title: "A"}
	unwatched := &domain.Video{CampaignID: c.ID, URL: "b.mp4", Title: "B"}
	for _, v := range []*domain.Video{watched, unwatched} {
		if err := campaigns.AddVideo(ctx, v); err != nil {
			t.Fatalf("AddVideo: %v", err)
		}
	}

	views := []*domain.VideoView{
		{VideoID: watched.ID, IPAddress: "10.0.0.1", WatchDurationSeconds: ptr(10.0), IsComplete: true},
		{VideoID: watched.ID, IPAddress: "10.0.0.2", WatchDurationSeconds: ptr(4.0)},
		{VideoID: watched.ID, IPAddress: "10.0.0.3", WatchDurationSeconds: ptr(7.0), IsComplete: true},
		{VideoID: watched.ID, IPAddress: "10.0.0.4", WatchDurationSeconds: ptr(3.0)},
	}
	for _, v := range views {
		if err := analytics.RecordVideoView(ctx, v); err != nil {
			t.Fatalf("RecordVideoView: %v", err)
		}
	}

	stats, err := analytics.CampaignVideoStats(ctx, c.ID)
	if err != nil {
		t.Fatalf("CampaignVideoStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("stats rows = %d, want 2", len(stats))
	}

	a := stats[0]
	if a.Views != 4 || a.CompletedViews != 2 || a.AverageWatchSeconds != 6 {
		t.Fatalf("watched stats = %+v", a)
	}
	if a.CompletionRate() != 50 {
		t.Fatalf("completion rate = %v, want 50", a.CompletionRate())
	}
	if b := stats[1]; b.Views != 0 || b.AverageWatchSeconds != 0 {
		t.Fatalf("unwatched stats = %+v", b)
	}

	err = analytics.RecordVideoView(ctx, &domain.VideoView{VideoID: 999, IPAddress: "10.0.0.9"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
