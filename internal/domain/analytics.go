package domain

import "time"

// VideoView is one playback event reported by a player.
type VideoView struct {
	ID                   int64
	VideoID              int64
	IPAddress            string
	UserAgent            string
	Referer              string
	WatchDurationSeconds *float64
	IsComplete           bool
	Country              string
	City                 string
	CreatedAt            time.Time
}

// VideoStats aggregates views for a single video.
type VideoStats struct {
	VideoID             int64
	Title               string
	Views               int
	CompletedViews      int
	AverageWatchSeconds float64
}

func (s VideoStats) CompletionRate() float64 {
	if s.Views == 0 {
		return 0
	}
	return float64(s.CompletedViews) / float64(s.Views) * 100
}
