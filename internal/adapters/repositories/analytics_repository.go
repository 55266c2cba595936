package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/db"
	"street-screens-service/internal/platform/obs"
	"street-screens-service/internal/ports"
)

type SQLAnalyticsRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLAnalyticsRepository(sqlDB *sql.DB, dialect db.Dialect) *SQLAnalyticsRepository {
	return &SQLAnalyticsRepository{DB: sqlDB, Dialect: dialect}
}

var _ ports.AnalyticsRepository = (*SQLAnalyticsRepository)(nil)

func (r *SQLAnalyticsRepository) RecordVideoView(ctx context.Context, v *domain.VideoView) (err error) {
	defer obs.Time(ctx, "video_views.record")(&err)

	if r.DB == nil {
		return errors.New("record video view: DB is nil")
	}

	ts := now()
	err = r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`
	INSERT INTO video_views (
		video_id, ip_address, user_agent, referer, watch_duration_seconds,
		is_complete, country, city, created_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id;
	`),
		v.VideoID, v.IPAddress, nullString(v.UserAgent), nullString(v.Referer),
		nullFloat(v.WatchDurationSeconds), v.IsComplete,
		nullString(v.Country), nullString(v.City), ts,
	).Scan(&v.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("record video view video=%d: %w", v.VideoID, domain.ErrNotFound)
		}
		return fmt.Errorf("record video view video=%d: insert: %w", v.VideoID, err)
	}

	v.CreatedAt = ts
	return nil
}

// CampaignVideoStats aggregates views per video. Videos without views report zeros.
func (r *SQLAnalyticsRepository) CampaignVideoStats(ctx context.Context, campaignID int64) (_ []domain.VideoStats, err error) {
	defer obs.Time(ctx, "video_views.stats")(&err)

	if r.DB == nil {
		return nil, errors.New("campaign video stats: DB is nil")
	}

	query := r.Dialect.Rebind(`
	SELECT
		v.id,
		COALESCE(v.title, ''),
		COUNT(w.id),
		COALESCE(SUM(CASE WHEN w.is_complete THEN 1 ELSE 0 END), 0),
		COALESCE(AVG(w.watch_duration_seconds), 0)
	FROM campaign_videos v
	LEFT JOIN video_views w ON w.video_id = v.id
	WHERE v.campaign_id = ?
	GROUP BY v.id, v.title
	ORDER BY v.id;
	`)
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("campaign video stats campaign=%d: query: %w", campaignID, err)
	}
	defer rows.Close()

	out := make([]domain.VideoStats, 0, 8)
	for rows.Next() {
		var s domain.VideoStats
		var avg sql.NullFloat64
		if err := rows.Scan(&s.VideoID, &s.Title, &s.Views, &s.CompletedViews, &avg); err != nil {
			return nil, fmt.Errorf("campaign video stats campaign=%d: scan: %w", campaignID, err)
		}
		s.AverageWatchSeconds = avg.Float64
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("campaign video stats campaign=%d: row iteration: %w", campaignID, err)
	}
	return out, nil
}
