package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/db"
)

// Creative metadata for campaigns. Files live elsewhere; rows only carry URLs.

const videoColumns = `id, campaign_id, url, title, description, duration_seconds, file_size, created_at`

const imageColumns = `id, campaign_id, url, title, description, file_size, width, height, created_at`

func (r *SQLCampaignRepository) AddVideo(ctx context.Context, v *domain.Video) error {
	if r.DB == nil {
		return errors.New("add video: DB is nil")
	}

	ts := now()
	query := r.Dialect.Rebind(`
	INSERT INTO campaign_videos (campaign_id, url, title, description, duration_seconds, file_size, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	RETURNING id;
	`)
	err := r.DB.QueryRowContext(ctx, query,
		v.CampaignID, v.URL, nullString(v.Title), nullString(v.Description),
		nullIntPtr(v.DurationSeconds), nullInt64(v.FileSize), ts,
	).Scan(&v.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("add video campaign=%d: %w", v.CampaignID, domain.ErrNotFound)
		}
		return fmt.Errorf("add video campaign=%d: insert: %w", v.CampaignID, err)
	}

	v.CreatedAt = ts
	return nil
}

func (r *SQLCampaignRepository) GetVideo(ctx context.Context, id int64) (*domain.Video, error) {
	if r.DB == nil {
		return nil, errors.New("get video: DB is nil")
	}

	row := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`SELECT `+videoColumns+` FROM campaign_videos WHERE id = ?;`), id)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get video id=%d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get video id=%d: scan: %w", id, err)
	}
	return &v, nil
}

func (r *SQLCampaignRepository) ListVideos(ctx context.Context, campaignID int64) ([]domain.Video, error) {
	byCampaign, err := r.videosFor(ctx, []int64{campaignID})
	if err != nil {
		return nil, fmt.Errorf("list videos campaign=%d: %w", campaignID, err)
	}
	videos := byCampaign[campaignID]
	if videos == nil {
		videos = []domain.Video{}
	}
	return videos, nil
}

func (r *SQLCampaignRepository) DeleteVideo(ctx context.Context, id int64) error {
	if r.DB == nil {
		return errors.New("delete video: DB is nil")
	}
	return deleteByID(ctx, r.DB, r.Dialect, "campaign_videos", id)
}

func (r *SQLCampaignRepository) videosFor(ctx context.Context, campaignIDs []int64) (map[int64][]domain.Video, error) {
	out := make(map[int64][]domain.Video, len(campaignIDs))
	if len(campaignIDs) == 0 {
		return out, nil
	}

	query := r.Dialect.Rebind(`SELECT ` + videoColumns + ` FROM campaign_videos
	WHERE campaign_id IN (` + db.Placeholders(len(campaignIDs)) + `)
	ORDER BY created_at, id;`)
	rows, err := r.DB.QueryContext(ctx, query, int64Args(campaignIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out[v.CampaignID] = append(out[v.CampaignID], v)
	}
	return out, rows.Err()
}

func scanVideo(row scanner) (domain.Video, error) {
	var (
		v                  domain.Video
		title, description sql.NullString
		duration, size     sql.NullInt64
		createdAt          sql.NullTime
	)
	if err := row.Scan(&v.ID, &v.CampaignID, &v.URL, &title, &description, &duration, &size, &createdAt); err != nil {
		return domain.Video{}, err
	}
	v.Title = title.String
	v.Description = description.String
	v.DurationSeconds = intPtr(duration)
	v.FileSize = int64Ptr(size)
	v.CreatedAt = timeOrZero(createdAt)
	return v, nil
}

func (r *SQLCampaignRepository) AddImage(ctx context.Context, img *domain.Image) error {
	if r.DB == nil {
		return errors.New("add image: DB is nil")
	}

	ts := now()
	query := r.Dialect.Rebind(`
	INSERT INTO campaign_images (campaign_id, url, title, description, file_size, width, height, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id;
	`)
	err := r.DB.QueryRowContext(ctx, query,
		img.CampaignID, img.URL, nullString(img.Title), nullString(img.Description),
		nullInt64(img.FileSize), nullIntPtr(img.Width), nullIntPtr(img.Height), ts,
	).Scan(&img.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("add image campaign=%d: %w", img.CampaignID, domain.ErrNotFound)
		}
		return fmt.Errorf("add image campaign=%d: insert: %w", img.CampaignID, err)
	}

	img.CreatedAt = ts
	return nil
}

func (r *SQLCampaignRepository) GetImage(ctx context.Context, id int64) (*domain.Image, error) {
	if r.DB == nil {
		return nil, errors.New("get image: DB is nil")
	}

	row := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`SELECT `+imageColumns+` FROM campaign_images WHERE id = ?;`), id)
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get image id=%d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get image id=%d: scan: %w", id, err)
	}
	return &img, nil
}

func (r *SQLCampaignRepository) ListImages(ctx context.Context, campaignID int64) ([]domain.Image, error) {
	byCampaign, err := r.imagesFor(ctx, []int64{campaignID})
	if err != nil {
		return nil, fmt.Errorf("list images campaign=%d: %w", campaignID, err)
	}
	images := byCampaign[campaignID]
	if images == nil {
		images = []domain.Image{}
	}
	return images, nil
}

func (r *SQLCampaignRepository) DeleteImage(ctx context.Context, id int64) error {
	if r.DB == nil {
		return errors.New("delete image: DB is nil")
	}
	return deleteByID(ctx, r.DB, r.Dialect, "campaign_images", id)
}

func (r *SQLCampaignRepository) imagesFor(ctx context.Context, campaignIDs []int64) (map[int64][]domain.Image, error) {
	out := make(map[int64][]domain.Image, len(campaignIDs))
	if len(campaignIDs) == 0 {
		return out, nil
	}

	query := r.Dialect.Rebind(`SELECT ` + imageColumns + ` FROM campaign_images
	WHERE campaign_id IN (` + db.Placeholders(len(campaignIDs)) + `)
	ORDER BY created_at, id;`)
	rows, err := r.DB.QueryContext(ctx, query, int64Args(campaignIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out[img.CampaignID] = append(out[img.CampaignID], img)
	}
	return out, rows.Err()
}

func scanImage(row scanner) (domain.Image, error) {
	var (
		img                domain.Image
		title, description sql.NullString
		size, w, h         sql.NullInt64
		createdAt          sql.NullTime
	)
	if err := row.Scan(&img.ID, &img.CampaignID, &img.URL, &title, &description, &size, &w, &h, &createdAt); err != nil {
		return domain.Image{}, err
	}
	img.Title = title.String
	img.Description = description.String
	img.FileSize = int64Ptr(size)
	img.Width = intPtr(w)
	img.Height = intPtr(h)
	img.CreatedAt = timeOrZero(createdAt)
	return img, nil
}

// deleteByID removes one row from a fixed table name.
func deleteByID(ctx context.Context, q querier, d db.Dialect, table string, id int64) error {
	res, err := q.ExecContext(ctx, d.Rebind(`DELETE FROM `+table+` WHERE id = ?;`), id)
	if err != nil {
		return fmt.Errorf("delete %s id=%d: exec: %w", table, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %s id=%d: %w", table, id, domain.ErrNotFound)
	}
	return nil
}
