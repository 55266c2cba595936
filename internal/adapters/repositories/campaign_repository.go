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
	"strings"

	"github.com/goccy/go-json"
)

// SQL-backed implementation of the CampaignRepository port.
type SQLCampaignRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLCampaignRepository(sqlDB *sql.DB, dialect db.Dialect) *SQLCampaignRepository {
	return &SQLCampaignRepository{DB: sqlDB, Dialect: dialect}
}

var _ ports.CampaignRepository = (*SQLCampaignRepository)(nil)

const campaignSelect = `
	SELECT
		c.id, c.campaign_name, c.budget, c.currency, c.start_date, c.end_date,
		c.region_id, c.district_id, c.age_min, c.age_max, c.schedule,
		c.meta_schedule_slots, c.meta_schedule_coverage, c.meta_duration_days,
		c.link, c.involve_count, c.status,
		c.created_at, c.updated_at, c.created_by, c.updated_by,
		r.name, r.code, d.name, d.code, d.region_id
	FROM campaigns c
	LEFT JOIN regions r ON r.id = c.region_id
	LEFT JOIN districts d ON d.id = c.district_id
`

var campaignOrdering = map[string]string{
	"created_at":    "c.created_at",
	"updated_at":    "c.updated_at",
	"campaign_name": "c.campaign_name",
	"budget":        "c.budget",
	"start_date":    "c.start_date",
	"end_date":      "c.end_date",
}

func campaignArgs(c *domain.Campaign) ([]any, error) {
	schedule := c.Schedule
	if schedule == nil {
		schedule = domain.Schedule{}
	}
	sched, err := json.Marshal(schedule)
	if err != nil {
		return nil, fmt.Errorf("encode schedule: %w", err)
	}

	var ageMin, ageMax sql.NullInt64
	if c.AgeRange != nil {
		ageMin = sql.NullInt64{Int64: int64(c.AgeRange.Min), Valid: true}
		ageMax = sql.NullInt64{Int64: int64(c.AgeRange.Max), Valid: true}
	}

	return []any{
		c.CampaignName, c.Budget, c.Currency, c.StartDate.UTC(), c.EndDate.UTC(),
		nullInt64(c.RegionID), nullInt64(c.DistrictID), ageMin, ageMax, string(sched),
		c.MetaScheduleSlots, nullString(c.MetaScheduleCoverage), c.MetaDurationDays,
		nullString(c.Link), string(c.Status),
	}, nil
}

func (r *SQLCampaignRepository) CreateCampaign(ctx context.Context, c *domain.Campaign) (err error) {
	defer obs.Time(ctx, "campaigns.create")(&err)

	if r.DB == nil {
		return errors.New("create campaign: DB is nil")
	}

	args, err := campaignArgs(c)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create campaign: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	args = append(args, ts, ts, nullInt64(c.CreatedBy), nullInt64(c.UpdatedBy))

	query := r.Dialect.Rebind(`
	INSERT INTO campaigns (
		campaign_name, budget, currency, start_date, end_date,
		region_id, district_id, age_min, age_max, schedule,
		meta_schedule_slots, meta_schedule_coverage, meta_duration_days,
		link, status, created_at, updated_at, created_by, updated_by
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id;
	`)
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&c.ID); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("create campaign: %w", domain.ErrInvalid)
		}
		return fmt.Errorf("create campaign: insert: %w", err)
	}

	if err := r.writeLinks(ctx, tx, c); err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create campaign: commit tx: %w", err)
	}

	c.CreatedAt, c.UpdatedAt = ts, ts
	return nil
}

// UpdateCampaign writes every editable column. involve_count is only changed
// by IncrementInvolveCount.
func (r *SQLCampaignRepository) UpdateCampaign(ctx context.Context, c *domain.Campaign) (err error) {
	defer obs.Time(ctx, "campaigns.update")(&err)

	if r.DB == nil {
		return errors.New("update campaign: DB is nil")
	}

	args, err := campaignArgs(c)
	if err != nil {
		return fmt.Errorf("update campaign id=%d: %w", c.ID, err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update campaign id=%d: begin tx: %w", c.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	args = append(args, ts, nullInt64(c.UpdatedBy), c.ID)

	query := r.Dialect.Rebind(`
	UPDATE campaigns SET
		campaign_name = ?, budget = ?, currency = ?, start_date = ?, end_date = ?,
		region_id = ?, district_id = ?, age_min = ?, age_max = ?, schedule = ?,
		meta_schedule_slots = ?, meta_schedule_coverage = ?, meta_duration_days = ?,
		link = ?, status = ?, updated_at = ?, updated_by = ?
	WHERE id = ?;
	`)
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("update campaign id=%d: %w", c.ID, domain.ErrInvalid)
		}
		return fmt.Errorf("update campaign id=%d: exec: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update campaign id=%d: %w", c.ID, domain.ErrNotFound)
	}

	if err := r.writeLinks(ctx, tx, c); err != nil {
		return fmt.Errorf("update campaign id=%d: %w", c.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update campaign id=%d: commit tx: %w", c.ID, err)
	}

	c.UpdatedAt = ts
	return nil
}

func (r *SQLCampaignRepository) writeLinks(ctx context.Context, tx *sql.Tx, c *domain.Campaign) error {
	if err := replaceLinks(ctx, tx, r.Dialect, "campaign_interests", "campaign_id", "interest_id", c.ID, c.InterestIDs); err != nil {
		return fmt.Errorf("write interests: %w", err)
	}
	if err := replaceLinks(ctx, tx, r.Dialect, "campaign_venue_types", "campaign_id", "venue_type_id", c.ID, c.VenueTypeIDs); err != nil {
		return fmt.Errorf("write venue types: %w", err)
	}
	return nil
}

func (r *SQLCampaignRepository) DeleteCampaign(ctx context.Context, id int64) (err error) {
	defer obs.Time(ctx, "campaigns.delete")(&err)

	if r.DB == nil {
		return errors.New("delete campaign: DB is nil")
	}

	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`DELETE FROM campaigns WHERE id = ?;`), id)
	if err != nil {
		return fmt.Errorf("delete campaign id=%d: exec: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete campaign id=%d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// IncrementInvolveCount bumps the QR click counter in a single statement.
func (r *SQLCampaignRepository) IncrementInvolveCount(ctx context.Context, id int64) error {
	if r.DB == nil {
		return errors.New("increment involve count: DB is nil")
	}

	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`UPDATE campaigns SET involve_count = involve_count + 1 WHERE id = ?;`), id)
	if err != nil {
		return fmt.Errorf("increment involve count id=%d: exec: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("increment involve count id=%d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *SQLCampaignRepository) GetCampaign(ctx context.Context, id int64) (_ *domain.Campaign, err error) {
	defer obs.Time(ctx, "campaigns.get")(&err)

	if r.DB == nil {
		return nil, errors.New("get campaign: DB is nil")
	}

	c, err := scanCampaign(r.DB.QueryRowContext(ctx, r.Dialect.Rebind(campaignSelect+` WHERE c.id = ?;`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get campaign id=%d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign id=%d: scan: %w", id, err)
	}

	if err := r.attachRelations(ctx, []*domain.Campaign{c}); err != nil {
		return nil, fmt.Errorf("get campaign id=%d: %w", id, err)
	}
	return c, nil
}

func (r *SQLCampaignRepository) ListCampaigns(ctx context.Context, f ports.CampaignFilter) (_ []*domain.Campaign, err error) {
	defer obs.Time(ctx, "campaigns.list")(&err)

	if r.DB == nil {
		return nil, errors.New("list campaigns: DB is nil")
	}

	var where []string
	var args []any

	if f.OwnerID != nil {
		where = append(where, "c.created_by = ?")
		args = append(args, *f.OwnerID)
	}
	if f.Status != "" {
		where = append(where, "c.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Currency != "" {
		where = append(where, "c.currency = ?")
		args = append(args, strings.ToUpper(f.Currency))
	}
	if f.RegionID != nil {
		where = append(where, "c.region_id = ?")
		args = append(args, *f.RegionID)
	}
	if f.DistrictID != nil {
		where = append(where, "c.district_id = ?")
		args = append(args, *f.DistrictID)
	}
	if f.InterestID != nil {
		where = append(where, "EXISTS (SELECT 1 FROM campaign_interests ci WHERE ci.campaign_id = c.id AND ci.interest_id = ?)")
		args = append(args, *f.InterestID)
	}
	if f.VenueTypeID != nil {
		where = append(where, "EXISTS (SELECT 1 FROM campaign_venue_types cv WHERE cv.campaign_id = c.id AND cv.venue_type_id = ?)")
		args = append(args, *f.VenueTypeID)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		where = append(where, "LOWER(c.campaign_name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q)+"%")
	}

	query := campaignSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderClause(f.Ordering, "-created_at", "c.id", campaignOrdering) + ";"

	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: query campaigns table: %w", err)
	}
	defer rows.Close()

	campaigns := make([]*domain.Campaign, 0, 32)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("list campaigns: scan row: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list campaigns: row iteration: %w", err)
	}

	if err := r.attachRelations(ctx, campaigns); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, nil
}

func (r *SQLCampaignRepository) attachRelations(ctx context.Context, campaigns []*domain.Campaign) error {
	if len(campaigns) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(campaigns))
	for _, c := range campaigns {
		ids = append(ids, c.ID)
	}

	interests, err := loadInterests(ctx, r.DB, r.Dialect, "campaign_interests", "campaign_id", ids)
	if err != nil {
		return fmt.Errorf("load interests: %w", err)
	}
	venues, err := loadVenueTypes(ctx, r.DB, r.Dialect, "campaign_venue_types", "campaign_id", ids)
	if err != nil {
		return fmt.Errorf("load venue types: %w", err)
	}
	videos, err := r.videosFor(ctx, ids)
	if err != nil {
		return fmt.Errorf("load videos: %w", err)
	}
	images, err := r.imagesFor(ctx, ids)
	if err != nil {
		return fmt.Errorf("load images: %w", err)
	}

	for _, c := range campaigns {
		c.Interests = interests[c.ID]
		c.VenueTypes = venues[c.ID]
		c.InterestIDs = interestIDs(c.Interests)
		c.VenueTypeIDs = venueTypeIDs(c.VenueTypes)
		c.Videos = videos[c.ID]
		c.Images = images[c.ID]
	}
	return nil
}

func scanCampaign(row scanner) (*domain.Campaign, error) {
	var (
		c                          domain.Campaign
		regionID, districtID       sql.NullInt64
		ageMin, ageMax             sql.NullInt64
		schedule, coverage, link   sql.NullString
		status                     string
		createdAt, updatedAt       sql.NullTime
		createdBy, updatedBy       sql.NullInt64
		regionName, regionCode     sql.NullString
		districtName, districtCode sql.NullString
		districtRegion             sql.NullInt64
	)

	err := row.Scan(
		&c.ID, &c.CampaignName, &c.Budget, &c.Currency, &c.StartDate, &c.EndDate,
		&regionID, &districtID, &ageMin, &ageMax, &schedule,
		&c.MetaScheduleSlots, &coverage, &c.MetaDurationDays,
		&link, &c.InvolveCount, &status,
		&createdAt, &updatedAt, &createdBy, &updatedBy,
		&regionName, &regionCode, &districtName, &districtCode, &districtRegion,
	)
	if err != nil {
		return nil, err
	}

	c.RegionID = int64Ptr(regionID)
	c.DistrictID = int64Ptr(districtID)
	c.MetaScheduleCoverage = coverage.String
	c.Link = link.String
	c.Status = domain.CampaignStatus(status)
	c.CreatedAt = timeOrZero(createdAt)
	c.UpdatedAt = timeOrZero(updatedAt)
	c.CreatedBy = int64Ptr(createdBy)
	c.UpdatedBy = int64Ptr(updatedBy)

	if ageMin.Valid && ageMax.Valid {
		c.AgeRange = &domain.AgeRange{Min: int(ageMin.Int64), Max: int(ageMax.Int64)}
	}

	c.Schedule = domain.Schedule{}
	if schedule.Valid && schedule.String != "" {
		if err := json.Unmarshal([]byte(schedule.String), &c.Schedule); err != nil {
			return nil, fmt.Errorf("decode schedule: %w", err)
		}
	}

	if regionID.Valid && regionName.Valid {
		c.Region = &domain.Region{ID: regionID.Int64, Name: regionName.String, Code: regionCode.String}
	}
	if districtID.Valid && districtName.Valid {
		c.District = &domain.District{
			ID:       districtID.Int64,
			Name:     districtName.String,
			Code:     districtCode.String,
			RegionID: districtRegion.Int64,
		}
	}

	return &c, nil
}
