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
)

// SQL-backed implementation of the ScreenRepository port (SQLite or Postgres).
type SQLScreenRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLScreenRepository(sqlDB *sql.DB, dialect db.Dialect) *SQLScreenRepository {
	return &SQLScreenRepository{DB: sqlDB, Dialect: dialect}
}

var _ ports.ScreenRepository = (*SQLScreenRepository)(nil)

const screenSelect = `
	SELECT
		s.id, s.title, s.position, s.location, s.coordinates,
		s.region_id, s.district_id, s.cpm, s.status, s.type_category,
		s.screen_size, s.screen_resolution, s.popular_times,
		s.created_at, s.updated_at, s.created_by, s.updated_by,
		r.name, r.code, d.name, d.code, d.region_id
	FROM screens s
	LEFT JOIN regions r ON r.id = s.region_id
	LEFT JOIN districts d ON d.id = s.district_id
`

var screenOrdering = map[string]string{
	"created_at": "s.created_at",
	"updated_at": "s.updated_at",
	"title":      "s.title",
	"status":     "s.status",
}

func (r *SQLScreenRepository) CreateScreen(ctx context.Context, s *domain.Screen) (err error) {
	defer obs.Time(ctx, "screens.create")(&err)

	if r.DB == nil {
		return errors.New("create screen: DB is nil")
	}

	coords, err := jsonColumn(s.Coordinates)
	if err != nil {
		return fmt.Errorf("create screen: encode coordinates: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create screen: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	query := r.Dialect.Rebind(`
	INSERT INTO screens (
		title, position, location, coordinates, region_id, district_id,
		cpm, status, type_category, screen_size, screen_resolution,
		created_at, updated_at, created_by, updated_by
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id;
	`)
	err = tx.QueryRowContext(ctx, query,
		s.Title, s.Position, nullString(s.Location), coords,
		nullInt64(s.RegionID), nullInt64(s.DistrictID),
		s.CPM, string(s.Status), s.TypeCategory, s.ScreenSize, s.ScreenResolution,
		ts, ts, nullInt64(s.CreatedBy), nullInt64(s.UpdatedBy),
	).Scan(&s.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("create screen: %w", domain.ErrInvalid)
		}
		return fmt.Errorf("create screen: insert: %w", err)
	}

	if err := r.writeLinks(ctx, tx, s); err != nil {
		return fmt.Errorf("create screen: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create screen: commit tx: %w", err)
	}

	s.CreatedAt, s.UpdatedAt = ts, ts
	return nil
}

func (r *SQLScreenRepository) UpdateScreen(ctx context.Context, s *domain.Screen) (err error) {
	defer obs.Time(ctx, "screens.update")(&err)

	if r.DB == nil {
		return errors.New("update screen: DB is nil")
	}

	coords, err := jsonColumn(s.Coordinates)
	if err != nil {
		return fmt.Errorf("update screen: encode coordinates: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update screen: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	query := r.Dialect.Rebind(`
	UPDATE screens SET
		title = ?, position = ?, location = ?, coordinates = ?,
		region_id = ?, district_id = ?, cpm = ?, status = ?,
		type_category = ?, screen_size = ?, screen_resolution = ?,
		updated_at = ?, updated_by = ?
	WHERE id = ?;
	`)
	res, err := tx.ExecContext(ctx, query,
		s.Title, s.Position, nullString(s.Location), coords,
		nullInt64(s.RegionID), nullInt64(s.DistrictID), s.CPM, string(s.Status),
		s.TypeCategory, s.ScreenSize, s.ScreenResolution,
		ts, nullInt64(s.UpdatedBy), s.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("update screen id=%d: %w", s.ID, domain.ErrInvalid)
		}
		return fmt.Errorf("update screen id=%d: exec: %w", s.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update screen id=%d: %w", s.ID, domain.ErrNotFound)
	}

	if err := r.writeLinks(ctx, tx, s); err != nil {
		return fmt.Errorf("update screen id=%d: %w", s.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update screen id=%d: commit tx: %w", s.ID, err)
	}

	s.UpdatedAt = ts
	return nil
}

func (r *SQLScreenRepository) writeLinks(ctx context.Context, tx *sql.Tx, s *domain.Screen) error {
	if err := replaceLinks(ctx, tx, r.Dialect, "screen_venue_types", "screen_id", "venue_type_id", s.ID, s.VenueTypeIDs); err != nil {
		return fmt.Errorf("write venue types: %w", err)
	}
	if err := replaceLinks(ctx, tx, r.Dialect, "screen_interests", "screen_id", "interest_id", s.ID, s.InterestIDs); err != nil {
		return fmt.Errorf("write interests: %w", err)
	}
	return nil
}

// UpdatePopularTimes is the enrichment write-back. It sets popular_times and
// nothing else, so updated_at keeps the value from the user's last save.
func (r *SQLScreenRepository) UpdatePopularTimes(ctx context.Context, screenID int64, payload domain.PopularTimesPayload) (err error) {
	defer obs.Time(ctx, "screens.update_popular_times")(&err)

	if r.DB == nil {
		return errors.New("update popular times: DB is nil")
	}

	val, err := jsonColumn(payload)
	if err != nil {
		return fmt.Errorf("update popular times id=%d: encode: %w", screenID, err)
	}

	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`UPDATE screens SET popular_times = ? WHERE id = ?;`), val, screenID)
	if err != nil {
		return fmt.Errorf("update popular times id=%d: exec: %w", screenID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update popular times id=%d: %w", screenID, domain.ErrNotFound)
	}
	return nil
}

func (r *SQLScreenRepository) DeleteScreen(ctx context.Context, id int64) (err error) {
	defer obs.Time(ctx, "screens.delete")(&err)

	if r.DB == nil {
		return errors.New("delete screen: DB is nil")
	}

	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`DELETE FROM screens WHERE id = ?;`), id)
	if err != nil {
		return fmt.Errorf("delete screen id=%d: exec: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete screen id=%d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *SQLScreenRepository) ScreenCoordinates(ctx context.Context, id int64) (map[string]any, error) {
	if r.DB == nil {
		return nil, errors.New("screen coordinates: DB is nil")
	}

	var raw sql.NullString
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`SELECT coordinates FROM screens WHERE id = ?;`), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("screen coordinates id=%d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("screen coordinates id=%d: query: %w", id, err)
	}

	coords, err := decodeMap(raw)
	if err != nil {
		// Stored value is not an object; callers treat it as "no coordinates".
		return nil, nil
	}
	return coords, nil
}

func (r *SQLScreenRepository) GetScreen(ctx context.Context, id int64) (_ *domain.Screen, err error) {
	defer obs.Time(ctx, "screens.get")(&err)

	if r.DB == nil {
		return nil, errors.New("get screen: DB is nil")
	}

	row := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(screenSelect+` WHERE s.id = ?;`), id)
	s, err := scanScreen(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get screen id=%d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get screen id=%d: scan: %w", id, err)
	}

	if err := r.attachLinks(ctx, []*domain.Screen{s}); err != nil {
		return nil, fmt.Errorf("get screen id=%d: %w", id, err)
	}
	return s, nil
}

func (r *SQLScreenRepository) ListScreens(ctx context.Context, f ports.ScreenFilter) (_ []*domain.Screen, err error) {
	defer obs.Time(ctx, "screens.list")(&err)

	if r.DB == nil {
		return nil, errors.New("list screens: DB is nil")
	}

	var where []string
	var args []any

	if f.OwnerID != nil {
		where = append(where, "s.created_by = ?")
		args = append(args, *f.OwnerID)
	}
	if f.Status != "" {
		where = append(where, "s.status = ?")
		args = append(args, string(f.Status))
	}
	if f.TypeCategory != "" {
		where = append(where, "s.type_category = ?")
		args = append(args, f.TypeCategory)
	}
	if f.RegionID != nil {
		where = append(where, "s.region_id = ?")
		args = append(args, *f.RegionID)
	}
	if f.DistrictID != nil {
		where = append(where, "s.district_id = ?")
		args = append(args, *f.DistrictID)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		where = append(where, `(LOWER(s.title) LIKE ? OR LOWER(s.position) LIKE ? OR LOWER(COALESCE(s.location, '')) LIKE ?
			OR LOWER(s.type_category) LIKE ? OR LOWER(s.screen_size) LIKE ?)`)
		args = append(args, pattern, pattern, pattern, pattern, pattern)
	}

	query := screenSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderClause(f.Ordering, "-created_at", "s.id", screenOrdering) + ";"

	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list screens: query screens table: %w", err)
	}
	defer rows.Close()

	screens := make([]*domain.Screen, 0, 32)
	for rows.Next() {
		s, err := scanScreen(rows)
		if err != nil {
			return nil, fmt.Errorf("list screens: scan row: %w", err)
		}
		screens = append(screens, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list screens: row iteration: %w", err)
	}

	if err := r.attachLinks(ctx, screens); err != nil {
		return nil, fmt.Errorf("list screens: %w", err)
	}
	return screens, nil
}

func (r *SQLScreenRepository) attachLinks(ctx context.Context, screens []*domain.Screen) error {
	if len(screens) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(screens))
	for _, s := range screens {
		ids = append(ids, s.ID)
	}

	venues, err := loadVenueTypes(ctx, r.DB, r.Dialect, "screen_venue_types", "screen_id", ids)
	if err != nil {
		return fmt.Errorf("load venue types: %w", err)
	}
	interests, err := loadInterests(ctx, r.DB, r.Dialect, "screen_interests", "screen_id", ids)
	if err != nil {
		return fmt.Errorf("load interests: %w", err)
	}

	for _, s := range screens {
		s.VenueTypes = venues[s.ID]
		s.Interests = interests[s.ID]
		s.VenueTypeIDs = venueTypeIDs(s.VenueTypes)
		s.InterestIDs = interestIDs(s.Interests)
	}
	return nil
}

func scanScreen(row scanner) (*domain.Screen, error) {
	var (
		s                                 domain.Screen
		location, coords, status, popular sql.NullString
		regionID, districtID              sql.NullInt64
		createdBy, updatedBy              sql.NullInt64
		createdAt, updatedAt              sql.NullTime
		regionName, regionCode            sql.NullString
		districtName, districtCode        sql.NullString
		districtRegion                    sql.NullInt64
	)

	err := row.Scan(
		&s.ID, &s.Title, &s.Position, &location, &coords,
		&regionID, &districtID, &s.CPM, &status, &s.TypeCategory,
		&s.ScreenSize, &s.ScreenResolution, &popular,
		&createdAt, &updatedAt, &createdBy, &updatedBy,
		&regionName, &regionCode, &districtName, &districtCode, &districtRegion,
	)
	if err != nil {
		return nil, err
	}

	s.Location = location.String
	s.Status = domain.ScreenStatus(status.String)
	s.RegionID = int64Ptr(regionID)
	s.DistrictID = int64Ptr(districtID)
	s.CreatedBy = int64Ptr(createdBy)
	s.UpdatedBy = int64Ptr(updatedBy)
	s.CreatedAt = timeOrZero(createdAt)
	s.UpdatedAt = timeOrZero(updatedAt)
	s.PopularTimes = rawJSON(popular)

	// Rows written by other tools may hold non-object JSON here; surface it as unset.
	s.Coordinates, _ = decodeMap(coords)

	if regionID.Valid && regionName.Valid {
		s.Region = &domain.Region{ID: regionID.Int64, Name: regionName.String, Code: regionCode.String}
	}
	if districtID.Valid && districtName.Valid {
		s.District = &domain.District{
			ID:       districtID.Int64,
			Name:     districtName.String,
			Code:     districtCode.String,
			RegionID: districtRegion.Int64,
		}
	}

	return &s, nil
}
