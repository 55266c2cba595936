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

// SQL-backed implementation of the TaxonomyRepository port:
// regions, districts, interests and venue types.
type SQLTaxonomyRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLTaxonomyRepository(sqlDB *sql.DB, dialect db.Dialect) *SQLTaxonomyRepository {
	return &SQLTaxonomyRepository{DB: sqlDB, Dialect: dialect}
}

var _ ports.TaxonomyRepository = (*SQLTaxonomyRepository)(nil)

var regionOrdering = map[string]string{
	"name":       "name",
	"code":       "code",
	"created_at": "created_at",
}

func (r *SQLTaxonomyRepository) ListRegions(ctx context.Context, f ports.RegionFilter) (_ []domain.Region, err error) {
	defer obs.Time(ctx, "regions.list")(&err)

	if r.DB == nil {
		return nil, errors.New("list regions: DB is nil")
	}

	var where []string
	var args []any
	if f.Code != "" {
		where = append(where, "code = ?")
		args = append(args, f.Code)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		p := "%" + strings.ToLower(q) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)")
		args = append(args, p, p)
	}

	query := `SELECT id, name, code, description, created_at, updated_at FROM regions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderClause(f.Ordering, "name", "id", regionOrdering) + ";"

	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list regions: query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Region, 0, 16)
	for rows.Next() {
		reg, err := scanRegion(rows)
		if err != nil {
			return nil, fmt.Errorf("list regions: scan row: %w", err)
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list regions: row iteration: %w", err)
	}
	return out, nil
}

func (r *SQLTaxonomyRepository) GetRegion(ctx context.Context, id int64) (*domain.Region, error) {
	if r.DB == nil {
		return nil, errors.New("get region: DB is nil")
	}

	row := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`SELECT id, name, code, description, created_at, updated_at FROM regions WHERE id = ?;`), id)
	reg, err := scanRegion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get region id=%d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get region id=%d: scan: %w", id, err)
	}
	return &reg, nil
}

func (r *SQLTaxonomyRepository) CreateRegion(ctx context.Context, reg *domain.Region) error {
	if r.DB == nil {
		return errors.New("create region: DB is nil")
	}

	ts := now()
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`
	INSERT INTO regions (name, code, description, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	RETURNING id;
	`), reg.Name, nullString(reg.Code), nullString(reg.Description), ts, ts).Scan(&reg.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create region %q: %w", reg.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create region %q: insert: %w", reg.Name, err)
	}

	reg.CreatedAt, reg.UpdatedAt = ts, ts
	return nil
}

func scanRegion(row scanner) (domain.Region, error) {
	var reg domain.Region
	var code, desc sql.NullString
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&reg.ID, &reg.Name, &code, &desc, &createdAt, &updatedAt); err != nil {
		return domain.Region{}, err
	}
	reg.Code = code.String
	reg.Description = desc.String
	reg.CreatedAt = timeOrZero(createdAt)
	reg.UpdatedAt = timeOrZero(updatedAt)
	return reg, nil
}

func (r *SQLTaxonomyRepository) ListDistricts(ctx context.Context, regionID int64, f ports.RegionFilter) (_ []domain.District, err error) {
	defer obs.Time(ctx, "districts.list")(&err)

	if r.DB == nil {
		return nil, errors.New("list districts: DB is nil")
	}

	where := []string{"region_id = ?"}
	args := []any{regionID}
	if q := strings.TrimSpace(f.Search); q != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q)+"%")
	}

	query := `SELECT id, name, code, region_id, description, created_at, updated_at FROM districts WHERE ` +
		strings.Join(where, " AND ") +
		" ORDER BY " + orderClause(f.Ordering, "name", "id", regionOrdering) + ";"

	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list districts region=%d: query: %w", regionID, err)
	}
	defer rows.Close()

	out := make([]domain.District, 0, 16)
	for rows.Next() {
		d, err := scanDistrict(rows)
		if err != nil {
			return nil, fmt.Errorf("list districts region=%d: scan row: %w", regionID, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list districts region=%d: row iteration: %w", regionID, err)
	}
	return out, nil
}

func (r *SQLTaxonomyRepository) GetDistrict(ctx context.Context, id int64) (*domain.District, error) {
	if r.DB == nil {
		return nil, errors.New("get district: DB is nil")
	}

	row := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`SELECT id, name, code, region_id, description, created_at, updated_at FROM districts WHERE id = ?;`), id)
	d, err := scanDistrict(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get district id=%d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get district id=%d: scan: %w", id, err)
	}
	return &d, nil
}

func (r *SQLTaxonomyRepository) CreateDistrict(ctx context.Context, d *domain.District) error {
	if r.DB == nil {
		return errors.New("create district: DB is nil")
	}

	ts := now()
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`
	INSERT INTO districts (name, code, region_id, description, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	RETURNING id;
	`), d.Name, nullString(d.Code), d.RegionID, nullString(d.Description), ts, ts).Scan(&d.ID)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return fmt.Errorf("create district %q: %w", d.Name, domain.ErrConflict)
		case isForeignKeyViolation(err):
			return fmt.Errorf("create district %q: region %d: %w", d.Name, d.RegionID, domain.ErrNotFound)
		}
		return fmt.Errorf("create district %q: insert: %w", d.Name, err)
	}

	d.CreatedAt, d.UpdatedAt = ts, ts
	return nil
}

func scanDistrict(row scanner) (domain.District, error) {
	var d domain.District
	var code, desc sql.NullString
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&d.ID, &d.Name, &code, &d.RegionID, &desc, &createdAt, &updatedAt); err != nil {
		return domain.District{}, err
	}
	d.Code = code.String
	d.Description = desc.String
	d.CreatedAt = timeOrZero(createdAt)
	d.UpdatedAt = timeOrZero(updatedAt)
	return d, nil
}

var taxonomySearchFields = map[string]string{
	"name":        "name",
	"slug":        "slug",
	"description": "COALESCE(description, '')",
}

// taxonomyQuery builds the WHERE/ORDER BY for interest and venue type lists.
// Interests match search_value as a prefix, venue types as a substring.
func taxonomyQuery(f ports.TaxonomyFilter, prefix bool, sortable map[string]string) (string, []any) {
	var where []string
	var args []any

	if col, ok := taxonomySearchFields[f.SearchField]; ok && f.SearchValue != "" {
		pattern := strings.ToLower(f.SearchValue) + "%"
		if !prefix {
			pattern = "%" + pattern
		}
		where = append(where, "LOWER("+col+") LIKE ?")
		args = append(args, pattern)
	}
	if f.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, *f.IsActive)
	}

	var clause string
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	order := make([]string, 0, len(f.SortBy)+1)
	for _, s := range f.SortBy {
		col, ok := sortable[strings.TrimPrefix(s, "-")]
		if !ok {
			continue
		}
		if strings.HasPrefix(s, "-") {
			order = append(order, col+" DESC")
		} else {
			order = append(order, col+" ASC")
		}
	}
	if len(order) == 0 {
		order = append(order, "name ASC")
	}
	order = append(order, "id ASC")

	return clause + " ORDER BY " + strings.Join(order, ", "), args
}

var interestSort = map[string]string{"name": "name", "created_at": "created_at"}

func (r *SQLTaxonomyRepository) ListInterests(ctx context.Context, f ports.TaxonomyFilter) (_ []domain.Interest, err error) {
	defer obs.Time(ctx, "interests.list")(&err)

	if r.DB == nil {
		return nil, errors.New("list interests: DB is nil")
	}

	f.IsActive = nil
	clause, args := taxonomyQuery(f, true, interestSort)
	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(`SELECT id, name, slug, description, created_at, updated_at FROM interests`+clause+";"), args...)
	if err != nil {
		return nil, fmt.Errorf("list interests: query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Interest, 0, 32)
	for rows.Next() {
		i, err := scanInterest(rows)
		if err != nil {
			return nil, fmt.Errorf("list interests: scan row: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list interests: row iteration: %w", err)
	}
	return out, nil
}

func (r *SQLTaxonomyRepository) GetInterest(ctx context.Context, id int64) (*domain.Interest, error) {
	if r.DB == nil {
		return nil, errors.New("get interest: DB is nil")
	}

	row := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`SELECT id, name, slug, description, created_at, updated_at FROM interests WHERE id = ?;`), id)
	i, err := scanInterest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get interest id=%d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get interest id=%d: scan: %w", id, err)
	}
	return &i, nil
}

func (r *SQLTaxonomyRepository) CreateInterest(ctx context.Context, i *domain.Interest) error {
	if r.DB == nil {
		return errors.New("create interest: DB is nil")
	}

	ts := now()
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`
	INSERT INTO interests (name, slug, description, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	RETURNING id;
	`), i.Name, i.Slug, nullString(i.Description), ts, ts).Scan(&i.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create interest %q: %w", i.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create interest %q: insert: %w", i.Name, err)
	}

	i.CreatedAt, i.UpdatedAt = ts, ts
	return nil
}

// UpdateInterest changes name and description. The slug is fixed at creation.
func (r *SQLTaxonomyRepository) UpdateInterest(ctx context.Context, i *domain.Interest) error {
	if r.DB == nil {
		return errors.New("update interest: DB is nil")
	}

	ts := now()
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`
	UPDATE interests SET name = ?, description = ?, updated_at = ? WHERE id = ?;
	`), i.Name, nullString(i.Description), ts, i.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update interest id=%d: %w", i.ID, domain.ErrConflict)
		}
		return fmt.Errorf("update interest id=%d: exec: %w", i.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update interest id=%d: %w", i.ID, domain.ErrNotFound)
	}

	i.UpdatedAt = ts
	return nil
}

func (r *SQLTaxonomyRepository) DeleteInterest(ctx context.Context, id int64) error {
	if r.DB == nil {
		return errors.New("delete interest: DB is nil")
	}
	return deleteByID(ctx, r.DB, r.Dialect, "interests", id)
}

func scanInterest(row scanner) (domain.Interest, error) {
	var i domain.Interest
	var desc sql.NullString
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&i.ID, &i.Name, &i.Slug, &desc, &createdAt, &updatedAt); err != nil {
		return domain.Interest{}, err
	}
	i.Description = desc.String
	i.CreatedAt = timeOrZero(createdAt)
	i.UpdatedAt = timeOrZero(updatedAt)
	return i, nil
}

var venueTypeSort = map[string]string{"name": "name", "created_at": "created_at", "is_active": "is_active"}

func (r *SQLTaxonomyRepository) ListVenueTypes(ctx context.Context, f ports.TaxonomyFilter) (_ []domain.VenueType, err error) {
	defer obs.Time(ctx, "venue_types.list")(&err)

	if r.DB == nil {
		return nil, errors.New("list venue types: DB is nil")
	}

	clause, args := taxonomyQuery(f, false, venueTypeSort)
	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(`SELECT id, name, slug, description, is_active, created_at, updated_at FROM venue_types`+clause+";"), args...)
	if err != nil {
		return nil, fmt.Errorf("list venue types: query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.VenueType, 0, 32)
	for rows.Next() {
		v, err := scanVenueType(rows)
		if err != nil {
			return nil, fmt.Errorf("list venue types: scan row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list venue types: row iteration: %w", err)
	}
	return out, nil
}

func (r *SQLTaxonomyRepository) GetVenueType(ctx context.Context, id int64) (*domain.VenueType, error) {
	if r.DB == nil {
		return nil, errors.New("get venue type: DB is nil")
	}

	row := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`SELECT id, name, slug, description, is_active, created_at, updated_at FROM venue_types WHERE id = ?;`), id)
	v, err := scanVenueType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get venue type id=%d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get venue type id=%d: scan: %w", id, err)
	}
	return &v, nil
}

func (r *SQLTaxonomyRepository) CreateVenueType(ctx context.Context, v *domain.VenueType) error {
	if r.DB == nil {
		return errors.New("create venue type: DB is nil")
	}

	ts := now()
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`
	INSERT INTO venue_types (name, slug, description, is_active, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	RETURNING id;
	`), v.Name, v.Slug, nullString(v.Description), v.IsActive, ts, ts).Scan(&v.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create venue type %q: %w", v.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create venue type %q: insert: %w", v.Name, err)
	}

	v.CreatedAt, v.UpdatedAt = ts, ts
	return nil
}

func (r *SQLTaxonomyRepository) UpdateVenueType(ctx context.Context, v *domain.VenueType) error {
	if r.DB == nil {
		return errors.New("update venue type: DB is nil")
	}

	ts := now()
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`
	UPDATE venue_types SET name = ?, description = ?, is_active = ?, updated_at = ? WHERE id = ?;
	`), v.Name, nullString(v.Description), v.IsActive, ts, v.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update venue type id=%d: %w", v.ID, domain.ErrConflict)
		}
		return fmt.Errorf("update venue type id=%d: exec: %w", v.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update venue type id=%d: %w", v.ID, domain.ErrNotFound)
	}

	v.UpdatedAt = ts
	return nil
}

func (r *SQLTaxonomyRepository) DeleteVenueType(ctx context.Context, id int64) error {
	if r.DB == nil {
		return errors.New("delete venue type: DB is nil")
	}
	return deleteByID(ctx, r.DB, r.Dialect, "venue_types", id)
}

func scanVenueType(row scanner) (domain.VenueType, error) {
	var v domain.VenueType
	var desc sql.NullString
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&v.ID, &v.Name, &v.Slug, &desc, &v.IsActive, &createdAt, &updatedAt); err != nil {
		return domain.VenueType{}, err
	}
	v.Description = desc.String
	v.CreatedAt = timeOrZero(createdAt)
	v.UpdatedAt = timeOrZero(updatedAt)
	return v, nil
}

var taxonomyTables = map[ports.TaxonomyKind]string{
	ports.KindRegion:    "regions",
	ports.KindDistrict:  "districts",
	ports.KindInterest:  "interests",
	ports.KindVenueType: "venue_types",
}

func (r *SQLTaxonomyRepository) MissingIDs(ctx context.Context, kind ports.TaxonomyKind, ids []int64) ([]int64, error) {
	if r.DB == nil {
		return nil, errors.New("missing ids: DB is nil")
	}

	table, ok := taxonomyTables[kind]
	if !ok {
		return nil, fmt.Errorf("missing ids: unknown kind %q", kind)
	}

	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	query := r.Dialect.Rebind(`SELECT id FROM ` + table + ` WHERE id IN (` + db.Placeholders(len(ids)) + `);`)
	rows, err := r.DB.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("missing ids %s: query: %w", table, err)
	}
	defer rows.Close()

	found := make(map[int64]struct{}, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("missing ids %s: scan: %w", table, err)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("missing ids %s: row iteration: %w", table, err)
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
