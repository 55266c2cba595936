package repositories

import (
	"context"
	"database/sql"
	"errors"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/db"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullIntPtr(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func timeOrZero(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}

// jsonColumn encodes v for a TEXT column; nil maps and empty raw payloads become NULL.
func jsonColumn(v any) (sql.NullString, error) {
	switch x := v.(type) {
	case nil:
		return sql.NullString{}, nil
	case map[string]any:
		if x == nil {
			return sql.NullString{}, nil
		}
	case json.RawMessage:
		if len(x) == 0 {
			return sql.NullString{}, nil
		}
		return sql.NullString{String: string(x), Valid: true}, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeMap(s sql.NullString) (map[string]any, error) {
	if !s.Valid || s.String == "" || s.String == "null" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func rawJSON(s sql.NullString) json.RawMessage {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.RawMessage(s.String)
}

// orderClause turns "-created_at" into "alias.created_at DESC, alias.id DESC",
// accepting only whitelisted field names.
func orderClause(ordering, fallback, idColumn string, allowed map[string]string) string {
	field := strings.TrimSpace(ordering)
	col, ok := allowed[strings.TrimPrefix(field, "-")]
	if field == "" || !ok {
		field = fallback
		col = allowed[strings.TrimPrefix(field, "-")]
	}

	dir := "ASC"
	if strings.HasPrefix(field, "-") {
		dir = "DESC"
	}
	return col + " " + dir + ", " + idColumn + " " + dir
}

// isUniqueViolation recognises unique-constraint errors from both drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// replaceLinks rewrites a many-to-many link table for one owner row.
func replaceLinks(ctx context.Context, q querier, d db.Dialect, table, ownerCol, targetCol string, ownerID int64, ids []int64) error {
	if _, err := q.ExecContext(ctx, d.Rebind("DELETE FROM "+table+" WHERE "+ownerCol+" = ?"), ownerID); err != nil {
		return err
	}
	insert := d.Rebind("INSERT INTO " + table + " (" + ownerCol + ", " + targetCol + ") VALUES (?, ?)")
	for _, id := range uniqueIDs(ids) {
		if _, err := q.ExecContext(ctx, insert, ownerID, id); err != nil {
			return err
		}
	}
	return nil
}

// loadInterests returns interests per owner id for a link table.
func loadInterests(ctx context.Context, q querier, d db.Dialect, table, ownerCol string, ownerIDs []int64) (map[int64][]domain.Interest, error) {
	out := make(map[int64][]domain.Interest, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}

	query := d.Rebind(`
	SELECT l.` + ownerCol + `, i.id, i.name, i.slug, i.description
	FROM ` + table + ` l
	JOIN interests i ON i.id = l.interest_id
	WHERE l.` + ownerCol + ` IN (` + db.Placeholders(len(ownerIDs)) + `)
	ORDER BY i.name;
	`)
	rows, err := q.QueryContext(ctx, query, int64Args(ownerIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var owner int64
		var i domain.Interest
		var desc sql.NullString
		if err := rows.Scan(&owner, &i.ID, &i.Name, &i.Slug, &desc); err != nil {
			return nil, err
		}
		i.Description = desc.String
		out[owner] = append(out[owner], i)
	}
	return out, rows.Err()
}

func loadVenueTypes(ctx context.Context, q querier, d db.Dialect, table, ownerCol string, ownerIDs []int64) (map[int64][]domain.VenueType, error) {
	out := make(map[int64][]domain.VenueType, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}

	query := d.Rebind(`
	SELECT l.` + ownerCol + `, v.id, v.name, v.slug, v.description, v.is_active
	FROM ` + table + ` l
	JOIN venue_types v ON v.id = l.venue_type_id
	WHERE l.` + ownerCol + ` IN (` + db.Placeholders(len(ownerIDs)) + `)
	ORDER BY v.name;
	`)
	rows, err := q.QueryContext(ctx, query, int64Args(ownerIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var owner int64
		var v domain.VenueType
		var desc sql.NullString
		if err := rows.Scan(&owner, &v.ID, &v.Name, &v.Slug, &desc, &v.IsActive); err != nil {
			return nil, err
		}
		v.Description = desc.String
		out[owner] = append(out[owner], v)
	}
	return out, rows.Err()
}

func interestIDs(items []domain.Interest) []int64 {
	ids := make([]int64, 0, len(items))
	for _, i := range items {
		ids = append(ids, i.ID)
	}
	return ids
}

func venueTypeIDs(items []domain.VenueType) []int64 {
	ids := make([]int64, 0, len(items))
	for _, v := range items {
		ids = append(ids, v.ID)
	}
	return ids
}
