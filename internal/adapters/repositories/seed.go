package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/db"
	"strings"

	"github.com/goccy/go-json"
)

type DistrictSeed struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type RegionSeed struct {
	Name        string         `json:"name"`
	Code        string         `json:"code"`
	Description string         `json:"description"`
	Districts   []DistrictSeed `json:"districts"`
}

type InterestSeed struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type VenueTypeSeed struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

type TaxonomySeed struct {
	Regions    []RegionSeed    `json:"regions"`
	Interests  []InterestSeed  `json:"interests"`
	VenueTypes []VenueTypeSeed `json:"venue_types"`
}

// SeedFromJSON loads regions, districts, interests and venue types from a JSON
// file. Existing rows (matched by name) are left untouched, so reseeding is safe.
func SeedFromJSON(ctx context.Context, sqlDB *sql.DB, dialect db.Dialect, jsonPath string) error {
	if sqlDB == nil {
		return errors.New("seed taxonomy: DB is nil")
	}

	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed taxonomy: read %q: %w", jsonPath, err)
	}

	var data TaxonomySeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed taxonomy: parse json: %w", err)
	}

	if err := validateSeed(data); err != nil {
		return fmt.Errorf("seed taxonomy: %w", err)
	}

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed taxonomy: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()

	insertRegion := dialect.Rebind(`
	INSERT INTO regions (name, code, description, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (name) DO NOTHING;
	`)
	selectRegion := dialect.Rebind(`SELECT id FROM regions WHERE name = ?;`)
	insertDistrict := dialect.Rebind(`
	INSERT INTO districts (name, code, region_id, description, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (name, region_id) DO NOTHING;
	`)

	for _, r := range data.Regions {
		name := strings.TrimSpace(r.Name)
		if _, err := tx.ExecContext(ctx, insertRegion, name, nullString(r.Code), nullString(r.Description), ts, ts); err != nil {
			return fmt.Errorf("seed taxonomy: insert region %q: %w", name, err)
		}

		var regionID int64
		if err := tx.QueryRowContext(ctx, selectRegion, name).Scan(&regionID); err != nil {
			return fmt.Errorf("seed taxonomy: lookup region %q: %w", name, err)
		}

		for _, d := range r.Districts {
			dname := strings.TrimSpace(d.Name)
			if _, err := tx.ExecContext(ctx, insertDistrict, dname, nullString(d.Code), regionID, nullString(d.Description), ts, ts); err != nil {
				return fmt.Errorf("seed taxonomy: insert district %q: %w", dname, err)
			}
		}
	}

	insertInterest := dialect.Rebind(`
	INSERT INTO interests (name, slug, description, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (name) DO NOTHING;
	`)
	for _, i := range data.Interests {
		name := strings.TrimSpace(i.Name)
		if _, err := tx.ExecContext(ctx, insertInterest, name, domain.Slugify(name), nullString(i.Description), ts, ts); err != nil {
			return fmt.Errorf("seed taxonomy: insert interest %q: %w", name, err)
		}
	}

	insertVenue := dialect.Rebind(`
	INSERT INTO venue_types (name, slug, description, is_active, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (name) DO NOTHING;
	`)
	for _, v := range data.VenueTypes {
		name := strings.TrimSpace(v.Name)
		active := v.IsActive == nil || *v.IsActive
		if _, err := tx.ExecContext(ctx, insertVenue, name, domain.Slugify(name), nullString(v.Description), active, ts, ts); err != nil {
			return fmt.Errorf("seed taxonomy: insert venue type %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed taxonomy: commit tx: %w", err)
	}

	return nil
}

func validateSeed(data TaxonomySeed) error {
	for i, r := range data.Regions {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("region at index %d: name cannot be empty", i+1)
		}
		for j, d := range r.Districts {
			if strings.TrimSpace(d.Name) == "" {
				return fmt.Errorf("region %q district at index %d: name cannot be empty", r.Name, j+1)
			}
		}
	}
	for i, it := range data.Interests {
		if domain.Slugify(it.Name) == "" {
			return fmt.Errorf("interest at index %d: name %q has no slug", i+1, it.Name)
		}
	}
	for i, v := range data.VenueTypes {
		if domain.Slugify(v.Name) == "" {
			return fmt.Errorf("venue type at index %d: name %q has no slug", i+1, v.Name)
		}
	}
	return nil
}
