package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"street-screens-service/internal/platform/db"
	"strings"
)

// Tables are written once with type placeholders and expanded per dialect.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {{PK}},
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		type_user TEXT NOT NULL DEFAULT '',
		created_at {{TS}} NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS regions (
		id {{PK}},
		name TEXT NOT NULL UNIQUE,
		code TEXT UNIQUE,
		description TEXT,
		created_at {{TS}},
		updated_at {{TS}},
		created_by {{BIGINT}} REFERENCES users(id) ON DELETE SET NULL,
		updated_by {{BIGINT}} REFERENCES users(id) ON DELETE SET NULL
	);`,
	`CREATE TABLE IF NOT EXISTS districts (
		id {{PK}},
		name TEXT NOT NULL,
		code TEXT,
		region_id {{BIGINT}} NOT NULL REFERENCES regions(id) ON DELETE CASCADE,
		description TEXT,
		created_at {{TS}},
		updated_at {{TS}},
		created_by {{BIGINT}} REFERENCES users(id) ON DELETE SET NULL,
		updated_by {{BIGINT}} REFERENCES users(id) ON DELETE SET NULL,
		UNIQUE (name, region_id)
	);`,
	`CREATE TABLE IF NOT EXISTS interests (
		id {{PK}},
		name TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL UNIQUE,
		description TEXT,
		created_at {{TS}},
		updated_at {{TS}},
		created_by {{BIGINT}} REFERENCES users(id) ON DELETE SET NULL,
		updated_by {{BIGINT}} REFERENCES users(id) ON DELETE SET NULL
	);`,
	`CREATE TABLE IF NOT EXISTS venue_types (
		id {{PK}},
		name TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL UNIQUE,
		description TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at {{TS}},
		updated_at {{TS}},
		created_by {{BIGINT}} REFERENCES users(id) ON DELETE SET NULL,
		updated_by {{BIGINT}} REFERENCES users(id) ON DELETE SET NULL
	);`,
	`CREATE TABLE IF NOT EXISTS screens (
		id {{PK}},
		title TEXT NOT NULL,
		position TEXT NOT NULL,
		location TEXT,
		coordinates TEXT,
		region_id {{BIGINT}} REFERENCES regions(id) ON DELETE SET NULL,
		district_id {{BIGINT}} REFERENCES districts(id) ON DELETE SET NULL,
		cpm {{REAL}} NOT NULL DEFAULT 30,
		status TEXT NOT NULL DEFAULT 'inactive',
		type_category TEXT NOT NULL,
		screen_size TEXT NOT NULL,
		screen_resolution INTEGER NOT NULL,
		popular_times TEXT,
		created_at {{TS}},
		updated_at {{TS}},
		created_by {{BIGINT}} REFERENCES users(id) ON DELETE SET NULL,
		updated_by {{BIGINT}} REFERENCES users(id) ON DELETE SET NULL
	);`,
	`CREATE TABLE IF NOT EXISTS screen_venue_types (
		screen_id {{BIGINT}} NOT NULL REFERENCES screens(id) ON DELETE CASCADE,
		venue_type_id {{BIGINT}} NOT NULL REFERENCES venue_types(id) ON DELETE CASCADE,
		PRIMARY KEY (screen_id, venue_type_id)
	);`,
	`CREATE TABLE IF NOT EXISTS screen_interests (
		screen_id {{BIGINT}} NOT NULL REFERENCES screens(id) ON DELETE CASCADE,
		interest_id {{BIGINT}} NOT NULL REFERENCES interests(id) ON DELETE CASCADE,
		PRIMARY KEY (screen_id, interest_id)
	);`,
	`CREATE TABLE IF NOT EXISTS campaigns (
		id {{PK}},
		campaign_name TEXT NOT NULL,
		budget {{REAL}} NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD',
		start_date {{TS}} NOT NULL,
		end_date {{TS}} NOT NULL,
		region_id {{BIGINT}} REFERENCES regions(id) ON DELETE SET NULL,
		district_id {{BIGINT}} REFERENCES districts(id) ON DELETE SET NULL,
		age_min INTEGER,
		age_max INTEGER,
		schedule TEXT NOT NULL DEFAULT '{}',
		meta_schedule_slots INTEGER NOT NULL DEFAULT 0,
		meta_schedule_coverage TEXT,
		meta_duration_days INTEGER NOT NULL DEFAULT 0,
		link TEXT,
		involve_count {{BIGINT}} NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'draft',
		created_at {{TS}},
		updated_at {{TS}},
		created_by {{BIGINT}} REFERENCES users(id) ON DELETE SET NULL,
		updated_by {{BIGINT}} REFERENCES users(id) ON DELETE SET NULL
	);`,
	`CREATE TABLE IF NOT EXISTS campaign_interests (
		campaign_id {{BIGINT}} NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		interest_id {{BIGINT}} NOT NULL REFERENCES interests(id) ON DELETE CASCADE,
		PRIMARY KEY (campaign_id, interest_id)
	);`,
	`CREATE TABLE IF NOT EXISTS campaign_venue_types (
		campaign_id {{BIGINT}} NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		venue_type_id {{BIGINT}} NOT NULL REFERENCES venue_types(id) ON DELETE CASCADE,
		PRIMARY KEY (campaign_id, venue_type_id)
	);`,
	`CREATE TABLE IF NOT EXISTS campaign_videos (
		id {{PK}},
		campaign_id {{BIGINT}} NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		title TEXT,
		description TEXT,
		duration_seconds INTEGER,
		file_size {{BIGINT}},
		created_at {{TS}}
	);`,
	`CREATE TABLE IF NOT EXISTS campaign_images (
		id {{PK}},
		campaign_id {{BIGINT}} NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		title TEXT,
		description TEXT,
		file_size {{BIGINT}},
		width INTEGER,
		height INTEGER,
		created_at {{TS}}
	);`,
	`CREATE TABLE IF NOT EXISTS video_views (
		id {{PK}},
		video_id {{BIGINT}} NOT NULL REFERENCES campaign_videos(id) ON DELETE CASCADE,
		ip_address TEXT NOT NULL,
		user_agent TEXT,
		referer TEXT,
		watch_duration_seconds {{REAL}},
		is_complete BOOLEAN NOT NULL DEFAULT FALSE,
		country TEXT,
		city TEXT,
		created_at {{TS}} NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS places_cache (
		query TEXT NOT NULL,
		language TEXT NOT NULL,
		payload TEXT NOT NULL,
		fetched_at {{TS}} NOT NULL,
		PRIMARY KEY (query, language)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_screens_created_by ON screens(created_by);`,
	`CREATE INDEX IF NOT EXISTS idx_screens_status ON screens(status);`,
	`CREATE INDEX IF NOT EXISTS idx_campaigns_created_by ON campaigns(created_by);`,
	`CREATE INDEX IF NOT EXISTS idx_campaigns_status ON campaigns(status);`,
	`CREATE INDEX IF NOT EXISTS idx_video_views_video ON video_views(video_id);`,
}

func schemaReplacer(d db.Dialect) *strings.Replacer {
	if d == db.Postgres {
		return strings.NewReplacer(
			"{{PK}}", "BIGSERIAL PRIMARY KEY",
			"{{TS}}", "TIMESTAMPTZ",
			"{{REAL}}", "DOUBLE PRECISION",
			"{{BIGINT}}", "BIGINT",
		)
	}
	return strings.NewReplacer(
		"{{PK}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{TS}}", "TIMESTAMP",
		"{{REAL}}", "REAL",
		"{{BIGINT}}", "INTEGER",
	)
}

// Create all tables and indexes for the given dialect. Safe to run repeatedly.
func InitSchema(ctx context.Context, sqlDB *sql.DB, dialect db.Dialect) error {
	if sqlDB == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	r := schemaReplacer(dialect)
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
