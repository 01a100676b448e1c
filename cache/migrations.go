package cache

import (
	"context"
	"database/sql"
	"fmt"
)

// migration applies one schema change and leaves the database at version
// `to`. Migrations run in order starting from the current user_version.
type migration struct {
	to   int
	name string
	run  func(ctx context.Context, tx *sql.Tx) error
}

// migrations is the ordered list of schema changes. Each entry's `to` must
// be its predecessor's `to` plus one; Migrate applies every entry whose
// `to` is greater than the database's current version.
var migrations = []migration{
	{
		to:   1,
		name: "initial schema",
		run: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS apps (
					key      TEXT PRIMARY KEY,
					name     TEXT NOT NULL,
					status   INTEGER NOT NULL,
					equity   INTEGER NOT NULL,
					quote    INTEGER NOT NULL,
					li_app   INTEGER NOT NULL,
					li_acco  INTEGER NOT NULL,
					li_trade INTEGER NOT NULL,
					li_histo INTEGER NOT NULL,
					subs     INTEGER NOT NULL,
					created  REAL NOT NULL,
					updated  INTEGER NOT NULL
				)`)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS markets_forex (
					epic            TEXT PRIMARY KEY,
					instrument_name TEXT NOT NULL,
					instrument_type TEXT NOT NULL,
					currencies      TEXT NOT NULL,
					expiry          TEXT NOT NULL,
					market_status   TEXT NOT NULL,
					updated         INTEGER NOT NULL
				)`)
			return err
		},
	},
	{
		// v1 stored the apps.created column as a Julian day REAL, a holdover
		// from the broker's own date representation. v2 switches it to a
		// plain "YYYY-MM-DD" TEXT column, which is what Application.Created
		// round-trips through in sqlite.go. SQLite can't alter a column's
		// affinity in place, so this rebuilds the table: rename, recreate
		// with the new column type, copy with the conversion applied, drop.
		to:   2,
		name: "apps.created: Julian day REAL -> YYYY-MM-DD TEXT",
		run: func(ctx context.Context, tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `ALTER TABLE apps RENAME TO apps_v1`); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE apps (
					key      TEXT PRIMARY KEY,
					name     TEXT NOT NULL,
					status   INTEGER NOT NULL,
					equity   INTEGER NOT NULL,
					quote    INTEGER NOT NULL,
					li_app   INTEGER NOT NULL,
					li_acco  INTEGER NOT NULL,
					li_trade INTEGER NOT NULL,
					li_histo INTEGER NOT NULL,
					subs     INTEGER NOT NULL,
					created  TEXT NOT NULL,
					updated  INTEGER NOT NULL
				)`); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO apps (key, name, status, equity, quote, li_app, li_acco, li_trade, li_histo, subs, created, updated)
				SELECT key, name, status, equity, quote, li_app, li_acco, li_trade, li_histo, subs,
					date(created), updated
				FROM apps_v1`)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `DROP TABLE apps_v1`)
			return err
		},
	},
}

const latestSchemaVersion = 2

// Migrate applies every pending migration in order inside its own
// transaction, advancing PRAGMA user_version as it goes. It is safe to call
// repeatedly; already-applied migrations are skipped.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("cache: read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.to <= current {
			continue
		}
		if err := s.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("cache: migration %q (v%d): %w", m.name, m.to, err)
		}
		current = m.to
	}
	return nil
}

func (s *SQLiteStore) applyMigration(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.run(ctx, tx); err != nil {
		return err
	}
	if err := s.setSchemaVersion(ctx, tx, m.to); err != nil {
		return err
	}
	return tx.Commit()
}
