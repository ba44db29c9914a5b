package database

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"time"
)

// MigrationsFS holds the schema files. The top-level migrations package
// sets it from init, so a blank import ships the journal schema inside the
// binary. Nil means there is nothing to apply.
var MigrationsFS fs.FS

// MigrationsDir is the directory within MigrationsFS holding the files.
var MigrationsDir = "."

// migrationFile matches "<YYYYMMDD>_<HHMMSS>_<name>.sql".
var migrationFile = regexp.MustCompile(`^(\d{8}_\d{6})_(\w+)\.sql$`)

// Migration is one forward-only schema step. The journal is append-only,
// so steps are never rolled back.
type Migration struct {
	Version string // e.g. "20260301_120000"
	Name    string // e.g. "journal"
	SQL     string
}

// SchemaStatus reports the schema after Migrate.
type SchemaStatus struct {
	// Version is the newest applied migration, empty for a bare database.
	Version string

	// Applied lists the versions applied by this call, oldest first.
	Applied []string
}

// Migrate applies every migration newer than the schema in version order,
// each in its own transaction. A failed step is rolled back and stops the
// run; earlier steps stay committed and a later Migrate resumes from there.
func (db *DB) Migrate(ctx context.Context) (SchemaStatus, error) {
	var status SchemaStatus

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		) STRICT`); err != nil {
		return status, fmt.Errorf("creating schema_migrations: %w", err)
	}

	migrations, err := loadMigrations()
	if err != nil {
		return status, err
	}

	done, err := db.appliedVersions(ctx)
	if err != nil {
		return status, err
	}
	if len(done) > 0 {
		status.Version = done[len(done)-1]
	}

	for _, m := range migrations {
		if slices.Contains(done, m.Version) {
			continue
		}
		if err := db.apply(ctx, m); err != nil {
			return status, fmt.Errorf("migration %s_%s: %w", m.Version, m.Name, err)
		}
		status.Applied = append(status.Applied, m.Version)
		status.Version = m.Version
	}

	return status, nil
}

// appliedVersions returns the recorded versions, oldest first.
func (db *DB) appliedVersions(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("reading schema_migrations: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning schema_migrations: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (db *DB) apply(ctx context.Context, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		m.Version, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// loadMigrations reads the schema files in version order. Files that do not
// follow the naming scheme are ignored.
func loadMigrations() ([]Migration, error) {
	if MigrationsFS == nil {
		return nil, nil
	}

	entries, err := fs.ReadDir(MigrationsFS, MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		match := migrationFile.FindStringSubmatch(entry.Name())
		if entry.IsDir() || match == nil {
			continue
		}
		sql, err := fs.ReadFile(MigrationsFS, path.Join(MigrationsDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, Migration{Version: match[1], Name: match[2], SQL: string(sql)})
	}

	// ReadDir sorts by file name, which is version order.
	return migrations, nil
}
