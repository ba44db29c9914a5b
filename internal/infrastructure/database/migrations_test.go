package database

import (
	"context"
	"embed"
	"io/fs"
	"slices"
	"testing"
	"testing/fstest"
)

//go:embed testdata/*.sql testdata/*.txt
var testMigrationsFS embed.FS

// useMigrations points the package at fsys/dir for the duration of a test.
func useMigrations(t *testing.T, fsys fs.FS, dir string) {
	t.Helper()
	origFS, origDir := MigrationsFS, MigrationsDir
	t.Cleanup(func() {
		MigrationsFS, MigrationsDir = origFS, origDir
	})
	MigrationsFS, MigrationsDir = fsys, dir
}

func columnExists(t *testing.T, db *DB, table, column string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column,
	).Scan(&n)
	if err != nil {
		t.Fatalf("pragma_table_info: %v", err)
	}
	return n > 0
}

func TestMigrateAppliesInOrder(t *testing.T) {
	useMigrations(t, testMigrationsFS, "testdata")
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	status, err := db.Migrate(context.Background())
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	want := []string{"20260301_120000", "20260302_090000"}
	if !slices.Equal(status.Applied, want) {
		t.Errorf("Applied = %v, want %v", status.Applied, want)
	}
	if status.Version != "20260302_090000" {
		t.Errorf("Version = %q", status.Version)
	}
	if !columnExists(t, db, "test_cues", "notes") {
		t.Error("second migration not applied on top of the first")
	}

	// A second run applies nothing and still reports the version.
	status, err = db.Migrate(context.Background())
	if err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if len(status.Applied) != 0 || status.Version != "20260302_090000" {
		t.Errorf("second run status = %+v", status)
	}
}

func TestMigrateResumesAfterFailure(t *testing.T) {
	fsys := fstest.MapFS{
		"20260301_120000_create.sql": {Data: []byte("CREATE TABLE cues (token TEXT) STRICT;")},
		"20260302_090000_broken.sql": {Data: []byte("ALTER TABLE missing ADD COLUMN x TEXT;")},
	}
	useMigrations(t, fsys, ".")
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	status, err := db.Migrate(context.Background())
	if err == nil {
		t.Fatal("Migrate() error = nil, want failure on broken step")
	}
	if status.Version != "20260301_120000" {
		t.Errorf("Version after failure = %q, want first step kept", status.Version)
	}

	fsys["20260302_090000_broken.sql"] = &fstest.MapFile{Data: []byte("ALTER TABLE cues ADD COLUMN x TEXT;")}
	status, err = db.Migrate(context.Background())
	if err != nil {
		t.Fatalf("Migrate() after fix error = %v", err)
	}
	if !slices.Equal(status.Applied, []string{"20260302_090000"}) {
		t.Errorf("Applied = %v, want only the fixed step", status.Applied)
	}
}

func TestMigrateNoMigrations(t *testing.T) {
	useMigrations(t, nil, ".")
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	status, err := db.Migrate(context.Background())
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if status.Version != "" || len(status.Applied) != 0 {
		t.Errorf("status = %+v, want empty", status)
	}
}

func TestLoadMigrationsIgnoresOtherFiles(t *testing.T) {
	useMigrations(t, testMigrationsFS, "testdata")

	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations() error = %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("loaded %d migrations, want 2", len(migrations))
	}
	if migrations[0].Name != "create_cues" || migrations[1].Name != "add_cue_notes" {
		t.Errorf("names = %q, %q", migrations[0].Name, migrations[1].Name)
	}
}

func TestMigrationFileNames(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"20260301_120000_journal.sql", true},
		{"20260301_120000_add_token_index.sql", true},
		{"20260301_120000_journal.up.sql", false},
		{"journal.sql", false},
		{"2026031_120000_journal.sql", false},
		{"README.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := migrationFile.MatchString(tt.name); got != tt.ok {
				t.Errorf("match(%q) = %v, want %v", tt.name, got, tt.ok)
			}
		})
	}
}
