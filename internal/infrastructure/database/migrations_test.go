package database

import (
	"context"
	"testing"
	"testing/fstest"
	"time"
)

// testMigrations is a two-step schema shaped like the real one.
var testMigrations = fstest.MapFS{
	"sql/20261017_090000_create_events.up.sql": {Data: []byte(`
		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id INTEGER NOT NULL
		);`)},
	"sql/20261017_090000_create_events.down.sql": {Data: []byte(`DROP TABLE events;`)},
	"sql/20261017_100000_create_clusters.up.sql": {Data: []byte(`
		CREATE TABLE clusters (
			label INTEGER PRIMARY KEY,
			size INTEGER NOT NULL
		);`)},
	"sql/20261017_100000_create_clusters.down.sql": {Data: []byte(`DROP TABLE clusters;`)},
	"sql/README.md": {Data: []byte("not a migration")},
}

// useMigrations swaps the package-level migration source for the duration of a test.
func useMigrations(t *testing.T, fsys fstest.MapFS, dir string) {
	t.Helper()
	origFS, origDir := MigrationsFS, MigrationsDir
	t.Cleanup(func() {
		MigrationsFS, MigrationsDir = origFS, origDir
	})
	if fsys == nil {
		MigrationsFS = nil
	} else {
		MigrationsFS = fsys
	}
	MigrationsDir = dir
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	return count == 1
}

func TestMigrate(t *testing.T) {
	useMigrations(t, testMigrations, "sql")

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	for _, table := range []string{"events", "clusters"} {
		if !tableExists(t, db, table) {
			t.Errorf("table %s not created", table)
		}
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("expected 2 applied migrations, got %d", len(applied))
	}
	if len(pending) != 0 {
		t.Errorf("expected 0 pending migrations, got %d", len(pending))
	}
	if applied[0].Version != "20261017_090000" || applied[0].AppliedAt.IsZero() {
		t.Errorf("first applied = %+v, want version 20261017_090000 with timestamp", applied[0])
	}

	// Running again should be idempotent
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	useMigrations(t, testMigrations, "sql")

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	if tableExists(t, db, "clusters") {
		t.Error("clusters table should be dropped by the latest down migration")
	}
	if !tableExists(t, db, "events") {
		t.Error("events table should survive a single rollback")
	}

	_, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "create_clusters" {
		t.Errorf("pending = %+v, want create_clusters", pending)
	}
}

func TestMigrateFailureRollsBack(t *testing.T) {
	broken := fstest.MapFS{
		"20261017_090000_good.up.sql": {Data: []byte(`CREATE TABLE good (id INTEGER);`)},
		"20261017_100000_bad.up.sql":  {Data: []byte(`CREATE TABLE bad (id INTEGER); THIS IS NOT SQL;`)},
	}
	useMigrations(t, broken, ".")

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()
	if err := db.Migrate(ctx); err == nil {
		t.Fatal("Migrate() expected error for invalid SQL")
	}

	if !tableExists(t, db, "good") {
		t.Error("earlier migration should stay committed")
	}
	if tableExists(t, db, "bad") {
		t.Error("failed migration should be rolled back")
	}
}

func TestMigrateNoMigrations(t *testing.T) {
	useMigrations(t, nil, ".")

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() with no migrations error = %v", err)
	}
	if err := db.MigrateDown(context.Background()); err != nil {
		t.Fatalf("MigrateDown() with nothing applied error = %v", err)
	}
}

func TestGetMigrationStatus(t *testing.T) {
	useMigrations(t, testMigrations, "sql")

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	applied, pending, err := db.GetMigrationStatus(context.Background())
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected 0 applied, got %d", len(applied))
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
	if pending[0].Version > pending[1].Version {
		t.Error("pending migrations not in version order")
	}
	if pending[0].DownSQL == "" {
		t.Error("down SQL not loaded")
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantIsUp    bool
		wantOk      bool
	}{
		{
			name:        "valid up migration",
			filename:    "20261017_090000_create_events.up.sql",
			wantVersion: "20261017_090000",
			wantIsUp:    true,
			wantOk:      true,
		},
		{
			name:        "valid down migration",
			filename:    "20261017_090000_create_events.down.sql",
			wantVersion: "20261017_090000",
			wantIsUp:    false,
			wantOk:      true,
		},
		{name: "not sql file", filename: "readme.txt", wantOk: false},
		{name: "missing direction", filename: "20261017_090000_create_events.sql", wantOk: false},
		{name: "invalid format", filename: "invalid.up.sql", wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Errorf("ok = %v, want %v", ok, tt.wantOk)
			}
			if ok {
				if version != tt.wantVersion {
					t.Errorf("version = %v, want %v", version, tt.wantVersion)
				}
				if isUp != tt.wantIsUp {
					t.Errorf("isUp = %v, want %v", isUp, tt.wantIsUp)
				}
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"20261017_090000_create_events.up.sql", "create_events"},
		{"20261017_100000_create_clusters.down.sql", "create_clusters"},
		{"20261017_110000_add_cluster_runs.up.sql", "add_cluster_runs"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := extractMigrationName(tt.filename)
			if got != tt.want {
				t.Errorf("extractMigrationName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
