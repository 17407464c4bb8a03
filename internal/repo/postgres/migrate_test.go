package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestEmbeddedMigrationsLoad(t *testing.T) {
	migrations, err := LoadMigrations(migrationFiles)
	if err != nil {
		t.Fatalf("load embedded migrations: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatalf("expected at least one embedded migration")
	}
	if migrations[0].Version != 1 {
		t.Fatalf("expected first version 1, got %d", migrations[0].Version)
	}
	if !strings.Contains(migrations[0].SQL, "matching_queue_one_active_per_requester") {
		t.Fatalf("expected partial unique index in initial migration")
	}
}

func TestLoadMigrationsOrdersAndSkipsUnknownFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/V2__second.sql": {Data: []byte("SELECT 2;")},
		"migrations/V1__first.sql":  {Data: []byte("SELECT 1;")},
		"migrations/readme.sql":     {Data: []byte("SELECT 0;")},
	}

	migrations, err := LoadMigrations(fsys)
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Name != "first" || migrations[1].Name != "second" {
		t.Fatalf("unexpected order: %+v", migrations)
	}
	if migrations[0].Checksum == migrations[1].Checksum {
		t.Fatalf("expected distinct checksums")
	}
}

func TestLoadMigrationsRejectsDuplicatesAndEmptyFiles(t *testing.T) {
	duplicate := fstest.MapFS{
		"migrations/V1__a.sql": {Data: []byte("SELECT 1;")},
		"migrations/V1__b.sql": {Data: []byte("SELECT 2;")},
	}
	if _, err := LoadMigrations(duplicate); err == nil {
		t.Fatalf("expected duplicate version error")
	}

	empty := fstest.MapFS{
		"migrations/V1__a.sql": {Data: []byte("  \n")},
	}
	if _, err := LoadMigrations(empty); err == nil {
		t.Fatalf("expected empty migration error")
	}
}
