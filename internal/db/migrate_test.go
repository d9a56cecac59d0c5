package db_test

import (
	"context"
	"testing"
	"testing/fstest"

	dbfs "github.com/talosdigital/tdjobs/db"
	"github.com/talosdigital/tdjobs/internal/db"
)

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()

	d, err := db.New(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	defer d.Close()

	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	var count int
	if err := d.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("scan schema_migrations count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 migration recorded, got %d", count)
	}

	for _, table := range []string{"jobs", "offers", "invitations"} {
		var name string
		row := d.QueryRow(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table)
		if err := row.Scan(&name); err != nil {
			t.Fatalf("expected %s table exists: %v", table, err)
		}
	}
}

func TestMigrate_AppliesInOrder(t *testing.T) {
	ctx := context.Background()
	d, err := db.New(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()

	fsys := fstest.MapFS{
		"migrations/0002_add.sql":  {Data: []byte(`INSERT INTO things (name) VALUES ('second');`)},
		"migrations/0001_init.sql": {Data: []byte(`CREATE TABLE things (name TEXT);`)},
		"migrations/README.md":     {Data: []byte(`ignored`)},
	}
	if err := db.Migrate(ctx, d, fsys); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var name string
	if err := d.QueryRow(ctx, `SELECT name FROM things`).Scan(&name); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if name != "second" {
		t.Fatalf("unexpected row %q", name)
	}
}

func TestMigrate_BadSQL(t *testing.T) {
	ctx := context.Background()
	d, err := db.New(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()

	fsys := fstest.MapFS{"migrations/0001_bad.sql": {Data: []byte(`CREATE TABLE (;`)}}
	if err := db.Migrate(ctx, d, fsys); err == nil {
		t.Fatalf("expected error for invalid migration")
	}
}

func TestMigrate_MissingDir(t *testing.T) {
	ctx := context.Background()
	d, err := db.New(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()

	if err := db.Migrate(ctx, d, fstest.MapFS{}); err == nil {
		t.Fatalf("expected error when migrations dir is missing")
	}
}
