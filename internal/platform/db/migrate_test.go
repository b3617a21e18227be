package db

import (
	"io/fs"
	"reflect"
	"testing"
	"testing/fstest"
)

func TestMigrationNamesSortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_more.sql": {Data: []byte("SELECT 1")},
		"0001_init.sql": {Data: []byte("SELECT 1")},
		"README.md":     {Data: []byte("notes")},
		"nested/x.sql":  {Data: []byte("SELECT 1")},
	}
	got, err := migrationNames(fsys)
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	want := []string{"0001_init.sql", "0002_more.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	names, err := migrationNames(sub)
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if len(names) == 0 || names[0] != "0001_init.sql" {
		t.Fatalf("expected embedded init migration, got %v", names)
	}
}
