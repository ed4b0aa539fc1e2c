package migrations

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindLatestMigrationVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_init.up.sql",
		"000001_init.down.sql",
		"000012_match_events_index.up.sql",
		"README.md",
		"not_a_version.sql",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "000099_dir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if got := findLatestMigrationVersion(dir); got != 12 {
		t.Errorf("latest = %d, want 12", got)
	}
	if got := findLatestMigrationVersion(filepath.Join(dir, "missing")); got != 0 {
		t.Errorf("latest of missing dir = %d, want 0", got)
	}
}

func TestShippedMigrationsAreVersioned(t *testing.T) {
	dir := filepath.Join("..", "..", DefaultDir)
	if got := findLatestMigrationVersion(dir); got < 1 {
		t.Fatalf("no migrations found in %s", dir)
	}
	for _, name := range []string{"000001_init.up.sql", "000001_init.down.sql"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestRunMigrationsRequiresURL(t *testing.T) {
	if err := RunMigrations("", DefaultDir); err == nil {
		t.Error("expected an error for an empty database URL")
	}
}
