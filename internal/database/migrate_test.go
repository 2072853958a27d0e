package database

import "testing"

func TestNewMigrator_InvalidURL_ReturnsError(t *testing.T) {
	_, err := NewMigrator("not-a-valid-url")
	if err == nil {
		t.Fatal("expected error for invalid database URL, got nil")
	}
}

func TestMigrationsFS_ContainsMigrationFiles(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected embedded migration files, got none")
	}

	// up/downがペアになっていること
	if len(entries)%2 != 0 {
		t.Errorf("expected even number of migration files (up/down pairs), got %d", len(entries))
	}
}
