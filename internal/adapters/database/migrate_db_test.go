package database_test

import (
	"testing"

	"github.com/selivandex/fng-signal/internal/adapters/database"
	"github.com/selivandex/fng-signal/internal/testdb"
)

func TestMigrationVersion(t *testing.T) {
	db := testdb.Setup(t)

	version, dirty, err := database.MigrationVersion(db.DB)
	if err != nil {
		t.Fatalf("MigrationVersion failed: %v", err)
	}

	if version < 1 || dirty {
		t.Errorf("Expected a clean applied schema, got version=%d dirty=%t", version, dirty)
	}

	// Re-applying is a no-op
	if err := database.RunMigrations(db.DB); err != nil {
		t.Errorf("Second RunMigrations failed: %v", err)
	}
}
