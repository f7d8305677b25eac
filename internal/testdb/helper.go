package testdb

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/selivandex/fng-signal/internal/adapters/database"
)

// Setup connects to TEST_DATABASE_URL, applies migrations and empties the
// registry after the test. Tests are skipped when the variable is unset.
func Setup(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(db.DB); err != nil {
		db.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if _, err := db.Exec("DELETE FROM signal_channels"); err != nil {
			t.Errorf("failed to clean signal_channels: %v", err)
		}
		db.Close()
	})

	return db
}
