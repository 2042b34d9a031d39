package services

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/avdeluca/inkwell-be/internal/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("db migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
