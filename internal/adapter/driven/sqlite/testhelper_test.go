package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"
)

// setupTestDB opens a migrated in-memory database named after the test.
// cache=shared lets the writer and reader pools see the same data, and the
// escaped test name keeps parallel tests apart. Journal mode stays at the
// in-memory default because WAL needs a file.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	name := url.PathEscape(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&"+sharedPragmas, name)

	db, err := openDB(context.Background(), dsn, name)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := RunMigrations(db.Writer); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}
