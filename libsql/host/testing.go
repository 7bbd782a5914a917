package host

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
)

// NewTestServer starts a host on a fresh SQLite file in t.TempDir(), applies
// the schema statements and returns the running server. The server and the
// database are closed when the test ends.
func NewTestServer(t testing.TB, cfg Config, schema ...string) (*httptest.Server, *sqlx.DB) {
	t.Helper()

	db := sqlx.MustConnect("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			t.Fatalf("failed to apply schema %q: %v", stmt, err)
		}
	}

	server := httptest.NewServer(NewHost(db, cfg).Handler())
	t.Cleanup(func() {
		server.Close()
		db.Close()
	})
	return server, db
}
