// Package storetest opens migrated sqlite databases for store tests.
package storetest

import (
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pandodao/drm-wallet/store/db"
	"github.com/tsenart/nap"
)

func Open(t testing.TB) *nap.DB {
	t.Helper()

	conn, err := nap.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "wallet.db"))
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { _ = conn.Close() })

	if err := db.Migrate(conn.Master(), db.MigrateData{Driver: db.DriverSQLite}); err != nil {
		t.Fatal(err)
	}

	return conn
}
