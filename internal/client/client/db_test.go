package client

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/client/repositories/session"
	"github.com/pressly/goose/v3"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("tableExists query failed: %v", err)
	}
	return n > 0
}

func TestInitDatabase_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "session.db")

	db, repo, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	defer db.Close()

	for _, name := range []string{"goose_db_version", "sessions"} {
		if !tableExists(t, db, name) {
			t.Fatalf("expected table %s after migrations", name)
		}
	}

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	if err := repo.Save(ctx, &session.Session{Server: "h:1", Email: "a@example.com", Token: "tok", ExpiresAt: exp}); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	s, err := repo.Load(ctx, "h:1")
	if err != nil || s == nil || s.Token != "tok" {
		t.Fatalf("Load = %+v, %v", s, err)
	}
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("sql.Open error: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations (first) error: %v", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations (second) error: %v", err)
	}
}

func TestInitDatabase_MigrationError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	_, _, err := InitDatabase(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	if err == nil {
		t.Fatal("expected migration error")
	}
}
