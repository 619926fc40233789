package server

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/server/config"
	"github.com/dmitrijs2005/gophvault/internal/server/repositories/repomanager"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.Argon2MemoryKiB = 64
	c.Argon2Time = 1
	c.Argon2Threads = 1
	return c
}

func TestNewApp_OpenError(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(string) (*sql.DB, error) { return nil, errors.New("no driver") }

	_, err := NewApp(context.Background(), testConfig())
	if err == nil || !strings.Contains(err.Error(), "db init error") {
		t.Fatalf("want db init error, got %v", err)
	}
}

func TestNewApp_MigrationErrorClosesDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	mock.ExpectClose()

	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(string) (*sql.DB, error) { return db, nil }

	_, err = NewApp(context.Background(), testConfig())
	if err == nil || !strings.Contains(err.Error(), "db migration error") {
		t.Fatalf("want db migration error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("db not closed: %v", err)
	}
}

func TestNewLogger_UsesConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	orig := logOutput
	t.Cleanup(func() { logOutput = orig })
	logOutput = &buf

	c := testConfig()
	c.LogLevel = "warn"
	l, err := newLogger(c)
	if err != nil {
		t.Fatalf("newLogger error: %v", err)
	}
	l.Info(context.Background(), "quiet")
	l.Warn(context.Background(), "loud", "password", "Correct-Horse-9!")

	out := buf.String()
	if strings.Contains(out, "quiet") || !strings.Contains(out, "loud") {
		t.Fatalf("level not applied:\n%s", out)
	}
	if strings.Contains(out, "Correct-Horse-9!") || !strings.Contains(out, `"service":"gophvault-server"`) {
		t.Fatalf("unexpected record:\n%s", out)
	}

	c.LogLevel = "loud"
	if _, err := NewApp(context.Background(), c); err == nil || !strings.Contains(err.Error(), "logger init error") {
		t.Fatalf("want logger init error, got %v", err)
	}
}

func TestNewApp_EmptySecret(t *testing.T) {
	c := testConfig()
	c.SecretKey = ""

	_, err := newApp(c, logging.Nop(), nil, repomanager.NewPostgresRepositoryManager())
	if err == nil {
		t.Fatal("expected error for empty secret key")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	mock.ExpectClose()

	app, err := newApp(testConfig(), logging.Nop(), db, repomanager.NewPostgresRepositoryManager())
	if err != nil {
		t.Fatalf("newApp error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("db not closed: %v", err)
	}
}
