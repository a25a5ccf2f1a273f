package db

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(Options{}); err == nil {
		t.Fatalf("expected error when no path supplied")
	}
}

func TestOpenCreatesDirectoryAndAppliesPragmas(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	conn, err := Open(Options{Path: path})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := Close(conn); closeErr != nil {
			t.Errorf("closing database failed: %v", closeErr)
		}
	})

	var journalMode string
	if err := conn.Raw("PRAGMA journal_mode;").Scan(&journalMode).Error; err != nil {
		t.Fatalf("querying journal_mode pragma failed: %v", err)
	}
	if !strings.EqualFold(strings.TrimSpace(journalMode), "wal") {
		t.Fatalf("expected journal mode WAL, got %q", journalMode)
	}

	var busyTimeout int
	if err := conn.Raw("PRAGMA busy_timeout;").Scan(&busyTimeout).Error; err != nil {
		t.Fatalf("querying busy_timeout pragma failed: %v", err)
	}
	if busyTimeout != 5000 {
		t.Fatalf("expected busy timeout 5000, got %d", busyTimeout)
	}

	if err := Ping(context.Background(), conn); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
}

func TestCloseNilIsNoop(t *testing.T) {
	t.Parallel()

	if err := Close(nil); err != nil {
		t.Fatalf("expected nil error closing nil database, got %v", err)
	}
	if _, err := SQLDB(nil); err == nil {
		t.Fatalf("expected error for nil database")
	}
}
