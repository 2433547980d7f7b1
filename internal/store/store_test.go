package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"behaviour_events", "property_events"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_KeepsExistingEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	if err := s1.WriteBehaviourEvent(context.Background(), behaviourEvent(1, "e1", "added")); err != nil {
		t.Fatalf("WriteBehaviourEvent() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	seq, err := s2.LastSeq(context.Background())
	if err != nil {
		t.Fatalf("LastSeq() failed: %v", err)
	}
	if seq != 1 {
		t.Errorf("LastSeq() = %d, want 1", seq)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	// synchronous NORMAL reads back as 1
	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"user_version": strconv.Itoa(SchemaVersion),
	} {
		got, err := s.pragma(name)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("PRAGMA %s = %q, want %q", name, got, want)
		}
	}
}

func TestOpen_WithBusyTimeout(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), WithBusyTimeout(250*time.Millisecond))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	got, err := s.pragma("busy_timeout")
	if err != nil {
		t.Fatal(err)
	}
	if got != "250" {
		t.Errorf("busy_timeout = %q, want 250", got)
	}
}

func TestOpen_MigratesVersionZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatal(err)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if !contains(getTableIndexes(t, s.db, "property_events"), "idx_property_events_instance") {
		t.Error("migration did not add idx_property_events_instance")
	}
}

func TestOpen_ReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := w.WriteBehaviourEvent(ctx, behaviourEvent(3, "e1", "added")); err != nil {
		t.Fatalf("WriteBehaviourEvent() failed: %v", err)
	}
	w.Close()

	r, err := Open(path, ReadOnly())
	if err != nil {
		t.Fatalf("Open(ReadOnly) failed: %v", err)
	}
	defer r.Close()

	seq, err := r.LastSeq(ctx)
	if err != nil {
		t.Fatalf("LastSeq() failed: %v", err)
	}
	if seq != 3 {
		t.Errorf("LastSeq() = %d, want 3", seq)
	}
	if err := r.WriteBehaviourEvent(ctx, behaviourEvent(4, "e1", "removed")); !errors.Is(err, ErrReadOnly) {
		t.Errorf("WriteBehaviourEvent() error = %v, want ErrReadOnly", err)
	}
}

func TestOpen_ReadOnlyMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	if _, err := Open(path, ReadOnly()); err == nil {
		t.Error("expected error opening a missing log read-only")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("read-only open created the file")
	}
}

func TestOpen_ReadOnlyRejectsUnmigrated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := Open(path, ReadOnly()); err == nil {
		t.Error("expected schema version error")
	}
}

func TestSchema_BehaviourEventsTable(t *testing.T) {
	s := createTestStore(t)
	columns := getTableColumns(t, s.db, "behaviour_events")

	for _, col := range []string{"seq", "instance_id", "behaviour_type", "event", "state", "error"} {
		if !contains(columns, col) {
			t.Errorf("behaviour_events table missing column %q", col)
		}
	}
}

func TestSchema_PropertyEventsTable(t *testing.T) {
	s := createTestStore(t)
	columns := getTableColumns(t, s.db, "property_events")

	for _, col := range []string{"seq", "instance_id", "property", "value"} {
		if !contains(columns, col) {
			t.Errorf("property_events table missing column %q", col)
		}
	}
}

func TestSchema_Indexes(t *testing.T) {
	s := createTestStore(t)

	if !contains(getTableIndexes(t, s.db, "behaviour_events"), "idx_behaviour_events_instance") {
		t.Error("behaviour_events table missing index idx_behaviour_events_instance")
	}
	if !contains(getTableIndexes(t, s.db, "property_events"), "idx_property_events_instance") {
		t.Error("property_events table missing index idx_property_events_instance")
	}
}

func TestLastSeq_Empty(t *testing.T) {
	s := createTestStore(t)
	seq, err := s.LastSeq(context.Background())
	if err != nil {
		t.Fatalf("LastSeq() failed: %v", err)
	}
	if seq != 0 {
		t.Errorf("LastSeq() = %d, want 0", seq)
	}
}
