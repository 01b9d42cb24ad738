package store

import (
	"path/filepath"
	"testing"
	"time"
)

// testDBPath returns a temporary path for test databases
func testDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

// testStore opens and initializes a store at a temporary path
func testStore(t *testing.T) *Store {
	t.Helper()

	st, err := Open(testDBPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.InitSchema(); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}

	return st
}

// TestOpen_Success tests successful database creation
func TestOpen_Success(t *testing.T) {
	path := testDBPath(t)
	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()

	if st.Path() != path {
		t.Errorf("Path() = %q, want %q", st.Path(), path)
	}
}

// TestInitSchema_Success tests that all collections are created
func TestInitSchema_Success(t *testing.T) {
	st := testStore(t)

	tables := []string{"properties", "auctions", "decisions", "sync_queue", "app_state"}
	for _, table := range tables {
		var count int
		query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`
		if err := st.conn.QueryRow(query, table).Scan(&count); err != nil {
			t.Fatalf("Failed to query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("Table %s does not exist", table)
		}
	}
}

// TestInitSchema_Idempotent tests that schema initialization is idempotent
func TestInitSchema_Idempotent(t *testing.T) {
	st := testStore(t)

	if err := st.InitSchema(); err != nil {
		t.Errorf("Second InitSchema() failed: %v", err)
	}

	var version int
	if err := st.conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != schemaVersion {
		t.Errorf("schema version = %d, want %d", version, schemaVersion)
	}
}

// TestInitSchema_NewerVersionRejected tests that a database from a newer
// build is refused rather than mangled
func TestInitSchema_NewerVersionRejected(t *testing.T) {
	st := testStore(t)

	if _, err := st.conn.Exec("PRAGMA user_version=99"); err != nil {
		t.Fatalf("Failed to bump schema version: %v", err)
	}

	if err := st.InitSchema(); err == nil {
		t.Error("InitSchema() on newer schema succeeded, want error")
	}
}

// TestStore_DurabilityAcrossReopen tests that writes survive close and reopen
func TestStore_DurabilityAcrossReopen(t *testing.T) {
	path := testDBPath(t)

	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := st.InitSchema(); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}

	seq, err := st.SaveDecision("2026-CA-001234", "2026-09-04", DecisionBid, "good equity")
	if err != nil {
		t.Fatalf("SaveDecision() failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	st2, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer st2.Close()
	if err := st2.InitSchema(); err != nil {
		t.Fatalf("InitSchema() after reopen failed: %v", err)
	}

	d, err := st2.GetDecision(seq)
	if err != nil {
		t.Fatalf("GetDecision() failed: %v", err)
	}
	if d == nil {
		t.Fatal("Decision did not survive reopen")
	}
	if d.Decision != DecisionBid || d.Notes != "good equity" {
		t.Errorf("Decision = %s notes=%q, want BID with original notes", d.Decision, d.Notes)
	}
}

// TestAppState_RoundTrip tests singleton key/value storage
func TestAppState_RoundTrip(t *testing.T) {
	st := testStore(t)

	if err := st.SetAppState("session_token", "abc123"); err != nil {
		t.Fatalf("SetAppState() failed: %v", err)
	}

	value, ok, err := st.GetAppState("session_token")
	if err != nil {
		t.Fatalf("GetAppState() failed: %v", err)
	}
	if !ok || value != "abc123" {
		t.Errorf("GetAppState() = (%q, %v), want (abc123, true)", value, ok)
	}

	// Overwrite
	if err := st.SetAppState("session_token", "def456"); err != nil {
		t.Fatalf("SetAppState() overwrite failed: %v", err)
	}
	value, _, _ = st.GetAppState("session_token")
	if value != "def456" {
		t.Errorf("GetAppState() after overwrite = %q, want def456", value)
	}
}

// TestAppState_Missing tests reading an absent key
func TestAppState_Missing(t *testing.T) {
	st := testStore(t)

	value, ok, err := st.GetAppState("no_such_key")
	if err != nil {
		t.Fatalf("GetAppState() failed: %v", err)
	}
	if ok || value != "" {
		t.Errorf("GetAppState() = (%q, %v), want absent", value, ok)
	}
}

// TestLastSync_RoundTrip tests the last-sync instant helpers
func TestLastSync_RoundTrip(t *testing.T) {
	st := testStore(t)

	// Zero before any sync
	last, err := st.LastSync()
	if err != nil {
		t.Fatalf("LastSync() failed: %v", err)
	}
	if !last.IsZero() {
		t.Errorf("LastSync() before any sync = %v, want zero", last)
	}

	want := time.Date(2026, 9, 4, 10, 30, 0, 0, time.UTC)
	if err := st.SetLastSync(want); err != nil {
		t.Fatalf("SetLastSync() failed: %v", err)
	}

	last, err = st.LastSync()
	if err != nil {
		t.Fatalf("LastSync() failed: %v", err)
	}
	if !last.Equal(want) {
		t.Errorf("LastSync() = %v, want %v", last, want)
	}
}
