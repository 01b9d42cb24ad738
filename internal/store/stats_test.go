package store

import (
	"encoding/json"
	"testing"
)

// TestGetStats_Counts tests the per-collection counts
func TestGetStats_Counts(t *testing.T) {
	st := testStore(t)

	if err := st.CacheProperty("2026-CA-000100", "2026-09-04", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("CacheProperty() failed: %v", err)
	}
	if err := st.CacheProperty("2026-CA-000200", "2026-09-04", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("CacheProperty() failed: %v", err)
	}
	if err := st.CacheAuction("2026-09-04", []string{"2026-CA-000100", "2026-CA-000200"}); err != nil {
		t.Fatalf("CacheAuction() failed: %v", err)
	}

	seq, err := st.SaveDecision("2026-CA-000100", "2026-09-04", DecisionBid, "")
	if err != nil {
		t.Fatalf("SaveDecision() failed: %v", err)
	}
	if _, err := st.SaveDecision("2026-CA-000200", "2026-09-04", DecisionSkip, ""); err != nil {
		t.Fatalf("SaveDecision() failed: %v", err)
	}
	if err := st.MarkDecisionSynced(seq); err != nil {
		t.Fatalf("MarkDecisionSynced() failed: %v", err)
	}

	stats, err := st.GetStats()
	if err != nil {
		t.Fatalf("GetStats() failed: %v", err)
	}

	if stats.Properties != 2 {
		t.Errorf("Properties = %d, want 2", stats.Properties)
	}
	if stats.Auctions != 1 {
		t.Errorf("Auctions = %d, want 1", stats.Auctions)
	}
	if stats.Decisions != 2 {
		t.Errorf("Decisions = %d, want 2", stats.Decisions)
	}
	if stats.PendingDecisions != 1 {
		t.Errorf("PendingDecisions = %d, want 1", stats.PendingDecisions)
	}
	if stats.SizeBytes <= 0 {
		t.Errorf("SizeBytes = %d, want positive for a populated store", stats.SizeBytes)
	}
}

// TestGetStats_EmptyStore tests stats on a fresh store
func TestGetStats_EmptyStore(t *testing.T) {
	st := testStore(t)

	stats, err := st.GetStats()
	if err != nil {
		t.Fatalf("GetStats() failed: %v", err)
	}
	if stats.Properties != 0 || stats.Decisions != 0 || stats.PendingDecisions != 0 {
		t.Errorf("Fresh store stats = %+v, want zero counts", stats)
	}
}

// TestClearAllOfflineData_EmptiesEverything tests the reset flow
func TestClearAllOfflineData_EmptiesEverything(t *testing.T) {
	st := testStore(t)

	if err := st.CacheProperty("2026-CA-000100", "2026-09-04", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("CacheProperty() failed: %v", err)
	}
	if err := st.CacheAuction("2026-09-04", []string{"2026-CA-000100"}); err != nil {
		t.Fatalf("CacheAuction() failed: %v", err)
	}
	if _, err := st.SaveDecision("2026-CA-000100", "2026-09-04", DecisionBid, ""); err != nil {
		t.Fatalf("SaveDecision() failed: %v", err)
	}
	if err := st.SetAppState("session_token", "abc"); err != nil {
		t.Fatalf("SetAppState() failed: %v", err)
	}

	if err := st.ClearAllOfflineData(); err != nil {
		t.Fatalf("ClearAllOfflineData() failed: %v", err)
	}

	stats, err := st.GetStats()
	if err != nil {
		t.Fatalf("GetStats() failed: %v", err)
	}
	if stats.Properties != 0 || stats.Auctions != 0 || stats.Decisions != 0 ||
		stats.QueuedWrites != 0 || stats.AppStateKeys != 0 {
		t.Errorf("Stats after reset = %+v, want all zero", stats)
	}
}

// TestClearAllOfflineData_Idempotent tests resetting an already-empty store
func TestClearAllOfflineData_Idempotent(t *testing.T) {
	st := testStore(t)

	if err := st.ClearAllOfflineData(); err != nil {
		t.Fatalf("ClearAllOfflineData() failed: %v", err)
	}
	if err := st.ClearAllOfflineData(); err != nil {
		t.Errorf("Second ClearAllOfflineData() failed: %v", err)
	}
}
