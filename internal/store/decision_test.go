package store

import (
	"errors"
	"testing"
)

// TestSaveDecision_Success tests appending a decision to the queue
func TestSaveDecision_Success(t *testing.T) {
	st := testStore(t)

	seq, err := st.SaveDecision("2026-CA-001234", "2026-09-04", DecisionBid, "strong comps")
	if err != nil {
		t.Fatalf("SaveDecision() failed: %v", err)
	}
	if seq <= 0 {
		t.Errorf("seq = %d, want positive", seq)
	}

	d, err := st.GetDecision(seq)
	if err != nil {
		t.Fatalf("GetDecision() failed: %v", err)
	}
	if d == nil {
		t.Fatal("GetDecision() returned nil")
	}
	if d.Decision != DecisionBid {
		t.Errorf("Decision = %s, want BID", d.Decision)
	}
	if d.Notes != "strong comps" {
		t.Errorf("Notes = %q, want original notes", d.Notes)
	}
	if d.Synced {
		t.Error("New decision marked synced")
	}
	if d.SyncAttempts != 0 {
		t.Errorf("SyncAttempts = %d, want 0", d.SyncAttempts)
	}
	if d.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped")
	}
}

// TestSaveDecision_SequenceIncreases tests that sequence numbers follow
// insertion order
func TestSaveDecision_SequenceIncreases(t *testing.T) {
	st := testStore(t)

	var prev int64
	for i := 0; i < 3; i++ {
		seq, err := st.SaveDecision("2026-CA-001234", "2026-09-04", DecisionSkip, "")
		if err != nil {
			t.Fatalf("SaveDecision() failed: %v", err)
		}
		if seq <= prev {
			t.Errorf("seq = %d, want > %d", seq, prev)
		}
		prev = seq
	}
}

// TestSaveDecision_InvalidDecision tests the decision value validation
func TestSaveDecision_InvalidDecision(t *testing.T) {
	st := testStore(t)

	if _, err := st.SaveDecision("2026-CA-001234", "2026-09-04", Decision("MAYBE"), ""); err == nil {
		t.Error("SaveDecision() with invalid decision succeeded, want error")
	}
	if _, err := st.SaveDecision("", "2026-09-04", DecisionBid, ""); err == nil {
		t.Error("SaveDecision() with empty case number succeeded, want error")
	}
}

// TestSaveDecision_RepeatedCase tests that one case can accumulate multiple
// decisions; the queue is an audit log, not a map
func TestSaveDecision_RepeatedCase(t *testing.T) {
	st := testStore(t)

	if _, err := st.SaveDecision("2026-CA-001234", "2026-09-04", DecisionReview, ""); err != nil {
		t.Fatalf("First SaveDecision() failed: %v", err)
	}
	if _, err := st.SaveDecision("2026-CA-001234", "2026-09-04", DecisionBid, "changed my mind"); err != nil {
		t.Fatalf("Second SaveDecision() failed: %v", err)
	}

	pending, err := st.GetPendingDecisions()
	if err != nil {
		t.Fatalf("GetPendingDecisions() failed: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("len(pending) = %d, want 2", len(pending))
	}
}

// TestGetPendingDecisions_Order tests insertion-order draining
func TestGetPendingDecisions_Order(t *testing.T) {
	st := testStore(t)

	seqs := make([]int64, 0, 3)
	for _, cn := range []string{"2026-CA-000300", "2026-CA-000100", "2026-CA-000200"} {
		seq, err := st.SaveDecision(cn, "2026-09-04", DecisionSkip, "")
		if err != nil {
			t.Fatalf("SaveDecision() failed: %v", err)
		}
		seqs = append(seqs, seq)
	}

	pending, err := st.GetPendingDecisions()
	if err != nil {
		t.Fatalf("GetPendingDecisions() failed: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("len(pending) = %d, want 3", len(pending))
	}
	for i, d := range pending {
		if d.Seq != seqs[i] {
			t.Errorf("pending[%d].Seq = %d, want %d (insertion order)", i, d.Seq, seqs[i])
		}
	}
}

// TestMarkDecisionSynced_RemovesFromPending tests the synced transition
func TestMarkDecisionSynced_RemovesFromPending(t *testing.T) {
	st := testStore(t)

	seq, err := st.SaveDecision("2026-CA-001234", "2026-09-04", DecisionBid, "")
	if err != nil {
		t.Fatalf("SaveDecision() failed: %v", err)
	}

	if err := st.MarkDecisionSynced(seq); err != nil {
		t.Fatalf("MarkDecisionSynced() failed: %v", err)
	}

	pending, err := st.GetPendingDecisions()
	if err != nil {
		t.Fatalf("GetPendingDecisions() failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("len(pending) = %d after sync, want 0", len(pending))
	}

	// The decision itself stays as an audit record
	d, err := st.GetDecision(seq)
	if err != nil {
		t.Fatalf("GetDecision() failed: %v", err)
	}
	if d == nil {
		t.Fatal("Synced decision was deleted")
	}
	if !d.Synced {
		t.Error("Decision not marked synced")
	}
}

// TestMarkDecisionSynced_MissingSeq tests the no-op on an unknown sequence
func TestMarkDecisionSynced_MissingSeq(t *testing.T) {
	st := testStore(t)

	if err := st.MarkDecisionSynced(9999); err != nil {
		t.Errorf("MarkDecisionSynced() on missing seq failed: %v", err)
	}
}

// TestRecordSyncFailure_IncrementsAttempts tests the failure bookkeeping
func TestRecordSyncFailure_IncrementsAttempts(t *testing.T) {
	st := testStore(t)

	seq, err := st.SaveDecision("2026-CA-001234", "2026-09-04", DecisionBid, "")
	if err != nil {
		t.Fatalf("SaveDecision() failed: %v", err)
	}

	if err := st.RecordSyncFailure(seq, errors.New("connection refused")); err != nil {
		t.Fatalf("RecordSyncFailure() failed: %v", err)
	}
	if err := st.RecordSyncFailure(seq, errors.New("503 Service Unavailable")); err != nil {
		t.Fatalf("Second RecordSyncFailure() failed: %v", err)
	}

	d, err := st.GetDecision(seq)
	if err != nil {
		t.Fatalf("GetDecision() failed: %v", err)
	}
	if d.SyncAttempts != 2 {
		t.Errorf("SyncAttempts = %d, want 2", d.SyncAttempts)
	}
	if d.LastError != "503 Service Unavailable" {
		t.Errorf("LastError = %q, want latest error", d.LastError)
	}
	if d.Synced {
		t.Error("Failed decision marked synced")
	}

	// Still pending, still drainable
	count, err := st.CountPendingDecisions()
	if err != nil {
		t.Fatalf("CountPendingDecisions() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("CountPendingDecisions() = %d, want 1", count)
	}
}

// TestGetDecision_Missing tests that an unknown sequence reads as nil
func TestGetDecision_Missing(t *testing.T) {
	st := testStore(t)

	d, err := st.GetDecision(42)
	if err != nil {
		t.Fatalf("GetDecision() failed: %v", err)
	}
	if d != nil {
		t.Errorf("GetDecision() = %+v, want nil", d)
	}
}

// TestSaveDecision_EmptyNotes tests NULL handling for the optional note
func TestSaveDecision_EmptyNotes(t *testing.T) {
	st := testStore(t)

	seq, err := st.SaveDecision("2026-CA-001234", "2026-09-04", DecisionSkip, "")
	if err != nil {
		t.Fatalf("SaveDecision() failed: %v", err)
	}

	d, err := st.GetDecision(seq)
	if err != nil {
		t.Fatalf("GetDecision() failed: %v", err)
	}
	if d.Notes != "" {
		t.Errorf("Notes = %q, want empty", d.Notes)
	}
	if d.LastError != "" {
		t.Errorf("LastError = %q, want empty before any attempt", d.LastError)
	}
}
