package sync

import (
	"context"
	"testing"

	"github.com/rgould/auctionsync/internal/store"
)

// staticProber answers with a fixed connectivity state
type staticProber struct {
	online bool
}

func (p staticProber) Online(ctx context.Context) bool {
	return p.online
}

// TestFlushIfOnline_DrainsAfterSave tests the write-path flush: a decision
// saved while the remote is reachable is delivered right away
func TestFlushIfOnline_DrainsAfterSave(t *testing.T) {
	st := testStore(t)
	deliverer := &fakeDeliverer{}
	syncer := New(st, deliverer, testLogger())

	if _, err := st.SaveDecision("2026-CA-001234", "2026-09-04", store.DecisionBid, ""); err != nil {
		t.Fatalf("SaveDecision() failed: %v", err)
	}

	res, ran := FlushIfOnline(context.Background(), staticProber{online: true}, syncer, testLogger())
	if !ran {
		t.Fatal("FlushIfOnline() did not run while online")
	}
	if res.Synced != 1 {
		t.Errorf("Result = %+v, want {Synced:1}", res)
	}

	count, err := st.CountPendingDecisions()
	if err != nil {
		t.Fatalf("CountPendingDecisions() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("pending = %d after online save flush, want 0", count)
	}
}

// TestFlushIfOnline_OfflineSkipsRun tests that an offline save never burns
// a delivery attempt
func TestFlushIfOnline_OfflineSkipsRun(t *testing.T) {
	st := testStore(t)
	deliverer := &fakeDeliverer{}
	syncer := New(st, deliverer, testLogger())

	seq, err := st.SaveDecision("2026-CA-001234", "2026-09-04", store.DecisionBid, "")
	if err != nil {
		t.Fatalf("SaveDecision() failed: %v", err)
	}

	res, ran := FlushIfOnline(context.Background(), staticProber{online: false}, syncer, testLogger())
	if ran {
		t.Error("FlushIfOnline() ran while offline")
	}
	if res != (Result{}) {
		t.Errorf("Result = %+v, want zero", res)
	}
	if len(deliverer.deliveredCases()) != 0 {
		t.Error("Deliverer was called while offline")
	}

	// The queued decision is untouched: still pending, zero attempts
	d, err := st.GetDecision(seq)
	if err != nil {
		t.Fatalf("GetDecision() failed: %v", err)
	}
	if d.Synced || d.SyncAttempts != 0 {
		t.Errorf("decision = %+v, want untouched", d)
	}
}

// TestFlushIfOnline_ConcurrentDrainBenign tests that another process
// holding the lease is not reported as a run or an error
func TestFlushIfOnline_ConcurrentDrainBenign(t *testing.T) {
	_ = testStore(t)
	pub := &fakeSyncer{err: ErrSyncActive}

	_, ran := FlushIfOnline(context.Background(), staticProber{online: true}, pub, testLogger())
	if ran {
		t.Error("FlushIfOnline() reported a run despite an active drain elsewhere")
	}
	if pub.runCount() != 1 {
		t.Errorf("runs = %d, want exactly one attempt", pub.runCount())
	}
}
