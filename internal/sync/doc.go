// Package sync provides the synchronization bridge between the local
// decision queue and the remote decision-acceptance endpoint.
//
// Overview
//
// The sync package implements the write-side drain of the offline-first
// core. Decisions recorded while offline accumulate in the store's decision
// queue; the syncer delivers them to the remote authority once connectivity
// returns.
//
// Architecture
//
//	Consumer (CLI / UI)
//	     └── store.SaveDecision        durable append, never blocked by network
//	                 ↓
//	          decisions (synced=0)
//	                 ↓
//	              Syncer               one delivery attempt per item, in order
//	                 ↓
//	          remote endpoint          POST {case_number, auction_date, decision, notes}
//
// The syncer is designed to be resilient - an individual delivery failure
// is recorded on the item and never stops the run. Every run operates on a
// snapshot of the pending queue taken at its start; decisions appended
// after the snapshot wait for the next run.
//
// Delivery is at-least-once. The remote endpoint is expected to deduplicate;
// this package guarantees only that an item acknowledged by the remote is
// never sent again.
//
// Usage
//
// Basic usage:
//
//	st, err := store.Open(".aucsync/cache.db")
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	if err := st.InitSchema(); err != nil {
//	    return err
//	}
//
//	client := sync.NewClient("https://api.example.com/decisions", 10*time.Second)
//	syncer := sync.New(st, client, nil)
//
//	res, err := syncer.SyncPending(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("synced=%d failed=%d stuck=%d\n", res.Synced, res.Failed, res.Stuck)
//
// The Publisher wraps a Syncer with an observable status feed for UIs:
//
//	pub := sync.NewPublisher(st, syncer, nil)
//	snapshots, cancel := pub.Subscribe()
//	defer cancel()
package sync
