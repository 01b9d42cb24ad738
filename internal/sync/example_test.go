package sync_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rgould/auctionsync/internal/store"
	"github.com/rgould/auctionsync/internal/sync"
)

// Example demonstrates draining the decision queue against the remote
// endpoint.
func Example() {
	st, err := store.Open(".aucsync/cache.db")
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	if err := st.InitSchema(); err != nil {
		log.Fatal(err)
	}

	client := sync.NewClient("https://api.example.com/decisions", 10*time.Second)
	syncer := sync.New(st, client, nil)

	res, err := syncer.SyncPending(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("synced=%d failed=%d stuck=%d\n", res.Synced, res.Failed, res.Stuck)
}

// ExamplePublisher demonstrates observing sync status from a UI.
func ExamplePublisher() {
	st, err := store.Open(".aucsync/cache.db")
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	if err := st.InitSchema(); err != nil {
		log.Fatal(err)
	}

	client := sync.NewClient("https://api.example.com/decisions", 10*time.Second)
	pub := sync.NewPublisher(st, sync.New(st, client, nil), nil)

	snapshots, cancel := pub.Subscribe()
	defer cancel()

	// The first snapshot arrives immediately; later ones follow every
	// state change.
	status := <-snapshots
	fmt.Printf("pending=%d online=%v\n", status.PendingCount, status.Online)
}
