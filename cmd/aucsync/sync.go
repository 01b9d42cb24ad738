package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	syncpkg "github.com/rgould/auctionsync/internal/sync"
	"github.com/rgould/auctionsync/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Flush pending decisions to the remote endpoint",
	Long: `Deliver all pending decisions to the remote decision endpoint.

Each pending decision gets one delivery attempt, in insertion order.
A failed item is recorded and skipped; it does not stop the run.
Items that reached the retry ceiling are reported as stuck.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if cfg.Remote.DecisionURL == "" {
			fmt.Fprintf(os.Stderr, "Error: remote.decision_url is not configured\n")
			os.Exit(1)
		}

		st := openStore(cfg)
		defer st.Close()

		client := syncpkg.NewClient(cfg.Remote.DecisionURL, cfg.Remote.Timeout)
		syncer := syncpkg.NewWithOptions(st, client, nil, syncpkg.Options{
			MaxAttempts: cfg.Sync.MaxAttempts,
			LeaseTTL:    cfg.Sync.LeaseTTL,
		})

		fmt.Printf("%s Syncing decisions to %s...\n", ui.RenderAccent("🔄"), cfg.Remote.DecisionURL)
		start := time.Now()

		res, err := syncer.SyncPending(context.Background())
		if errors.Is(err, syncpkg.ErrSyncActive) {
			fmt.Printf("%s Sync already running in another process\n", ui.RenderWarn("⚠"))
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error during sync: %v\n", err)
			os.Exit(1)
		}

		if err := st.SetLastSync(time.Now().UTC()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to record sync time: %v\n", err)
		}

		elapsed := time.Since(start)
		pending, _ := st.CountPendingDecisions()

		fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"), elapsed.Round(time.Millisecond))
		fmt.Printf("   Synced: %d\n", res.Synced)
		if res.Failed > 0 {
			fmt.Printf("   %s Failed: %d\n", ui.RenderFail("✗"), res.Failed)
		} else {
			fmt.Printf("   Failed: %d\n", res.Failed)
		}
		if res.Stuck > 0 {
			fmt.Printf("   %s Stuck (retry ceiling): %d\n", ui.RenderWarn("⚠"), res.Stuck)
		}
		fmt.Printf("   Still pending: %d\n", pending)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
