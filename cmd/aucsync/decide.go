package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rgould/auctionsync/internal/config"
	"github.com/rgould/auctionsync/internal/netmon"
	"github.com/rgould/auctionsync/internal/store"
	syncpkg "github.com/rgould/auctionsync/internal/sync"
	"github.com/rgould/auctionsync/internal/ui"
)

var (
	decideValue string
	decideNotes string
	decideDate  string
)

var decideCmd = &cobra.Command{
	Use:   "decide <case-number>",
	Short: "Record a decision for a property",
	Long: `Record a BID/SKIP/REVIEW decision for a property case.

The decision is durably recorded the moment the command returns,
regardless of network state. Delivery to the remote endpoint happens
opportunistically: immediately when online, or on the next online
transition seen by the daemon.

On a terminal, omitted values are collected interactively.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		caseNumber := args[0]

		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		if decideValue == "" && interactive {
			if err := promptDecision(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		decision := store.Decision(decideValue)
		if !decision.Valid() {
			fmt.Fprintf(os.Stderr, "Error: invalid decision %q (want BID, SKIP, or REVIEW)\n", decideValue)
			os.Exit(1)
		}

		cfg := loadConfig()
		st := openStore(cfg)
		defer st.Close()

		seq, err := st.SaveDecision(caseNumber, decideDate, decision, decideNotes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error saving decision: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Recorded %s for %s (#%d)\n", ui.RenderPass("✓"), decision, caseNumber, seq)

		// The decision is durable at this point; delivery is best-effort
		// and its outcome never changes what the user sees as recorded.
		if cfg.Remote.DecisionURL != "" {
			res, flushed := opportunisticFlush(cmd.Context(), cfg, st)
			if flushed {
				if err := st.SetLastSync(time.Now().UTC()); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to record sync time: %v\n", err)
				}
			}
			if res.Synced > 0 {
				fmt.Printf("   Synced immediately: %d\n", res.Synced)
			}
		}

		pending, _ := st.CountPendingDecisions()
		fmt.Printf("   Pending sync: %d\n", pending)
	},
}

// opportunisticFlush makes one probe-gated attempt to drain the queue after
// a save. Offline, contention, and delivery failures all leave the queue
// for the daemon or a manual sync.
func opportunisticFlush(ctx context.Context, cfg *config.Config, st *store.Store) (syncpkg.Result, bool) {
	client := syncpkg.NewClient(cfg.Remote.DecisionURL, cfg.Remote.Timeout)
	syncer := syncpkg.NewWithOptions(st, client, log.New(io.Discard, "", 0), syncpkg.Options{
		MaxAttempts: cfg.Sync.MaxAttempts,
		LeaseTTL:    cfg.Sync.LeaseTTL,
	})
	prober := netmon.NewHTTPProber(cfg.Remote.ProbeURL)

	return syncpkg.FlushIfOnline(ctx, prober, syncer, log.New(io.Discard, "", 0))
}

// promptDecision collects the decision and notes with an interactive form.
func promptDecision() error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Decision").
				Options(
					huh.NewOption("Bid on this property", string(store.DecisionBid)),
					huh.NewOption("Skip it", string(store.DecisionSkip)),
					huh.NewOption("Flag for review", string(store.DecisionReview)),
				).
				Value(&decideValue),
			huh.NewText().
				Title("Notes (optional)").
				Value(&decideNotes),
		),
	)
	return form.Run()
}

func init() {
	decideCmd.Flags().StringVarP(&decideValue, "decision", "d", "", "decision value: BID, SKIP, or REVIEW")
	decideCmd.Flags().StringVarP(&decideNotes, "notes", "n", "", "free-text note")
	decideCmd.Flags().StringVar(&decideDate, "auction-date", "", "owning auction date (YYYY-MM-DD)")
	rootCmd.AddCommand(decideCmd)
}
