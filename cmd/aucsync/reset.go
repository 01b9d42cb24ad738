package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rgould/auctionsync/internal/ui"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear all offline data",
	Long: `Delete every cached property, cached auction, decision, queued
write, and app-state entry from the local store.

Unsynced decisions are deleted too. Check 'aucsync status' first; this
cannot be undone.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore(cfg)
		defer st.Close()

		stats, err := st.GetStats()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading store: %v\n", err)
			os.Exit(1)
		}

		if !resetForce {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				fmt.Fprintf(os.Stderr, "Error: refusing to reset without --force on a non-interactive run\n")
				os.Exit(1)
			}

			var confirmed bool
			prompt := huh.NewConfirm().
				Title(fmt.Sprintf("Delete all offline data? (%d properties, %d decisions, %d pending)",
					stats.Properties, stats.Decisions, stats.PendingDecisions)).
				Affirmative("Delete").
				Negative("Cancel").
				Value(&confirmed)
			if err := prompt.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if !confirmed {
				fmt.Println("Cancelled")
				return
			}
		}

		if err := st.ClearAllOfflineData(); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing offline data: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s All offline data cleared\n", ui.RenderPass("✓"))
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}
