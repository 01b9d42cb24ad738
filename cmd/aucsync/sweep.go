package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rgould/auctionsync/internal/ui"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Clear expired property cache entries",
	Long: `Remove property cache entries whose 24h TTL has elapsed.

The daemon runs this on a timer; the command exists for manual cleanup
and scripting. Auction entries, decisions, and queued writes are never
touched.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore(cfg)
		defer st.Close()

		removed, err := st.ClearExpiredCache()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error sweeping cache: %v\n", err)
			os.Exit(1)
		}

		if removed == 0 {
			fmt.Println("No expired cache entries")
			return
		}
		fmt.Printf("%s Removed %d expired cache entries\n", ui.RenderPass("✓"), removed)
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
