package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rgould/auctionsync/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show offline cache status",
	Long: `Display the current state of the offline cache.

Shows:
  - Cache file location and size estimate
  - Counts per collection
  - Pending (unsynced) decision count
  - Last successful sync time`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		if _, err := os.Stat(cfg.Store.Path); os.IsNotExist(err) {
			fmt.Printf("\n%s Offline cache not initialized\n", ui.RenderWarn("⚠"))
			fmt.Printf("   It is created on first use at %s\n\n", cfg.Store.Path)
			return
		}

		st := openStore(cfg)
		defer st.Close()

		stats, err := st.GetStats()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stats: %v\n", err)
			os.Exit(1)
		}

		sizeStr := "unknown"
		if stats.SizeBytes > 0 {
			switch {
			case stats.SizeBytes > 1024*1024:
				sizeStr = fmt.Sprintf("%.1f MB", float64(stats.SizeBytes)/(1024*1024))
			case stats.SizeBytes > 1024:
				sizeStr = fmt.Sprintf("%.1f KB", float64(stats.SizeBytes)/1024)
			default:
				sizeStr = fmt.Sprintf("%d bytes", stats.SizeBytes)
			}
		}

		lastSync, err := st.LastSync()
		lastSyncStr := "never"
		if err == nil && !lastSync.IsZero() {
			lastSyncStr = lastSync.Local().Format("2006-01-02 15:04:05")
		}

		fmt.Printf("\n%s Offline Cache Status\n\n", ui.RenderAccent("📊"))
		fmt.Printf("Location: %s\n", cfg.Store.Path)
		fmt.Printf("Size: %s\n", sizeStr)
		fmt.Printf("Properties: %d\n", stats.Properties)
		fmt.Printf("Auctions: %d\n", stats.Auctions)
		fmt.Printf("Decisions: %d\n", stats.Decisions)
		if stats.PendingDecisions > 0 {
			fmt.Printf("Pending sync: %s\n", ui.RenderWarn(fmt.Sprintf("%d", stats.PendingDecisions)))
		} else {
			fmt.Printf("Pending sync: 0\n")
		}
		fmt.Printf("Last sync: %s\n", lastSyncStr)
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
