package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/rgould/auctionsync/internal/ui"
)

var auctionCmd = &cobra.Command{
	Use:   "auction <date>",
	Short: "Show the cached auction for a date",
	Long: `Display the cached auction entry for a date.

The date may be exact (YYYY-MM-DD) or natural language, e.g.:

  aucsync auction 2026-09-04
  aucsync auction tomorrow
  aucsync auction "next tuesday"

Listed case numbers may reference property entries that have since
expired; the auction entry itself never expires.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		date, err := resolveAuctionDate(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg := loadConfig()
		st := openStore(cfg)
		defer st.Close()

		auction, err := st.GetCachedAuction(date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading auction: %v\n", err)
			os.Exit(1)
		}
		if auction == nil {
			fmt.Printf("%s No cached auction for %s\n", ui.RenderWarn("⚠"), date)
			return
		}

		cached, err := st.GetCachedPropertiesByAuction(date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading cached properties: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s Auction %s\n\n", ui.RenderAccent("🏠"), auction.AuctionDate)
		fmt.Printf("Properties: %d\n", auction.TotalProperties)
		fmt.Printf("Analyzed: %d\n", auction.AnalyzedCount)
		fmt.Printf("Cached payloads: %d\n", len(cached))
		fmt.Printf("Cached at: %s\n", auction.CachedAt.Local().Format("2006-01-02 15:04:05"))
		if len(auction.CaseNumbers) > 0 {
			fmt.Println("\nCases:")
			for _, cn := range auction.CaseNumbers {
				fmt.Printf("  %s\n", cn)
			}
		}
		fmt.Println()
	},
}

// resolveAuctionDate accepts YYYY-MM-DD or a natural-language phrase.
func resolveAuctionDate(input string) (string, error) {
	if _, err := time.Parse("2006-01-02", input); err == nil {
		return input, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(input, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to parse date %q: %w", input, err)
	}
	if r == nil {
		return "", fmt.Errorf("could not understand date %q (try YYYY-MM-DD)", input)
	}

	return r.Time.Format("2006-01-02"), nil
}

func init() {
	rootCmd.AddCommand(auctionCmd)
}
