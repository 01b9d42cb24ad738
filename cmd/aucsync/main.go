// Command aucsync is the offline-first cache and decision synchronizer for
// auction research.
//
// It caches property and auction data fetched from the remote read API,
// durably queues BID/SKIP/REVIEW decisions made while offline, and drains
// the queue to the remote decision endpoint when connectivity returns.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rgould/auctionsync/internal/config"
	"github.com/rgould/auctionsync/internal/store"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "aucsync",
	Short: "Offline-first auction cache and decision sync",
	Long: `aucsync keeps auction research usable without a network connection.

Property and auction data fetched from the remote API is cached locally
with a 24h TTL. Decisions (BID/SKIP/REVIEW) are recorded durably the
moment they are made, offline or not, and synced to the remote endpoint
when connectivity returns.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: defaults + AUCSYNC_* env)")
}

// loadConfig resolves the runtime configuration for a command.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// openStore opens and migrates the store, exiting on failure.
// The caller must Close() the returned store.
func openStore(cfg *config.Config) *store.Store {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}

	if err := st.InitSchema(); err != nil {
		_ = st.Close()
		fmt.Fprintf(os.Stderr, "Error initializing schema: %v\n", err)
		os.Exit(1)
	}

	return st
}
