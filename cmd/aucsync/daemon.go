package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rgould/auctionsync/internal/config"
	"github.com/rgould/auctionsync/internal/daemon"
	"github.com/rgould/auctionsync/internal/feed"
	"github.com/rgould/auctionsync/internal/netmon"
	syncpkg "github.com/rgould/auctionsync/internal/sync"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the sync daemon in the foreground",
	Long: `Run the background synchronizer in the foreground.

The daemon watches connectivity, flushes the decision queue on every
offline-to-online transition, sweeps expired cache entries on a timer,
and optionally serves a WebSocket status feed for UIs.

Stop with SIGINT or SIGTERM.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if cfg.Remote.DecisionURL == "" {
			fmt.Fprintf(os.Stderr, "Error: remote.decision_url is not configured\n")
			os.Exit(1)
		}

		logger := daemonLogger(cfg)

		st := openStore(cfg)
		defer st.Close()

		client := syncpkg.NewClient(cfg.Remote.DecisionURL, cfg.Remote.Timeout)
		syncer := syncpkg.NewWithOptions(st, client, logger, syncpkg.Options{
			MaxAttempts: cfg.Sync.MaxAttempts,
			LeaseTTL:    cfg.Sync.LeaseTTL,
		})
		publisher := syncpkg.NewPublisher(st, syncer, logger)

		monitor, err := netmon.New(netmon.NewHTTPProber(cfg.Remote.ProbeURL), &netmon.Config{
			ProbeInterval: cfg.Sync.ProbeInterval,
			OverridePath:  cfg.Sync.OfflineMarker,
			Logger:        logger,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating connectivity monitor: %v\n", err)
			os.Exit(1)
		}

		d, err := daemon.NewWithConfig(publisher, monitor, &daemon.Config{
			SweepInterval: cfg.Sync.SweepInterval,
			Logger:        logger,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
			os.Exit(1)
		}

		if cfg.Feed.Enabled {
			server := feed.NewServer(publisher, &feed.Config{
				Port:   cfg.Feed.Port,
				Logger: logger,
			})
			if err := server.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error starting status feed: %v\n", err)
				os.Exit(1)
			}
			defer func() {
				if err := server.Stop(); err != nil {
					logger.Printf("Error stopping status feed: %v", err)
				}
			}()
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := d.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error running daemon: %v\n", err)
			os.Exit(1)
		}
	},
}

// daemonLogger builds the daemon's logger: rotated file when configured,
// stderr otherwise.
func daemonLogger(cfg *config.Config) *log.Logger {
	if cfg.Log.File == "" {
		return log.New(os.Stderr, "[aucsync] ", log.LstdFlags)
	}
	return log.New(&lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}, "[aucsync] ", log.LstdFlags)
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
