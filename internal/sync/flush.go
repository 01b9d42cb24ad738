package sync

import (
	"context"
	"errors"
	"log"
	"os"
)

// ConnectivityProber reports whether the remote endpoint is currently
// reachable. Satisfied by netmon.HTTPProber.
type ConnectivityProber interface {
	Online(ctx context.Context) bool
}

// FlushIfOnline probes connectivity once and, when the remote is reachable,
// performs one sync run.
//
// This is the opportunistic write-path flush: saving a decision stays a
// pure durable store write, and the save path calls this afterwards on a
// best-effort basis. An offline probe skips the run entirely, so queued
// decisions are never charged a failed delivery attempt just because the
// user is offline. Another process already draining the queue is a benign
// outcome, not a failure.
//
// The boolean reports whether a run completed.
func FlushIfOnline(ctx context.Context, prober ConnectivityProber, syncer Syncer, logger *log.Logger) (Result, bool) {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}

	if !prober.Online(ctx) {
		return Result{}, false
	}

	res, err := syncer.SyncPending(ctx)
	if err != nil {
		if !errors.Is(err, ErrSyncActive) {
			logger.Printf("WARNING: opportunistic flush failed: %v", err)
		}
		return res, false
	}

	return res, true
}
