package main

import (
	"context"
	"sync"
	"time"

	"github.com/ringops/ringstats/internal/reconcile"
	"github.com/ringops/ringstats/internal/rpc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// lastRun keeps the most recent reconcile summary for the status endpoint.
type lastRun struct {
	mu      sync.RWMutex
	summary *reconcile.Summary
}

func (l *lastRun) set(s reconcile.Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.summary = &s
}

func (l *lastRun) get() *reconcile.Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.summary
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the status server, reconciling and watching every RUN_INTERVAL",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			ctx := cmd.Context()
			last := &lastRun{}

			closeRpcServer := rpc.StartRPCServer(a.cfg.RPCPortOrDefault(), rpc.Deps{
				Store:      a.store,
				Watch:      a.watcher,
				Categories: a.categories,
				LastRun:    last.get,
			}, ctx)
			defer closeRpcServer()

			interval := a.cfg.RunIntervalDuration()
			if interval <= 0 {
				zap.L().Info("RUN_INTERVAL not set, serving status only")
				<-ctx.Done()
				return nil
			}
			runPeriodically(ctx, interval, func(ctx context.Context) {
				last.set(a.reconciler.Run(ctx))
				a.watcher.Run(ctx)
			})
			return nil
		}),
	}
}

// runPeriodically calls fn immediately and then every interval until ctx is done.
func runPeriodically(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		fn(ctx)
		if ctx.Err() != nil {
			zap.L().Info("Received shutdown signal, stopping scheduler")
			return
		}
		select {
		case <-ctx.Done():
			zap.L().Info("Received shutdown signal, stopping scheduler")
			return
		case <-ticker.C:
		}
	}
}
