package reconcile

import (
	"context"
	"time"

	"github.com/ringops/ringstats/internal/catalog"
	"github.com/ringops/ringstats/internal/metadata"
	"github.com/ringops/ringstats/internal/metrics"
	"github.com/ringops/ringstats/internal/mint"
	"github.com/ringops/ringstats/internal/table"
	"go.uber.org/zap"
)

type CategorySummary struct {
	Category          string `json:"category"`
	Visited           int    `json:"visited"`
	Skipped           int    `json:"skipped"`
	StatsWritten      int    `json:"statsWritten"`
	ProvenanceWritten int    `json:"provenanceWritten"`
	Unresolved        int    `json:"unresolved"`
	Failed            int    `json:"failed"`
	// HaltedAt is the first unresolved item when sequential minting stopped the walk.
	HaltedAt string `json:"haltedAt,omitempty"`
}

type Summary struct {
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
	Categories []CategorySummary `json:"categories"`
	Cancelled  bool              `json:"cancelled"`
}

type Options struct {
	Categories []catalog.Category
	// CategorySize is the number of rows created for an empty category.
	CategorySize int
	// AssumeSequentialMinting stops a category at its first unresolved item.
	AssumeSequentialMinting bool
	Location                *time.Location
}

type Reconciler struct {
	store    table.Store
	resolver mint.Resolver
	fetcher  metadata.Fetcher
	opts     Options
	now      func() time.Time
}

func NewReconciler(store table.Store, resolver mint.Resolver, fetcher metadata.Fetcher, opts Options) *Reconciler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Reconciler{
		store:    store,
		resolver: resolver,
		fetcher:  fetcher,
		opts:     opts,
		now:      time.Now,
	}
}

func (r *Reconciler) Run(ctx context.Context) Summary {
	summary := Summary{StartedAt: r.now()}
	r.resolver.ResetRun()

	for _, category := range r.opts.Categories {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		cs, err := r.ReconcileCategory(ctx, category)
		if err != nil {
			zap.L().Error("Failed to reconcile category", zap.String("category", category.Name), zap.Error(err))
		}
		summary.Categories = append(summary.Categories, cs)
	}
	if ctx.Err() != nil {
		summary.Cancelled = true
	}

	summary.FinishedAt = r.now()
	metrics.LastRunTimestamp.Set(float64(summary.FinishedAt.Unix()))
	zap.L().Info("Reconcile run finished",
		zap.Int("categories", len(summary.Categories)),
		zap.Bool("cancelled", summary.Cancelled),
		zap.Duration("took", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return summary
}

// ReconcileCategory fills missing stats and provenance row by row, writing each row as soon as it is known.
func (r *Reconciler) ReconcileCategory(ctx context.Context, category catalog.Category) (CategorySummary, error) {
	cs := CategorySummary{Category: category.Name}

	rows, err := r.store.Rows(ctx, category)
	if err != nil {
		return cs, err
	}
	if len(rows) == 0 {
		if _, err := r.store.InitCategory(ctx, category, r.opts.CategorySize); err != nil {
			return cs, err
		}
		if rows, err = r.store.Rows(ctx, category); err != nil {
			return cs, err
		}
	}

	for _, row := range rows {
		if ctx.Err() != nil {
			zap.L().Info("Reconcile interrupted", zap.String("category", category.Name), zap.String("itemId", row.ItemID.String()))
			break
		}
		cs.Visited++

		if row.Complete() {
			cs.Skipped++
			metrics.RowsReconciledTotal.WithLabelValues(category.Name, "skipped").Inc()
			continue
		}

		prov, minted := r.resolver.ResolveMint(ctx, row.ItemID)
		if !minted {
			if ctx.Err() != nil {
				zap.L().Info("Reconcile interrupted during mint lookup",
					zap.String("category", category.Name),
					zap.String("itemId", row.ItemID.String()),
				)
				break
			}
			cs.Unresolved++
			metrics.RowsReconciledTotal.WithLabelValues(category.Name, "unresolved").Inc()
			if r.opts.AssumeSequentialMinting {
				cs.HaltedAt = row.ItemID.String()
				zap.L().Info("Item not minted yet, stopping category",
					zap.String("category", category.Name),
					zap.String("itemId", row.ItemID.String()),
				)
				break
			}
			continue
		}

		if r.reconcileRow(ctx, row, prov, &cs) {
			metrics.RowsReconciledTotal.WithLabelValues(category.Name, "updated").Inc()
		} else {
			cs.Failed++
			metrics.RowsReconciledTotal.WithLabelValues(category.Name, "failed").Inc()
		}
	}

	zap.L().Info("Category reconciled",
		zap.String("category", category.Name),
		zap.Int("visited", cs.Visited),
		zap.Int("skipped", cs.Skipped),
		zap.Int("statsWritten", cs.StatsWritten),
		zap.Int("provenanceWritten", cs.ProvenanceWritten),
		zap.Int("unresolved", cs.Unresolved),
		zap.Int("failed", cs.Failed),
	)
	return cs, nil
}

func (r *Reconciler) reconcileRow(ctx context.Context, row *table.Record, prov mint.Provenance, cs *CategorySummary) bool {
	ok := true
	id := row.ItemID

	if !row.HasStats() {
		records := r.fetcher.FetchMetadata(ctx, []catalog.ItemID{id})
		if len(records) == 1 {
			updatedAt := r.now().In(r.opts.Location).Format(mint.TimestampLayout)
			if err := r.store.WriteStats(ctx, id, records[0].Name, records[0].Stats, updatedAt); err != nil {
				zap.L().Error("Failed to write stats", zap.String("itemId", id.String()), zap.Error(err))
				ok = false
			} else {
				cs.StatsWritten++
			}
		} else {
			zap.L().Warn("No metadata available for minted item", zap.String("itemId", id.String()))
		}
	}

	if !row.HasProvenance() {
		if err := r.store.WriteProvenance(ctx, id, prov.MintDate, prov.Initiator); err != nil {
			zap.L().Error("Failed to write provenance", zap.String("itemId", id.String()), zap.Error(err))
			ok = false
		} else {
			cs.ProvenanceWritten++
		}
	}
	return ok
}
