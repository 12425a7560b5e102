package mint

import (
	"context"

	"github.com/ringops/ringstats/internal/catalog"
	"go.uber.org/zap"
)

type WarmSummary struct {
	Requested  int  `json:"requested"`
	Cached     int  `json:"cached"`
	Resolved   int  `json:"resolved"`
	Unresolved int  `json:"unresolved"`
	Cancelled  bool `json:"cancelled"`
}

// Warm resolves ids ahead of a reconcile run so their provenance lands in
// the mint cache. Items already cached are counted but not looked up again.
func Warm(ctx context.Context, r Resolver, ids []catalog.ItemID) WarmSummary {
	summary := WarmSummary{Requested: len(ids)}
	r.ResetRun()

	for _, id := range ids {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		prov, ok := r.ResolveMint(ctx, id)
		switch {
		case !ok && ctx.Err() != nil:
			summary.Cancelled = true
		case !ok:
			summary.Unresolved++
			zap.L().Debug("Mint not found while warming cache", zap.String("itemId", id.String()))
		case prov.Tier == TierCache:
			summary.Cached++
		default:
			summary.Resolved++
		}
	}

	zap.L().Info("Mint cache warmed",
		zap.Int("requested", summary.Requested),
		zap.Int("cached", summary.Cached),
		zap.Int("resolved", summary.Resolved),
		zap.Int("unresolved", summary.Unresolved),
		zap.Bool("cancelled", summary.Cancelled),
	)
	return summary
}
