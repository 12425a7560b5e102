package watch

import (
	"context"
	"errors"
	"time"

	"github.com/ringops/ringstats/internal/catalog"
	"github.com/ringops/ringstats/internal/metadata"
	"github.com/ringops/ringstats/internal/notify"
	"go.uber.org/zap"
)

const timestampLayout = "2006/01/02 15:04:05"

// IsMintConfirmed scans attributes in order. Reaching marker opens the range, marker
// included; any non-blank value inside the range confirms. The terminal attribute is
// checked and then ends the scan.
func IsMintConfirmed(attrs []metadata.Attribute, marker, terminal string) bool {
	inRange := false
	for _, attr := range attrs {
		if attr.TraitType == marker {
			inRange = true
		}
		if inRange && metadata.ValueString(attr.Value) != "" {
			return true
		}
		if attr.TraitType == terminal {
			return false
		}
	}
	return false
}

type Watcher struct {
	store        Store
	client       metadata.Client
	notifier     *notify.Fanout
	createNftURL string
	location     *time.Location
	now          func() time.Time
}

func NewWatcher(store Store, client metadata.Client, notifier *notify.Fanout, createNftURL string, location *time.Location) *Watcher {
	if location == nil {
		location = time.UTC
	}
	return &Watcher{
		store:        store,
		client:       client,
		notifier:     notifier,
		createNftURL: createNftURL,
		location:     location,
		now:          time.Now,
	}
}

func (w *Watcher) timestamp() string {
	return w.now().In(w.location).Format(timestampLayout)
}

func (w *Watcher) Add(ctx context.Context, id catalog.ItemID) error {
	return w.store.Add(ctx, id, w.timestamp())
}

func (w *Watcher) SetMonitor(ctx context.Context, id catalog.ItemID, on bool) error {
	return w.store.SetMonitor(ctx, id, on)
}

func (w *Watcher) List(ctx context.Context) ([]*Entry, error) {
	return w.store.List(ctx)
}

func (w *Watcher) Page(ctx context.Context, page, pageSize int) (int, []*Entry, error) {
	return w.store.Page(ctx, page, pageSize)
}

// Run checks every pending entry once and returns how many were confirmed.
func (w *Watcher) Run(ctx context.Context) int {
	entries, err := w.store.List(ctx)
	if err != nil {
		zap.L().Error("Failed to read watch list", zap.Error(err))
		return 0
	}

	confirmed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.Pending() {
			continue
		}

		doc, err := w.client.Get(ctx, entry.ItemID)
		if errors.Is(err, metadata.ErrNotMinted) {
			zap.L().Debug("Watched item not minted yet", zap.String("itemId", entry.ItemID.String()))
			continue
		}
		if err != nil {
			zap.L().Warn("Failed to fetch watched item", zap.String("itemId", entry.ItemID.String()), zap.Error(err))
			continue
		}
		if !IsMintConfirmed(doc.Attributes, catalog.MintMarkerTrait, catalog.MintTerminalTrait) {
			continue
		}

		// Notify before marking: a failed write means the entry is notified again next run.
		w.notifier.Notify(ctx, notify.MintConfirmed{
			ItemID:       entry.ItemID.String(),
			Name:         doc.Name,
			CreateNftURL: w.createNftURL,
		})
		if err := w.store.MarkConfirmed(ctx, entry.ItemID, w.timestamp()); err != nil {
			zap.L().Error("Failed to mark watch entry confirmed, it will be notified again on the next run",
				zap.String("itemId", entry.ItemID.String()), zap.Error(err))
			continue
		}
		zap.L().Info("Mint confirmed", zap.String("itemId", entry.ItemID.String()), zap.String("name", doc.Name))
		confirmed++
	}
	return confirmed
}
