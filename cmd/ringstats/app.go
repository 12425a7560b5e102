package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ringops/ringstats/internal/catalog"
	"github.com/ringops/ringstats/internal/config"
	"github.com/ringops/ringstats/internal/db"
	"github.com/ringops/ringstats/internal/explorer"
	"github.com/ringops/ringstats/internal/httpclient"
	"github.com/ringops/ringstats/internal/metadata"
	"github.com/ringops/ringstats/internal/mint"
	"github.com/ringops/ringstats/internal/notify"
	"github.com/ringops/ringstats/internal/reconcile"
	"github.com/ringops/ringstats/internal/table"
	"github.com/ringops/ringstats/internal/watch"
	"go.uber.org/zap"
)

// app holds the wired components shared by every subcommand.
type app struct {
	cfg        config.Config
	sqlite     *sql.DB
	badger     *badger.DB
	categories []catalog.Category
	store      *table.SqliteStore
	resolver   *mint.DefaultResolver
	reconciler *reconcile.Reconciler
	watcher    *watch.Watcher
}

func newApp() (*app, error) {
	cfg := config.Get()

	pairs, err := cfg.CategoryPairs()
	if err != nil {
		return nil, err
	}
	categories, err := catalog.NewCategories(pairs)
	if err != nil {
		return nil, err
	}

	sqlite, err := db.OpenSqlite(cfg.SqlitePathOrDefault())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	a := &app{cfg: cfg, sqlite: sqlite, categories: categories}

	backend := cfg.MintCacheBackendOrDefault()
	if backend == mint.CacheBackendBadger {
		a.badger, err = db.OpenBadger(cfg.BadgerPathOrDefault())
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to open badger: %w", err)
		}
	}
	cache, err := mint.NewProvenanceCache(backend, sqlite, a.badger)
	if err != nil {
		a.close()
		return nil, err
	}

	apiClient, webhookClient := newHTTPClients(cfg)
	a.resolver = mint.NewResolver(explorer.NewClientFromConfig(apiClient), cache, mint.ResolverOptionsFromConfig())
	metadataClient := metadata.NewClientFromConfig(apiClient)

	a.store = table.NewSqliteStore(sqlite)
	a.reconciler = reconcile.NewReconciler(a.store, a.resolver, metadata.NewFetcher(metadataClient), reconcile.Options{
		Categories:              categories,
		CategorySize:            cfg.CategorySizeOrDefault(),
		AssumeSequentialMinting: cfg.SequentialMinting(),
		Location:                cfg.Location(),
	})

	notifier := notify.NewFanout(
		notify.NewDiscordNotifier(webhookClient, cfg.DiscordWebhookUrl, cfg.DiscordNotifyUserId),
		notify.NewEmailNotifier(notify.SMTPSettings{
			Host:     cfg.SmtpHost,
			Port:     cfg.SmtpPortOrDefault(),
			Username: cfg.SmtpUsername,
			Password: cfg.SmtpPassword,
			From:     cfg.SmtpFrom,
		}, cfg.AlertEmailList()),
	)
	a.watcher = watch.NewWatcher(watch.NewSqliteStore(sqlite), metadataClient, notifier, cfg.CreateNftUrlOrDefault(), cfg.Location())

	zap.L().Info("Components ready",
		zap.Int("categories", len(categories)),
		zap.String("mintCacheBackend", backend),
		zap.Bool("sequentialMinting", cfg.SequentialMinting()))
	return a, nil
}

// newHTTPClients returns the retrying client used for explorer and metadata reads and
// a single-attempt client for webhooks, whose failures are only logged.
func newHTTPClients(cfg config.Config) (api, webhook *httpclient.RealHTTPClient) {
	userAgent := "ringstats/" + Version
	api = httpclient.NewHTTPClient(httpclient.Options{
		Timeout:         30 * time.Second,
		MaxRetryElapsed: cfg.HTTPRetryMaxElapsed(),
		UserAgent:       userAgent,
	})
	webhook = httpclient.NewHTTPClient(httpclient.Options{
		Timeout:   10 * time.Second,
		UserAgent: userAgent,
	})
	return api, webhook
}

func (a *app) category(nameOrPrefix string) (catalog.Category, error) {
	category, ok := catalog.FindCategory(a.categories, nameOrPrefix)
	if !ok {
		return catalog.Category{}, fmt.Errorf("unknown category %q", nameOrPrefix)
	}
	return category, nil
}

func (a *app) close() {
	if a.badger != nil {
		if err := a.badger.Close(); err != nil {
			zap.L().Warn("Error closing badger", zap.Error(err))
		}
	}
	if err := a.sqlite.Close(); err != nil {
		zap.L().Warn("Error closing DB", zap.Error(err))
	}
}
