// Package bootstrap wires the card generation pipeline from configuration.
// It is shared by the HTTP server and the command line tool.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	kanbanapp "github.com/erp/kanban/internal/application/kanban"
	"github.com/erp/kanban/internal/infrastructure/cache"
	"github.com/erp/kanban/internal/infrastructure/config"
	"github.com/erp/kanban/internal/infrastructure/inventory"
	"github.com/erp/kanban/internal/infrastructure/printing"
	"github.com/erp/kanban/internal/infrastructure/qrcode"
	"github.com/erp/kanban/internal/infrastructure/storage"
	"github.com/erp/kanban/internal/infrastructure/telemetry"
)

// Options selects the parts of the pipeline a binary needs
type Options struct {
	// Source labels generation metrics ("http", "cli")
	Source string
	// StoreDocuments enables the configured document store
	StoreDocuments bool
}

// App holds the wired pipeline and the resources that must be released
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Generator *kanbanapp.Generator
	// Store is nil when storage is disabled
	Store          storage.DocumentStore
	TracerProvider *telemetry.TracerProvider
	MeterProvider  *telemetry.MeterProvider

	closers []func(context.Context) error
}

// New builds the pipeline. On error every resource created so far is released.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (_ *App, err error) {
	a := &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = a.Shutdown(context.Background())
		}
	}()

	telCfg := telemetry.ConfigFromApp(cfg.Telemetry)
	a.TracerProvider, err = telemetry.NewTracerProvider(ctx, telCfg, log)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.closers = append(a.closers, a.TracerProvider.Shutdown)

	a.MeterProvider, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfigFrom(telCfg), log)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	a.closers = append(a.closers, a.MeterProvider.Shutdown)

	metrics, err := telemetry.NewKanbanMetrics(telemetry.KanbanMetricsConfig{
		Meter:  a.MeterProvider.Meter(telemetry.TracerName),
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("init kanban metrics: %w", err)
	}

	client, err := inventory.NewClient(inventory.Config{
		BaseURL:   cfg.Inventory.BaseURL,
		APIKey:    cfg.Inventory.APIKey,
		APISecret: cfg.Inventory.APISecret,
		Timeout:   cfg.Inventory.Timeout,
	}, inventory.WithLogger(log))
	if err != nil {
		return nil, err
	}

	items, err := a.itemSource(client)
	if err != nil {
		return nil, err
	}

	fallback, err := kanbanapp.LoadFallbackImage(cfg.Kanban.FallbackImage)
	if err != nil {
		return nil, err
	}

	enricher := kanbanapp.NewEnricher(items, client, client,
		kanbanapp.WithFallbackImage(fallback),
		kanbanapp.WithEnricherMetrics(metrics),
		kanbanapp.WithEnricherLogger(log),
	)

	fitter, err := printing.NewTextFitter()
	if err != nil {
		return nil, err
	}
	layout := CardLayout(cfg.Kanban)
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("card layout: %w", err)
	}
	renderer := printing.NewCardRenderer(layout, fitter, qrcode.NewEncoder())

	genOpts := []kanbanapp.GeneratorOption{
		kanbanapp.WithGeneratorMetrics(metrics),
		kanbanapp.WithGeneratorLogger(log),
	}
	if opts.StoreDocuments {
		a.Store, err = storage.New(ctx, &cfg.Storage, log)
		if err != nil {
			return nil, fmt.Errorf("init document storage: %w", err)
		}
		if a.Store != nil {
			genOpts = append(genOpts, kanbanapp.WithDocumentStore(a.Store))
		}
	}

	a.Generator = kanbanapp.NewGenerator(enricher, renderer,
		kanbanapp.NewPDFDocumentFactory(layout.PageSize),
		kanbanapp.GeneratorConfig{
			Concurrency: cfg.Kanban.Concurrency,
			Ordering:    kanbanapp.Ordering(cfg.Kanban.Ordering),
			Source:      opts.Source,
		},
		genOpts...,
	)

	log.Info("Kanban pipeline ready",
		zap.String("inventory", client.BaseURL()),
		zap.Int("concurrency", cfg.Kanban.Concurrency),
		zap.String("ordering", cfg.Kanban.Ordering),
		zap.Bool("item_cache", cfg.Cache.Enabled),
		zap.Bool("storage", a.Store != nil),
		zap.Bool("tracing", a.TracerProvider.IsEnabled()),
		zap.Bool("metrics", a.MeterProvider.IsEnabled()),
	)
	return a, nil
}

// RunRetention removes stored documents older than storage.retention until ctx
// is done. It returns at once when retention or storage is disabled.
func (a *App) RunRetention(ctx context.Context) {
	storage.RunRetention(ctx, a.Store, storage.RetentionConfig{
		MaxAge:   a.Config.Storage.Retention,
		Interval: a.Config.Storage.CleanupInterval,
		Logger:   a.Logger,
	})
}

// Flush exports pending spans and metrics without shutting the providers down
func (a *App) Flush(ctx context.Context) error {
	var errs []error
	if a.TracerProvider != nil {
		if err := a.TracerProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush spans: %w", err))
		}
	}
	if a.MeterProvider != nil {
		if err := a.MeterProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}

// CardLayout returns the default card layout adjusted by configuration
func CardLayout(cfg config.KanbanConfig) printing.CardLayout {
	layout := printing.DefaultCardLayout()
	layout.TitleMaxRunes = cfg.TitleMaxRunes
	layout.Divider.Style.Dotted = cfg.DottedDivider
	return layout
}

func (a *App) itemSource(client *inventory.Client) (inventory.ItemSource, error) {
	if !a.Config.Cache.Enabled {
		return client, nil
	}

	redisCfg := cache.RedisConfig{
		Host:     a.Config.Redis.Host,
		Port:     a.Config.Redis.Port,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	}
	c, err := cache.NewFactory(a.Config.Cache.Driver, redisCfg,
		cache.WithLogger(a.Logger),
		cache.WithInMemoryFallback(a.Config.Cache.MemoryFallback),
		cache.WithCleanupInterval(a.Config.Cache.TTL),
	).Create()
	if err != nil {
		return nil, fmt.Errorf("init item cache: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return c.Close() })

	return inventory.NewCachedItemSource(client, c, a.Config.Cache.TTL, a.Logger), nil
}

// Shutdown releases resources in reverse creation order
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
