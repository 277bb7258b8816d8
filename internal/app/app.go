package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/unfurl/internal/embed"
	"github.com/hyperifyio/unfurl/internal/extractor"
	"github.com/hyperifyio/unfurl/internal/fetch"
)

// App owns the outbound client and the extractor registry built from Config.
type App struct {
	cfg      Config
	client   *fetch.Client
	registry *extractor.Registry
}

// New validates cfg and builds every configured extractor. A misconfigured
// extractor fails startup.
func New(ctx context.Context, cfg Config) (*App, error) {
	return NewWithFactories(ctx, cfg, extractor.Default()...)
}

// NewWithFactories is New with an explicit factory list, in priority order.
func NewWithFactories(_ context.Context, cfg Config, factories ...extractor.Factory) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	client := &fetch.Client{
		HTTPClient:        newPooledHTTPClient(2 * cfg.Timeout),
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       cfg.MaxAttempts,
		PerRequestTimeout: cfg.Timeout,
		RedirectMaxHops:   cfg.RedirectMaxHops,
		MaxConcurrent:     cfg.MaxConcurrent,
		MaxBodyBytes:      cfg.MaxBodyBytes,
	}
	st := &extractor.State{
		Client: client,
		Log:    log.Logger.With().Str("component", "extractor").Logger(),
	}

	registry, err := extractor.Build(st, cfg.Settings(), factories...)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log.Info().Strs("extractors", registry.Names()).Msg("registry ready")

	return &App{cfg: cfg, client: client, registry: registry}, nil
}

func (a *App) Close() {
	if t, ok := a.client.HTTPClient.Transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
}

// Config returns the configuration the app was built with.
func (a *App) Config() Config { return a.cfg }

// Registry exposes the dispatcher, e.g. to the HTTP server.
func (a *App) Registry() *extractor.Registry { return a.registry }

// Extract runs the extractor matching raw.
func (a *App) Extract(ctx context.Context, raw string) (*embed.WithExpire, error) {
	return a.registry.Extract(ctx, raw)
}

// ExtractAll runs Extract for every URL, BatchLimit at a time.
func (a *App) ExtractAll(ctx context.Context, urls []string) []extractor.Result {
	return a.registry.ExtractAll(ctx, urls, a.cfg.BatchLimit)
}
