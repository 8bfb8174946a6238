package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"google.golang.org/api/option"

	"retailmedia-hq/guardrail/pkg/capability"
	"retailmedia-hq/guardrail/pkg/capability/cache"
	"retailmedia-hq/guardrail/pkg/capability/cloudvision"
	"retailmedia-hq/guardrail/pkg/capability/gemini"
	"retailmedia-hq/guardrail/pkg/capability/httpcap"
	"retailmedia-hq/guardrail/pkg/cli"
	"retailmedia-hq/guardrail/pkg/config"
	"retailmedia-hq/guardrail/pkg/engine"
	"retailmedia-hq/guardrail/pkg/rules"
	"retailmedia-hq/guardrail/pkg/rules/source"
	"retailmedia-hq/guardrail/pkg/telemetry/health"
	"retailmedia-hq/guardrail/pkg/telemetry/logging"
	"retailmedia-hq/guardrail/pkg/telemetry/metrics"
	"retailmedia-hq/guardrail/pkg/telemetry/tracing"
)

// loadConfig loads the process configuration once.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	return config.GetConfig(), nil
}

// newLogger builds the process logger. CLI commands log to stderr so that
// stdout carries only results.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	lc := logging.FromConfig(&cfg.Telemetry.Logging)
	lc.Writer = os.Stderr
	if verbose {
		lc.Level = "debug"
	}
	logger, err := logging.New(lc)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)
	return logger, nil
}

// ruleSource returns the configured catalog source.
func ruleSource(cfg *config.RulesConfig) (source.Source, error) {
	switch cfg.Mode {
	case "file":
		return source.NewFileSource(cfg.FilePath), nil
	case "git":
		git, err := source.NewGitSource(source.GitConfig{
			Repository: cfg.Git.Repository,
			Branch:     cfg.Git.Branch,
			Path:       cfg.Git.Path,
			LocalPath:  cfg.Git.LocalPath,
			Token:      cfg.Git.Token,
			SSHKeyPath: cfg.Git.SSHKeyPath,
			Timeout:    cfg.Git.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return git, nil
	default:
		return source.EmbeddedSource{}, nil
	}
}

// loadCatalog loads the catalog from rulesPath when set, and from the
// configured source otherwise.
func loadCatalog(ctx context.Context, cfg *config.Config, rulesPath string) (*rules.Catalog, source.Source, error) {
	var src source.Source
	if rulesPath != "" {
		src = source.NewFileSource(rulesPath)
	} else {
		var err error
		if src, err = ruleSource(&cfg.Rules); err != nil {
			return nil, nil, err
		}
	}
	catalog, err := src.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rules from %s: %w", src.Describe(), err)
	}
	return catalog, src, nil
}

// app holds the components shared by every engine the process builds.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	tracer    *tracing.Tracer
	collector *metrics.Collector

	caps   capability.Capabilities
	images capability.ImageLoader
	store  cache.Store
	http   []*httpcap.Provider

	closers []func() error
}

// newApp builds telemetry and, when withCapabilities is set, the
// capability chain and its result cache.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, withCapabilities bool) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logger,
		caps:   capability.Disabled,
		images: capability.NewLoader(capability.LoaderConfig{
			TransformEndpoint: cfg.Capabilities.CDNTransformEndpoint,
			MaxDimension:      cfg.Capabilities.MaxImageDimension,
			Timeout:           cfg.Capabilities.CallTimeout,
		}),
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracer = tracer
	a.collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	if withCapabilities && cfg.Capabilities.Enabled() {
		if err := a.buildCapabilities(ctx); err != nil {
			a.Close(context.Background())
			return nil, err
		}
	}
	return a, nil
}

func (a *app) buildCapabilities(ctx context.Context) error {
	cc := &a.cfg.Capabilities
	var providers []capability.Provider

	if cc.VisionEndpoint != "" || cc.EntailmentEndpoint != "" {
		hc := httpcap.DefaultConfig()
		hc.Name = "http"
		hc.VisionEndpoint = cc.VisionEndpoint
		hc.EntailmentEndpoint = cc.EntailmentEndpoint
		if cc.VisionEndpoint != "" {
			hc.HealthURL = cc.VisionEndpoint + "/health"
		}
		hc.APIKey = cc.APIKey
		hc.Timeout = cc.CallTimeout
		hc.MaxRetries = cc.MaxRetries
		hc.Logger = a.logger

		p, err := httpcap.New(hc)
		if err != nil {
			return fmt.Errorf("failed to create HTTP capability provider: %w", err)
		}
		providers = append(providers, p)
		a.http = append(a.http, p)
		a.closers = append(a.closers, p.Close)
	}

	if cc.GeminiAPIKey != "" {
		p, err := gemini.New(ctx, gemini.Config{
			APIKey: cc.GeminiAPIKey,
			Model:  cc.GeminiModel,
			Logger: a.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create Gemini provider: %w", err)
		}
		providers = append(providers, p)
		a.closers = append(a.closers, p.Close)
	}

	if cc.CloudVisionEnabled {
		var opts []option.ClientOption
		if cc.APIKey != "" && cc.VisionEndpoint == "" {
			opts = append(opts, option.WithAPIKey(cc.APIKey))
		}
		p, err := cloudvision.New(ctx, cloudvision.Config{ClientOptions: opts, Logger: a.logger})
		if err != nil {
			return fmt.Errorf("failed to create Cloud Vision provider: %w", err)
		}
		providers = append(providers, p)
		a.closers = append(a.closers, p.Close)
	}

	var caps capability.Capabilities = capability.NewChain(providers,
		capability.WithCallTimeout(cc.CallTimeout),
		capability.WithLogger(a.logger),
		capability.WithObserver(a.collector),
	)

	if a.cfg.Cache.Enabled {
		store, err := cache.New(ctx, cache.Config{
			Backend:    a.cfg.Cache.Backend,
			MaxEntries: a.cfg.Cache.MaxEntries,
			SQLite: cache.SQLiteConfig{
				Path:        a.cfg.Cache.SQLite.Path,
				Driver:      a.cfg.Cache.SQLite.Driver,
				BusyTimeout: a.cfg.Cache.SQLite.BusyTimeout,
			},
			Redis: cache.RedisConfig{
				Addr:      a.cfg.Cache.Redis.Addr,
				Password:  a.cfg.Cache.Redis.Password,
				DB:        a.cfg.Cache.Redis.DB,
				KeyPrefix: a.cfg.Cache.Redis.KeyPrefix,
			},
		}, a.logger)
		if err != nil {
			return fmt.Errorf("failed to open capability cache: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, store.Close)
		caps = capability.NewCached(caps, store, a.cfg.Cache.TTL, a.logger, a.collector)
	}

	a.caps = caps
	a.logger.Info("capability providers configured",
		"providers", len(providers),
		"cache", a.cfg.Cache.Enabled,
	)
	return nil
}

// engineConfig returns the engine configuration for this process.
func (a *app) engineConfig() *engine.Config {
	ec := a.cfg.Engine
	cfg := engine.DefaultConfig().
		WithDeadline(ec.Deadline).
		WithSemanticBatchSize(ec.SemanticBatchSize).
		WithSemanticTimeouts(ec.SemanticBatchTimeout, ec.SemanticTimeout).
		WithVisionTimeout(ec.VisionTimeout).
		WithCapabilities(a.caps).
		WithImages(a.images).
		WithLogger(a.logger).
		WithObserver(a.collector).
		WithTracer(a.tracer.Tracer())
	cfg.SemanticMinConfidence = ec.SemanticMinConfidence
	return cfg
}

// newEngine builds an engine for catalog. It is the server's EngineFactory.
func (a *app) newEngine(catalog *rules.Catalog) (*engine.Engine, error) {
	return engine.New(catalog, a.engineConfig())
}

// registerHealth adds optional checks for capabilities and the cache.
func (a *app) registerHealth(checker *health.Checker) {
	if !a.cfg.Capabilities.Enabled() {
		checker.RegisterOptionalCheck("capabilities", func(context.Context) error {
			return health.ErrDisabled
		})
	}
	for _, p := range a.http {
		checker.RegisterOptionalCheck("capability."+p.Name(), func(context.Context) error {
			if !p.IsHealthy() {
				return errors.New("provider unhealthy")
			}
			return nil
		})
	}
	if a.store != nil {
		store := a.store
		checker.RegisterOptionalCheck("cache", func(ctx context.Context) error {
			_, _, err := store.Get(ctx, "guardrail:health")
			return err
		})
	}
}

// startBackground starts provider health polling, the cache pruner and the
// provider health gauge. They stop with ctx.
func (a *app) startBackground(ctx context.Context) error {
	for _, p := range a.http {
		p.StartHealthChecker(ctx)
	}

	if a.store != nil {
		pruner := cache.NewPruner(a.store, a.cfg.Cache.PruneSchedule, a.logger)
		pruner.OnPrune(a.collector.RecordCachePrune)
		if err := pruner.Start(ctx); err != nil {
			return fmt.Errorf("failed to start cache pruner: %w", err)
		}
	}

	if len(a.http) > 0 {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				for _, p := range a.http {
					a.collector.UpdateProviderHealth(p.Name(), p.IsHealthy())
				}
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}()
	}
	return nil
}

// Close releases providers, the cache and the tracer.
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close component", "error", err)
		}
	}
	if a.tracer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("failed to flush traces", "error", err)
		}
	}
}
