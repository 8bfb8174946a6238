package main

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"retailmedia-hq/guardrail/pkg/cli"
	"retailmedia-hq/guardrail/pkg/rules/source"
	"retailmedia-hq/guardrail/pkg/server"
	"retailmedia-hq/guardrail/pkg/telemetry/health"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the compliance engine over HTTP",
	Long: `Serve the compliance engine over HTTP.

Endpoints:
  POST /v1/evaluate/{quick|full}  evaluate a snapshot
  GET  /v1/verdicts/last          last verdict served
  GET  /v1/rules                  active catalog (?format=yaml for YAML)
  GET  /health, /health/live      readiness and liveness
  GET  /version                   build information
  GET  /metrics                   Prometheus metrics (when enabled)

The rule catalog is reloaded without a restart when rules.watch is set for
a file source, or when rules.git.poll_interval is set for a git source.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "listen address (overrides server.listen_address)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Server.ListenAddress = serveListen
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := cli.SetupSignalHandler(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer a.Close(context.Background())

	catalog, src, err := loadCatalog(ctx, cfg, "")
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	eng, err := a.newEngine(catalog)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	checker := health.New(cfg.Capabilities.CallTimeout)
	a.registerHealth(checker)

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithEngineFactory(a.newEngine),
		server.WithReloadRecorder(a.collector),
		server.WithHealth(checker),
		server.WithTracing(a.tracer.Enabled()),
		server.WithVersion(Version, GitCommit, BuildDate),
	}
	if cfg.Telemetry.Metrics.Enabled {
		opts = append(opts, server.WithMetrics(cfg.Telemetry.Metrics.Path, a.collector.Handler()))
	}
	srv := server.New(&cfg.Server, eng, opts...)
	a.collector.RecordRulesReload(true, catalog.Version(), catalog.Len())

	if err := a.startBackground(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})

	switch s := src.(type) {
	case *source.FileSource:
		if cfg.Rules.Watch {
			watcher, err := source.NewWatcher(s.Path(), cfg.Rules.WatchDebounce, logger)
			if err != nil {
				return cli.NewCommandError("serve", err)
			}
			g.Go(func() error {
				if err := srv.WatchRules(gctx, watcher, s); err != nil {
					logger.Error("rule schema watcher exited", "error", err)
				}
				return nil
			})
		}
	case *source.GitSource:
		if cfg.Rules.Git.PollInterval > 0 {
			poller := source.NewPoller(s, cfg.Rules.Git.PollInterval, logger)
			g.Go(func() error {
				if err := srv.PollRules(gctx, poller); err != nil {
					logger.Error("rule schema poller exited", "error", err)
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("serve", err)
	}
	return nil
}
