package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/klumpen/internal/server"
	"github.com/matzehuels/klumpen/pkg/observability"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		Long: `Serve runs the HTTP API. Reports are POSTed to /v1/analyses and stored in
the configured history; treemaps, chains and import graphs are served per
analysis. Prometheus metrics are exposed at /metrics.`,
		Example: `  klumpen serve --addr :8080
  curl --data-binary @web.json localhost:8080/v1/analyses`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.config().Server.Addr
			}
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, else :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	store, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hooks := observability.NewPrometheusHooks(reg)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	srv := server.New(server.Config{
		Runner:   runner,
		Store:    store,
		Logger:   c.Logger,
		Defaults: c.baseOptions(),
		Gatherer: reg,
	})
	c.Logger.Info("starting server",
		"addr", addr,
		"cache", c.config().Cache.Backend,
		"storage", c.config().Storage.Backend)
	return server.ListenAndServe(ctx, addr, srv, c.Logger)
}
