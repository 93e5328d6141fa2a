package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/hanpama/graphview/internal/config"
	"github.com/hanpama/graphview/internal/eventbus"
	"github.com/hanpama/graphview/internal/logging"
	"github.com/hanpama/graphview/internal/metrics"
	"github.com/hanpama/graphview/internal/otel"
	"github.com/hanpama/graphview/internal/server"
	"github.com/hanpama/graphview/internal/views"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		listen  string
		otlp    string
		noWatch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve views over HTTP as GET /{view}",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.Listen = listen
			}
			if cmd.Flags().Changed("otel-endpoint") {
				a.cfg.Telemetry.OTLPEndpoint = otlp
			}
			if noWatch {
				a.cfg.Watch = false
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&otlp, "otel-endpoint", "", "OTLP collector endpoint")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload views when files change")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()
	defer logging.Register(a.log)()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	defer metrics.New(reg).Register()()

	b, err := openBackend(ctx, cfg.Backend, a.log)
	if err != nil {
		return err
	}
	defer b.Close()

	catalog, err := newCatalog(cfg)
	if err != nil {
		return err
	}
	if err := catalog.Preload(ctx); err != nil {
		return fmt.Errorf("compile views: %w", err)
	}
	if err := checkMetricsPath(ctx, cfg, catalog); err != nil {
		return err
	}

	h := newHandler(cfg, newBrowser(cfg, catalog, b, false), reg)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("graphview listening",
			zap.String("addr", cfg.Listen),
			zap.String("views", cfg.Views),
			zap.String("backend", cfg.Backend.Kind))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if cfg.Watch {
		g.Go(func() error {
			return views.NewWatcher(cfg.Views, catalog, a.log).Run(gctx)
		})
	}
	return g.Wait()
}

// checkMetricsPath fails when the metrics endpoint would shadow a view.
func checkMetricsPath(ctx context.Context, cfg config.Config, catalog *views.Catalog) error {
	path := strings.Trim(cfg.Telemetry.MetricsPath, "/")
	if path == "" {
		return nil
	}
	names, err := catalog.List(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(names, path) {
		return fmt.Errorf("metrics path %q shadows view %q; set telemetry.metrics_path elsewhere", cfg.Telemetry.MetricsPath, path)
	}
	return nil
}

// newHandler mounts the view handler at / and the metrics endpoint next to it.
func newHandler(cfg config.Config, r server.Renderer, reg *prometheus.Registry) http.Handler {
	var sopts []server.Option
	sopts = append(sopts,
		server.WithTimeout(cfg.Timeout),
		server.WithDebug(cfg.Debug),
		server.WithDefaultView(cfg.DefaultView),
		server.WithForwardHeaders(cfg.ForwardHeaders...),
		server.WithTrustForwarded(cfg.TrustForwarded),
	)
	if len(cfg.CORSOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.CORSOrigins...))
	}

	mux := http.NewServeMux()
	if cfg.Telemetry.MetricsPath != "" && reg != nil {
		mux.Handle(cfg.Telemetry.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	mux.Handle("/", server.New(r, sopts...))
	return mux
}
