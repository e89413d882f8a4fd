package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/nainya/nsilibridge/internal/config"
	"github.com/nainya/nsilibridge/internal/logger"
	"github.com/nainya/nsilibridge/internal/metrics"
	"github.com/nainya/nsilibridge/internal/server"
	"github.com/nainya/nsilibridge/pkg/catalog"
	"github.com/nainya/nsilibridge/pkg/library"
)

var (
	serveConfigPath  string
	servePort        int
	serveMetricsPort int
	serveCatalogURL  string
	serveLogLevel    string
	servePretty      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gRPC library service",
	Long: `Runs the nsili.Library gRPC service together with the observability
HTTP server (/metrics, /health, /ready, /debug/pprof).

Flags override values from the configuration file.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVarP(&serveConfigPath, "config", "c", "", "YAML configuration file")
	f.IntVar(&servePort, "port", 0, "gRPC port")
	f.IntVar(&serveMetricsPort, "metrics-port", 0, "observability HTTP port")
	f.StringVar(&serveCatalogURL, "catalog-url", "", "catalog base URL")
	f.StringVar(&serveLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.BoolVar(&servePretty, "pretty", false, "human readable console logs")
}

// loadServeConfig reads the file and applies the flags that were set
func loadServeConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = servePort
	}
	if flags.Changed("metrics-port") {
		cfg.Server.MetricsPort = serveMetricsPort
	}
	if flags.Changed("catalog-url") {
		cfg.Catalog.URL = serveCatalogURL
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = serveLogLevel
	}
	if flags.Changed("pretty") {
		cfg.Log.Pretty = servePretty
	}
	return cfg, cfg.Validate()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	logger.InitGlobalLogger(logger.Config{
		Level:      cfg.Log.Level,
		Pretty:     cfg.Log.Pretty,
		WithCaller: cfg.Log.Caller,
	})
	log := logger.GetGlobalLogger()
	log.LogServerStart(cfg.Server.Port, cfg.Catalog.URL)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	client, err := catalog.NewHTTPClient(catalog.HTTPConfig{
		BaseURL:          cfg.Catalog.URL,
		Timeout:          cfg.Catalog.Timeout,
		ResourceRate:     cfg.Catalog.ResourceRatePerSecond,
		ResourceBurst:    cfg.Catalog.ResourceBurst,
		CacheSize:        cfg.Catalog.ThumbnailCacheSize,
		MaxResourceBytes: cfg.Catalog.MaxResourceBytes,
		Logger:           log.CatalogLogger("http").Zerolog(),
	})
	if err != nil {
		return fmt.Errorf("catalog client: %w", err)
	}

	lib := library.New(m.InstrumentSource(client), client, library.Options{
		SourceLibrary:     cfg.Query.SourceLibrary,
		DefaultView:       cfg.Query.DefaultView,
		DefaultPageSize:   cfg.Query.DefaultPageSize,
		EnforceRequired:   cfg.Query.EnforceRequired,
		UpdateInterval:    cfg.StandingQuery.DefaultUpdateInterval,
		MaxPendingResults: cfg.StandingQuery.MaxPendingResults,
		MaxWaitToStart:    cfg.StandingQuery.MaxWaitToStart,
		Logger:            log.Zerolog(),
		Observer:          m,
	})
	defer lib.Close()

	srv := server.NewServer(lib, log, server.Options{})
	grpcServer, health := server.NewGRPCServer(srv, m, cfg.Server.MaxMessageBytes)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	var obs *server.ObservabilityServer
	if cfg.Server.MetricsPort > 0 {
		obs = server.NewObservabilityServer(cfg.Server.MetricsPort, registry, log)
		g.Go(obs.Start)
	}

	g.Go(func() error {
		log.LogServerReady(cfg.Server.Port)
		if obs != nil {
			obs.SetReady(true)
		}
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.LogServerShutdown()
		health.Shutdown()
		if obs != nil {
			obs.SetReady(false)
		}
		lib.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		grpcServer.GracefulStop()
		if obs != nil {
			return obs.Shutdown(shutdownCtx)
		}
		return nil
	})

	return g.Wait()
}
