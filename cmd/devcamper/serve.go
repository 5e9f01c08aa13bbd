package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devcamper/internal/config"
	"github.com/alfredjeanlab/devcamper/internal/events"
	"github.com/alfredjeanlab/devcamper/internal/geocode"
	"github.com/alfredjeanlab/devcamper/internal/logging"
	"github.com/alfredjeanlab/devcamper/internal/metrics"
	"github.com/alfredjeanlab/devcamper/internal/query"
	"github.com/alfredjeanlab/devcamper/internal/server"
	"github.com/alfredjeanlab/devcamper/internal/store"
	"github.com/alfredjeanlab/devcamper/internal/store/mongo"
	"github.com/alfredjeanlab/devcamper/internal/store/postgres"
	"github.com/alfredjeanlab/devcamper/internal/upload"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the devcamper API server",
	GroupID: "system",
	// No API client is needed to serve.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func init() {
	serveCmd.Flags().String("config", "", "dotenv config file (default "+config.DefaultFile+" when present)")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Backend() {
	case config.BackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		return mongo.New(connectCtx, cfg.DatabaseURL, cfg.DatabaseName)
	case config.BackendPostgres:
		return postgres.New(cfg.DatabaseURL)
	}
	return nil, fmt.Errorf("unsupported database url scheme")
}

func openUploads(ctx context.Context, cfg *config.Config) (upload.Destination, error) {
	if cfg.Upload.S3Bucket != "" {
		return upload.NewS3Destination(ctx, cfg.Upload.S3Bucket, cfg.Upload.S3Prefix, cfg.Upload.S3Region, cfg.Upload.S3Endpoint)
	}
	return upload.NewLocalDestination(cfg.Upload.Dir)
}

// serve runs the API until ctx is cancelled, then shuts everything down.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}
	}()
	logger.Info("store connected", "backend", cfg.Backend(), "database_url", cfg.RedactedDatabaseURL())
	if cfg.AuthToken == "" && cfg.IsProduction() {
		logger.Warn("private routes are open (DEVCAMPER_AUTH_TOKEN not set)")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return err
		}
		publisher = pub
		logger.Info("events enabled", "nats_url", cfg.NATSURL)
	} else {
		logger.Info("events disabled (DEVCAMPER_NATS_URL not set)")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
	}()

	uploads, err := openUploads(ctx, cfg)
	if err != nil {
		return err
	}

	geocoder, err := geocode.New(cfg.Geocoder.Provider, cfg.Geocoder.APIKey)
	if err != nil {
		return err
	}
	if _, ok := geocoder.(geocode.Disabled); ok {
		logger.Warn("geocoding disabled (DEVCAMPER_GEOCODER_API_KEY not set)")
	}

	m := metrics.New()
	builder := query.NewBuilder(
		query.WithDefaultLimit(cfg.Query.DefaultLimit),
		query.WithMaxLimit(cfg.Query.MaxLimit),
		query.WithTimeout(cfg.Query.Timeout),
		query.WithObserver(m.ObserveQuery),
		query.WithLogger(logger),
	)

	srv := server.New(st, server.Options{
		Publisher:          publisher,
		Builder:            builder,
		Uploads:            uploads,
		Geocoder:           geocoder,
		Metrics:            m,
		Logger:             logger,
		MaxUploadBytes:     cfg.Upload.MaxBytes,
		AuthToken:          cfg.AuthToken,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.NewHTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Query.Timeout + 20*time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// gRPC only carries the health service.
	var stopGRPC func()
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			_ = httpServer.Close()
			return err
		}
		grpcServer, hs := server.NewGRPCServer(cfg.AuthToken, logger)
		healthCtx, cancelHealth := context.WithCancel(ctx)
		go server.WatchHealth(healthCtx, hs, st, server.HealthCheckInterval, logger)
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
		stopGRPC = func() {
			cancelHealth()
			grpcServer.GracefulStop()
			logger.Info("gRPC server stopped")
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
	case runErr = <-errCh:
		logger.Error("server failed, shutting down", "err", runErr)
	}

	if stopGRPC != nil {
		stopGRPC()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}
	logger.Info("HTTP server stopped")
	return runErr
}
