// Command delayd serves delay predictions over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/delaycast/internal/config"
	"github.com/YuminosukeSato/delaycast/internal/server"
	"github.com/YuminosukeSato/delaycast/internal/telemetry"
	"github.com/YuminosukeSato/delaycast/pkg/errors"
	"github.com/YuminosukeSato/delaycast/pkg/log"
	"github.com/YuminosukeSato/delaycast/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "delayd:", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, closer, err := log.Setup(cfg.LogOptions())
	if err != nil {
		return err
	}
	defer closer.Close()

	metrics := telemetry.New(func() bool { return service.Default().Status().ModelLoaded })
	if cfg.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return err
		}
	}

	if err := service.Configure(service.Options{
		ModelPath: cfg.Model.Path,
		Logger:    logger,
		Recorder:  metrics,
	}); err != nil {
		return err
	}
	svc := service.Default()
	st := svc.Status()
	logger.Info("starting delayd",
		"address", cfg.Server.Address,
		log.PathKey, st.ModelPath,
		"model_loaded", st.ModelLoaded,
	)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	srv := &http.Server{
		Addr: cfg.Server.Address,
		Handler: server.New(server.Options{
			Service:        svc,
			Logger:         logger,
			RequestTimeout: cfg.Server.RequestTimeout,
			ModelVersion:   cfg.Model.Version,
			MetricsPath:    metricsPath,
			Gatherer:       prometheus.DefaultGatherer,
		}),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Model.Watch {
		g.Go(func() error {
			return svc.WatchArtifact(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("delayd exited with error", err)
		return err
	}
	logger.Info("delayd stopped")
	return nil
}
