// Command delay-train fits the delay model on flight history stored in
// PostgreSQL and writes the artifact served by delayd.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/YuminosukeSato/delaycast/internal/config"
	"github.com/YuminosukeSato/delaycast/internal/trainingdata"
	"github.com/YuminosukeSato/delaycast/pkg/log"
	"github.com/YuminosukeSato/delaycast/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "delay-train:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		limit      int
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.IntVar(&limit, "limit", 0, "Maximum number of samples (defaults to database.trainingLimit)")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = cfg.Database.TrainingLimit
	}

	logger, closer, err := log.Setup(cfg.LogOptions())
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := trainingdata.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	queryCtx, cancel := context.WithTimeout(ctx, cfg.Database.QueryTimeout)
	defer cancel()
	months, delays, err := trainingdata.NewLoader(pool, logger).Load(queryCtx, limit)
	if err != nil {
		return err
	}

	if err := service.Configure(service.Options{ModelPath: cfg.Model.Path, Logger: logger}); err != nil {
		return err
	}
	res, err := service.Default().Fit(ctx, months, delays)
	if err != nil {
		return err
	}

	logger.Info(res.Message,
		log.SamplesKey, res.SamplesCount,
		log.R2ScoreKey, res.R2,
		log.RMSEKey, res.RMSE,
		log.PathKey, res.ModelPath,
	)
	return nil
}
