package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"shuttle/internal/config"
	"shuttle/internal/daemon"
	"shuttle/internal/logging"
	"shuttle/internal/media/ffprobe"
	"shuttle/internal/operations"
	"shuttle/internal/queue"
	"shuttle/internal/services/ffmpeg"
	"shuttle/internal/services/radarr"
	"shuttle/internal/transfer"
	"shuttle/internal/workflow"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := queue.OpenStore(cfg.QueueFilePath(), cfg.HistoryFilePath(), cfg.Workflow.HistoryLimit)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return
	}

	catalog := radarr.New(cfg.Radarr)
	copier := transfer.NewCopier(cfg.Tools, logging.WithComponent(logger, "transfer"))
	transcoder := ffmpeg.New(cfg.Tools, cfg.Convert, logging.WithComponent(logger, "ffmpeg"))
	prober := ffprobe.Prober{Binary: cfg.Tools.FFprobe}

	handlers := operations.Registry{
		queue.OperationCopy: operations.NewCopyHandler(
			cfg.Paths.FastRoot, cfg.Paths.SlowRoot,
			copier, catalog, logging.WithComponent(logger, "copy"),
		),
		queue.OperationConvert: operations.NewConvertHandler(
			cfg.Convert, cfg.Paths.SlowRoot, cfg.Paths.TempDir,
			prober, transcoder, copier, catalog, logging.WithComponent(logger, "convert"),
		),
	}

	manager := workflow.NewManager(cfg, store, handlers, logging.WithComponent(logger, "workflow"))

	d, err := daemon.New(cfg, manager, logging.WithComponent(logger, "daemon"))
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}
	defer d.Stop()

	if cfg.Verify.Enabled {
		go runVerifyLoop(ctx, cfg, logging.WithComponent(logger, "verify"))
	}

	<-ctx.Done()
	logger.Info("shuttled shutting down")
}
