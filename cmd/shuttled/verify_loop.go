package main

import (
	"context"
	"log/slog"
	"time"

	"shuttle/internal/config"
	"shuttle/internal/logging"
	"shuttle/internal/verify"
)

// scanInterval spaces out full library passes. A pass re-digests every file,
// so anything more frequent than daily just burns disk bandwidth.
const scanInterval = 24 * time.Hour

func runVerifyLoop(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	store, err := verify.OpenStore(cfg.VerifyDBPath())
	if err != nil {
		logger.Error("open verify store", logging.Error(err))
		return
	}
	defer store.Close()

	scanner := verify.NewScanner(cfg.Verify, cfg.Tools, store, logger)
	for {
		if _, err := scanner.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("scan pass failed", logging.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(scanInterval):
		}
	}
}
