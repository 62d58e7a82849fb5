// Package main runs the third-party event ingestion sources.
package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/volunteerhub/backend/config"
	"github.com/volunteerhub/backend/internal/events"
	"github.com/volunteerhub/backend/internal/ingest"
	"github.com/volunteerhub/backend/pkg/database"
)

func main() {
	source := flag.String("source", "all", "ingestion source to run: handson, point, or all")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	eventRepo := events.NewRepository(pool)

	if *source == "handson" || *source == "all" {
		if cfg.Ingest.HandsOnOrgID == 0 {
			logger.Fatal("HANDSON_ORG_ID not set")
		}
		src := ingest.NewHandsOnSource(cfg.Ingest.HandsOnOrgID, logger)
		written, err := src.Run(ctx, eventRepo)
		if err != nil {
			logger.Error("handson ingest failed", zap.Error(err))
		} else {
			logger.Info("handson ingest done", zap.Int("written", written))
		}
	}

	if *source == "point" || *source == "all" {
		if cfg.Ingest.PointOrgID == 0 || cfg.Ingest.PointToken == "" {
			logger.Fatal("POINT_ORG_ID or POINT_API_TOKEN not set")
		}
		src := ingest.NewPointSource(
			cfg.Ingest.PointOrgID, cfg.Ingest.PointToken,
			cfg.Ingest.PointStart, cfg.Ingest.PointEnd, cfg.Ingest.PointSize,
			logger,
		)
		written, err := src.Run(ctx, eventRepo)
		if err != nil {
			logger.Error("point ingest failed", zap.Error(err))
		} else {
			logger.Info("point ingest done", zap.Int("written", written))
		}
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
