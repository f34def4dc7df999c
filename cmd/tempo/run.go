package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/engine"
)

func run(_ *cli.Context) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	eng, closeClient, err := openEngine(logger,
		[]tempo.Option{
			tempo.WithConcurrency(concurrency),
			tempo.WithBatchSize(batchSize),
		},
		engine.WithDispatcher(runDispatcher),
		engine.WithWorker(runWorker),
	)
	if err != nil {
		return err
	}
	defer closeClient()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := eng.Stop(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
		}
	}()

	scheduleDemo(ctx, eng, logger)

	logger.Info("waiting for SIGINT")
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// scheduleDemo schedules demoEvents events one second apart.
func scheduleDemo(ctx context.Context, eng *engine.Engine, logger *slog.Logger) {
	if demoEvents <= 0 {
		return
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for i := range demoEvents {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		eventID := fmt.Sprintf("%s-event-%d", clientName, i)
		if _, err := eng.Schedule(ctx, eventID, 0, demoInterval); err != nil {
			logger.Error("schedule failed",
				slog.String("event_id", eventID),
				slog.String("error", err.Error()),
			)
			continue
		}
		logger.Info("event scheduled",
			slog.String("event_id", eventID),
			slog.Duration("interval", demoInterval),
		)
	}
}
