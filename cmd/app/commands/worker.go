package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/md-riaz/domaindesk/internal/app"
	"github.com/md-riaz/domaindesk/internal/config"
)

// Runner is a polling loop that runs until its context is canceled.
type Runner interface {
	Start(ctx context.Context) error
}

// RunWorker starts the job worker and the notification outbox processor side by side
// until SIGINT/SIGTERM. The metrics server runs alongside when enabled.
func RunWorker(ctx context.Context, version string) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting worker", slog.String("version", version))

	defer closeContainer(container, logger)

	worker, err := container.Worker()
	if err != nil {
		return fmt.Errorf("failed to initialize job worker: %w", err)
	}

	outbox, err := container.OutboxUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox processor: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runners := map[string]Runner{
		"jobs":   worker,
		"outbox": outbox,
	}
	if metricsServer != nil {
		runners["metrics"] = metricsServer
	}

	return runAll(ctx, logger, runners)
}

// runAll runs every runner until ctx is canceled or one of them fails, in which case
// the others are stopped. Any error returned once ctx is done counts as a clean exit.
func runAll(ctx context.Context, logger *slog.Logger, runners map[string]Runner) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for name, runner := range runners {
		group.Go(func() error {
			err := runner.Start(groupCtx)
			if err == nil || ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Error("runner failed", slog.String("runner", name), slog.Any("error", err))
			return fmt.Errorf("%s: %w", name, err)
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	logger.Info("worker stopped")
	return nil
}
