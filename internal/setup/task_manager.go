package setup

import (
	"context"
	"log/slog"
	"time"

	"github.com/archivelabs/lenny/internal/adapter/memory"
	"github.com/archivelabs/lenny/internal/config"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/archivelabs/lenny/internal/core/service"
	"github.com/archivelabs/lenny/internal/metrics"
	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var getTaskManagerFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.TaskManager, error) {
	taskManager := memory.NewTaskManager(conf.Tasks.Parallelism, conf.Tasks.CleanupDelay, conf.Tasks.CleanupInterval)

	if err := setupTaskHandlers(ctx, conf, taskManager); err != nil {
		return nil, errors.WithStack(err)
	}

	go func() {
		taskManagerCtx := context.Background()
		backoff := time.Second
		for {
			start := time.Now()
			if err := taskManager.Run(taskManagerCtx); err != nil {
				slog.ErrorContext(taskManagerCtx, "error while running task manager", slogx.Error(errors.WithStack(err)))
			}
			time.Sleep(backoff)
			if time.Since(start) > backoff/2 {
				backoff = time.Second
			} else {
				backoff *= 2
			}
		}
	}()

	go collectTaskMetrics(taskManager)
	go scheduleLoanExpiration(taskManager, conf.Lending.ExpirationInterval)

	return taskManager, nil
})

func setupTaskHandlers(ctx context.Context, conf *config.Config, taskManager port.TaskManager) error {
	lending, err := getLendingFromConfig(ctx, conf)
	if err != nil {
		return errors.Wrap(err, "could not create lending service from config")
	}

	taskManager.Register(service.TaskTypeExpireLoans, lending.ExpireLoansHandler())

	librarian, err := getLibrarianFromConfig(ctx, conf)
	if err != nil {
		return errors.Wrap(err, "could not create librarian service from config")
	}

	taskManager.Register(service.TaskTypeSyncBookshelf, librarian.SyncHandler())

	return nil
}

func collectTaskMetrics(taskManager port.TaskManager) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	ctx := context.Background()

	for {
		tasks, err := taskManager.List(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "could not list tasks", slogx.Error(errors.WithStack(err)))
		} else {
			stats := map[port.TaskStatus]float64{
				port.TaskStatusPending:   0,
				port.TaskStatusRunning:   0,
				port.TaskStatusFailed:    0,
				port.TaskStatusSucceeded: 0,
			}
			for _, t := range tasks {
				stats[t.Status] += 1
			}

			for status, total := range stats {
				metrics.Tasks.With(prometheus.Labels{
					metrics.LabelStatus: string(status),
				}).Set(total)
			}
		}

		<-ticker.C
	}
}

// scheduleLoanExpiration periodically closes the loans past their due date.
func scheduleLoanExpiration(taskManager port.TaskManager, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx := context.Background()

	for {
		if err := taskManager.Schedule(ctx, service.NewExpireLoansTask()); err != nil {
			slog.ErrorContext(ctx, "could not schedule loan expiration", slogx.Error(errors.WithStack(err)))
		}

		<-ticker.C
	}
}
