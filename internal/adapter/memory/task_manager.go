package memory

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/archivelabs/lenny/internal/adapter/memory/syncx"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"
)

type TaskManager struct {
	runningMutex *sync.Mutex
	runningCond  *sync.Cond
	running      bool

	tasks      syncx.Map[port.TaskID, *port.TaskState]
	stateMutex sync.Mutex

	handlers  syncx.Map[port.TaskType, port.TaskHandler]
	semaphore chan struct{}

	cleanupDelay    time.Duration
	cleanupInterval time.Duration
}

// Run implements port.TaskManager.
func (m *TaskManager) Run(ctx context.Context) error {
	m.runningMutex.Lock()
	m.running = true
	m.runningCond.Broadcast()
	m.runningMutex.Unlock()

	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())

		case <-ticker.C:
			slog.DebugContext(ctx, "running task cleaner")
			m.cleanup(ctx, time.Now())
		}
	}
}

func (m *TaskManager) cleanup(ctx context.Context, now time.Time) {
	m.tasks.Range(func(id port.TaskID, state *port.TaskState) bool {
		m.stateMutex.Lock()
		finishedAt := state.FinishedAt
		m.stateMutex.Unlock()

		if finishedAt.IsZero() || now.Before(finishedAt.Add(m.cleanupDelay)) {
			return true
		}

		slog.DebugContext(ctx, "deleting expired task", slog.String("taskID", string(id)))

		m.tasks.Delete(id)

		return true
	})
}

// List implements port.TaskManager.
func (m *TaskManager) List(ctx context.Context) ([]port.TaskStateHeader, error) {
	headers := make([]port.TaskStateHeader, 0)

	m.tasks.Range(func(_ port.TaskID, state *port.TaskState) bool {
		m.stateMutex.Lock()
		headers = append(headers, state.TaskStateHeader)
		m.stateMutex.Unlock()
		return true
	})

	slices.SortFunc(headers, func(a, b port.TaskStateHeader) int {
		return b.ScheduledAt.Compare(a.ScheduledAt)
	})

	return headers, nil
}

// Register implements port.TaskManager.
func (m *TaskManager) Register(taskType port.TaskType, handler port.TaskHandler) {
	m.handlers.Store(taskType, handler)
}

// Schedule implements port.TaskManager.
func (m *TaskManager) Schedule(ctx context.Context, task port.Task) error {
	taskID := task.ID()

	state := &port.TaskState{
		TaskStateHeader: port.TaskStateHeader{
			ID:          taskID,
			Type:        task.Type(),
			ScheduledAt: time.Now(),
			Status:      port.TaskStatusPending,
		},
	}

	if _, loaded := m.tasks.LoadOrStore(taskID, state); loaded {
		return errors.WithStack(port.ErrAlreadyExists)
	}

	// Tasks outlive the request that scheduled them
	ctx = slogx.WithAttrs(context.WithoutCancel(ctx),
		slog.String("taskID", string(taskID)),
		slog.String("taskType", string(task.Type())),
	)

	updateState := func(fn func(s *port.TaskState)) {
		m.stateMutex.Lock()
		defer m.stateMutex.Unlock()
		fn(state)
	}

	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				err, ok := recovered.(error)
				if !ok {
					err = errors.Errorf("%+v", recovered)
				}

				slog.ErrorContext(ctx, "recovered panic while running task", slogx.Error(errors.WithStack(err)))

				updateState(func(s *port.TaskState) {
					s.Error = errors.WithStack(err)
					s.Status = port.TaskStatusFailed
					s.FinishedAt = time.Now()
				})
			}
		}()

		m.runningMutex.Lock()
		for !m.running {
			m.runningCond.Wait()
		}
		m.runningMutex.Unlock()

		m.semaphore <- struct{}{}
		defer func() {
			<-m.semaphore
		}()

		handler, exists := m.handlers.Load(task.Type())
		if !exists {
			updateState(func(s *port.TaskState) {
				s.Error = errors.Errorf("no handler registered for task type '%s'", task.Type())
				s.Status = port.TaskStatusFailed
				s.FinishedAt = time.Now()
			})

			return
		}

		updateState(func(s *port.TaskState) {
			s.Status = port.TaskStatusRunning
		})

		slog.DebugContext(ctx, "executing task")

		message, err := handleTask(ctx, handler, task, func(p float64) {
			updateState(func(s *port.TaskState) {
				s.Progress = max(min(p, 1), 0)
			})
		})

		if err != nil {
			slog.ErrorContext(ctx, "task failed", slogx.Error(err))

			updateState(func(s *port.TaskState) {
				s.Error = errors.WithStack(err)
				s.Message = message
				s.Status = port.TaskStatusFailed
				s.FinishedAt = time.Now()
			})

			return
		}

		slog.DebugContext(ctx, "task succeeded", slog.String("message", message))

		updateState(func(s *port.TaskState) {
			s.Message = message
			s.Progress = 1
			s.Status = port.TaskStatusSucceeded
			s.FinishedAt = time.Now()
		})
	}()

	return nil
}

// handleTask runs the handler and forwards its progress to report until it
// returns or panics.
func handleTask(ctx context.Context, handler port.TaskHandler, task port.Task, report func(float64)) (message string, err error) {
	progress := make(chan float64)
	progressDone := make(chan struct{})

	go func() {
		defer close(progressDone)
		for p := range progress {
			report(p)
		}
	}()

	defer func() {
		close(progress)
		<-progressDone
	}()

	defer func() {
		if recovered := recover(); recovered != nil {
			recoveredErr, ok := recovered.(error)
			if !ok {
				recoveredErr = errors.Errorf("%+v", recovered)
			}

			err = errors.Wrap(recoveredErr, "task handler panicked")
		}
	}()

	return handler.Handle(ctx, task, progress)
}

// State implements port.TaskManager.
func (m *TaskManager) State(ctx context.Context, id port.TaskID) (*port.TaskState, error) {
	state, exists := m.tasks.Load(id)
	if !exists {
		return nil, errors.WithStack(port.ErrNotFound)
	}

	m.stateMutex.Lock()
	defer m.stateMutex.Unlock()

	snapshot := *state

	return &snapshot, nil
}

func NewTaskManager(parallelism int, cleanupDelay time.Duration, cleanupInterval time.Duration) *TaskManager {
	runningMutex := &sync.Mutex{}
	return &TaskManager{
		runningMutex:    runningMutex,
		runningCond:     sync.NewCond(runningMutex),
		running:         false,
		semaphore:       make(chan struct{}, max(parallelism, 1)),
		cleanupDelay:    cleanupDelay,
		cleanupInterval: cleanupInterval,
	}
}

var _ port.TaskManager = &TaskManager{}
