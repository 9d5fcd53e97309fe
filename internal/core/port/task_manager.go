package port

import (
	"context"
	"time"

	"github.com/rs/xid"
)

type TaskID string

func NewTaskID() TaskID {
	return TaskID(xid.New().String())
}

type TaskType string

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusSucceeded TaskStatus = "succeeded"
	TaskStatusFailed    TaskStatus = "failed"
)

type TaskStateHeader struct {
	ID          TaskID
	Type        TaskType
	ScheduledAt time.Time
	Status      TaskStatus
}

type TaskState struct {
	TaskStateHeader
	FinishedAt time.Time
	// Progress goes from 0 to 1
	Progress float64
	Message  string
	Error    error
}

type Task interface {
	ID() TaskID
	Type() TaskType
}

type TaskHandler interface {
	// Handle runs the task and reports its progress, between 0 and 1, on the
	// given channel
	Handle(ctx context.Context, task Task, progress chan float64) (string, error)
}

type TaskHandlerFunc func(ctx context.Context, task Task, progress chan float64) (string, error)

func (f TaskHandlerFunc) Handle(ctx context.Context, task Task, progress chan float64) (string, error) {
	return f(ctx, task, progress)
}

type TaskManager interface {
	Schedule(ctx context.Context, task Task) error
	State(ctx context.Context, id TaskID) (*TaskState, error)
	List(ctx context.Context) ([]TaskStateHeader, error)
	Register(taskType TaskType, handler TaskHandler)
	Run(ctx context.Context) error
}
