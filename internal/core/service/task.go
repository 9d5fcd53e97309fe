package service

import (
	"github.com/archivelabs/lenny/internal/core/port"
)

const (
	TaskTypeExpireLoans   port.TaskType = "expire_loans"
	TaskTypeSyncBookshelf port.TaskType = "sync_bookshelf"
)

type BaseTask struct {
	id       port.TaskID
	taskType port.TaskType
}

// ID implements port.Task.
func (t *BaseTask) ID() port.TaskID {
	return t.id
}

// Type implements port.Task.
func (t *BaseTask) Type() port.TaskType {
	return t.taskType
}

var _ port.Task = &BaseTask{}

func NewExpireLoansTask() *BaseTask {
	return &BaseTask{
		id:       port.NewTaskID(),
		taskType: TaskTypeExpireLoans,
	}
}

func NewSyncBookshelfTask() *BaseTask {
	return &BaseTask{
		id:       port.NewTaskID(),
		taskType: TaskTypeSyncBookshelf,
	}
}
