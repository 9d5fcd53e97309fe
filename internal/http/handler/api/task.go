package api

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/archivelabs/lenny/internal/core/service"
	"github.com/archivelabs/lenny/internal/http/handler/common"
	"github.com/pkg/errors"
)

type ListTasksResponse struct {
	Tasks []TaskStateHeader `json:"tasks"`
}

type TaskStateHeader struct {
	ID          port.TaskID     `json:"id"`
	Type        port.TaskType   `json:"type"`
	ScheduledAt time.Time       `json:"scheduledAt"`
	Status      port.TaskStatus `json:"status"`
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	headers, err := h.taskManager.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "could not list tasks", slog.Any("error", errors.WithStack(err)))
		common.HandleError(w, r, common.NewHTTPError(http.StatusInternalServerError))
		return
	}

	slices.SortFunc(headers, func(h1, h2 port.TaskStateHeader) int {
		return h1.ScheduledAt.Compare(h2.ScheduledAt)
	})

	tasks := make([]TaskStateHeader, 0, len(headers))
	for _, h := range headers {
		tasks = append(tasks, TaskStateHeader{ID: h.ID, Type: h.Type, ScheduledAt: h.ScheduledAt, Status: h.Status})
	}

	common.WriteJSON(w, r, http.StatusOK, ListTasksResponse{Tasks: tasks})
}

type ScheduleTaskResponse struct {
	TaskID port.TaskID `json:"taskId"`
}

func (h *Handler) handleScheduleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	task := service.NewSyncBookshelfTask()

	if err := h.taskManager.Schedule(ctx, task); err != nil {
		common.HandleError(w, r, errors.WithStack(err))
		return
	}

	common.WriteJSON(w, r, http.StatusAccepted, ScheduleTaskResponse{TaskID: task.ID()})
}

type ShowTaskResponse struct {
	Task *Task `json:"task"`
}

type Task struct {
	ID          port.TaskID     `json:"id"`
	Type        port.TaskType   `json:"type"`
	Status      port.TaskStatus `json:"status"`
	Progress    float64         `json:"progress"`
	ScheduledAt time.Time       `json:"scheduledAt"`
	FinishedAt  time.Time       `json:"finishedAt"`
	Error       string          `json:"error,omitempty"`
	Message     string          `json:"message"`
}

func (h *Handler) showTask(w http.ResponseWriter, r *http.Request) {
	taskID := port.TaskID(r.PathValue("taskID"))

	ctx := r.Context()

	taskState, err := h.taskManager.State(ctx, taskID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			common.HandleError(w, r, common.NewHTTPError(http.StatusNotFound))
			return
		}

		slog.ErrorContext(ctx, "could not retrieve task state", slog.Any("error", errors.WithStack(err)))
		common.HandleError(w, r, common.NewHTTPError(http.StatusInternalServerError))
		return
	}

	res := ShowTaskResponse{
		Task: &Task{
			ID:          taskID,
			Type:        taskState.Type,
			Status:      taskState.Status,
			Progress:    taskState.Progress,
			ScheduledAt: taskState.ScheduledAt,
			FinishedAt:  taskState.FinishedAt,
			Message:     taskState.Message,
		},
	}

	if taskState.Error != nil {
		res.Task.Error = taskState.Error.Error()
	}

	common.WriteJSON(w, r, http.StatusOK, res)
}
