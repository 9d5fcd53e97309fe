package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/archivelabs/lenny/internal/http/handler/api"
	"github.com/pkg/errors"
)

type Task = api.Task

type WaitForOptions struct {
	PollInterval time.Duration
}

type WaitForOptionFunc func(opts *WaitForOptions)

func WithWaitForPollInterval(interval time.Duration) WaitForOptionFunc {
	return func(opts *WaitForOptions) {
		opts.PollInterval = interval
	}
}

func NewWaitForOptions(funcs ...WaitForOptionFunc) *WaitForOptions {
	opts := &WaitForOptions{
		PollInterval: time.Second * 2,
	}

	for _, fn := range funcs {
		fn(opts)
	}

	return opts
}

// SyncBookshelf schedules the reconciliation of the catalog with the
// bookshelf bucket and returns the identifier of the task.
func (c *Client) SyncBookshelf(ctx context.Context) (port.TaskID, error) {
	var res api.ScheduleTaskResponse

	if err := c.jsonRequest(ctx, http.MethodPost, "/admin/tasks/sync", nil, nil, &res); err != nil {
		return "", errors.WithStack(err)
	}

	return res.TaskID, nil
}

// WaitFor polls the task state until it is finished.
func (c *Client) WaitFor(ctx context.Context, taskID port.TaskID, funcs ...WaitForOptionFunc) (*Task, error) {
	opts := NewWaitForOptions(funcs...)

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	endpoint := fmt.Sprintf("/admin/tasks/%s", taskID)

	for {
		var res api.ShowTaskResponse
		if err := c.jsonRequest(ctx, http.MethodGet, endpoint, nil, nil, &res); err != nil {
			return nil, errors.WithStack(err)
		}

		if !res.Task.FinishedAt.IsZero() {
			return res.Task, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.WithStack(ctx.Err())
		case <-ticker.C:
		}
	}
}
