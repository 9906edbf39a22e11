package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sentinl-app/sentinl/client/internal/model/task"
)

// TaskPatch is a partial update for a task. Nil fields are omitted so the
// backend only sees the flags being changed.
type TaskPatch struct {
	IsCompleted      *bool `json:"is_completed,omitempty"`
	IsMicroCompleted *bool `json:"is_micro_completed,omitempty"`
}

// Tasks lists today's open tasks.
func (c *Client) Tasks(ctx context.Context) ([]task.Task, error) {
	var out []task.Task
	if err := c.doJSON(ctx, http.MethodGet, "tasks/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// History lists past tasks, completed or missed.
func (c *Client) History(ctx context.Context) ([]task.Task, error) {
	var out []task.Task
	if err := c.doJSON(ctx, http.MethodGet, "history/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTask patches a task, typically marking it (or its micro-version)
// complete, and returns the updated record.
func (c *Client) UpdateTask(ctx context.Context, id int64, patch TaskPatch) (task.Task, error) {
	var out task.Task
	path := fmt.Sprintf("tasks/%d/", id)
	if err := c.doJSON(ctx, http.MethodPatch, path, patch, &out); err != nil {
		return task.Task{}, err
	}
	return out, nil
}

// Achievements lists unlocked achievements for the signed-in profile.
func (c *Client) Achievements(ctx context.Context) ([]task.Achievement, error) {
	var out []task.Achievement
	if err := c.doJSON(ctx, http.MethodGet, "achievements/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
