// Package google reads todos from a Google Tasks list.
package google

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/tasks/v1"

	"github.com/harrisonrobin/todosync/pkg/auth"
	"github.com/harrisonrobin/todosync/pkg/model"
)

const (
	SourceName      = "gtasks"
	statusCompleted = "completed"
	pageSize        = 100
)

// TasksClient fetches the tasks of one list.
type TasksClient struct {
	srv    *tasks.Service
	listID string
	logger *slog.Logger

	// IncludeDone also fetches completed and hidden tasks.
	IncludeDone bool
}

// NewTasksClient wraps an authenticated service for the list listID.
func NewTasksClient(srv *tasks.Service, listID string, logger *slog.Logger) *TasksClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &TasksClient{srv: srv, listID: listID, logger: logger}
}

// NewClient authorizes against Google with the credentials in dir and looks
// up the task list titled listName.
func NewClient(ctx context.Context, dir, listName string, logger *slog.Logger) (*TasksClient, error) {
	srv, err := auth.GetTasksService(ctx, dir, logger)
	if err != nil {
		return nil, err
	}
	listID, err := FindList(ctx, srv, listName)
	if err != nil {
		return nil, err
	}
	return NewTasksClient(srv, listID, logger), nil
}

// FindList returns the id of the first task list titled title.
func FindList(ctx context.Context, srv *tasks.Service, title string) (string, error) {
	var listID string
	err := srv.Tasklists.List().MaxResults(pageSize).Pages(ctx, func(page *tasks.TaskLists) error {
		for _, item := range page.Items {
			if listID == "" && item.Title == title {
				listID = item.Id
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("unable to retrieve task lists: %w", err)
	}
	if listID == "" {
		return "", fmt.Errorf("task list '%s' not found", title)
	}
	return listID, nil
}

// Fetch returns every task of the list as a remote todo.
func (c *TasksClient) Fetch(ctx context.Context) ([]model.RemoteTodo, error) {
	call := c.srv.Tasks.List(c.listID).MaxResults(pageSize)
	if c.IncludeDone {
		call = call.ShowCompleted(true).ShowHidden(true)
	} else {
		call = call.ShowCompleted(false)
	}

	var out []model.RemoteTodo
	pages := 0
	err := call.Pages(ctx, func(page *tasks.Tasks) error {
		pages++
		for _, t := range page.Items {
			if r, ok := TaskToRemote(t); ok {
				out = append(out, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to list tasks: %w", err)
	}
	c.logger.Debug("fetched google tasks", "list", c.listID, "pages", pages, "count", len(out))
	return out, nil
}

// TaskToRemote converts a Google task. Deleted tasks report false.
func TaskToRemote(t *tasks.Task) (model.RemoteTodo, bool) {
	if t == nil || t.Deleted {
		return model.RemoteTodo{}, false
	}
	r := model.RemoteTodo{
		ID:     t.Id,
		Done:   t.Status == statusCompleted,
		Title:  t.Title,
		Body:   t.Notes,
		URL:    t.WebViewLink,
		Source: SourceName,
	}
	r.UpdatedAt = parseTime(t.Updated)
	if t.Completed != nil {
		r.CompletedAt = parseTime(*t.Completed)
	}
	return r, true
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}
