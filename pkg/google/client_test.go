package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"
)

func strPtr(s string) *string { return &s }

func TestTaskToRemote(t *testing.T) {
	r, ok := TaskToRemote(&tasks.Task{
		Id:          "t1",
		Title:       "Buy milk",
		Notes:       "2 litres",
		Status:      "completed",
		Completed:   strPtr("2024-06-02T10:00:00.000Z"),
		Updated:     "2024-06-02T10:00:01.000Z",
		WebViewLink: "https://tasks.google.com/task/t1",
	})
	require.True(t, ok)
	assert.Equal(t, "t1", r.ID)
	assert.True(t, r.Done)
	assert.Equal(t, "Buy milk", r.Title)
	assert.Equal(t, "2 litres", r.Body)
	assert.Equal(t, SourceName, r.Source)
	assert.Equal(t, time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC), r.CompletedAt)
	assert.Equal(t, time.Date(2024, 6, 2, 10, 0, 1, 0, time.UTC), r.UpdatedAt)

	r, ok = TaskToRemote(&tasks.Task{Id: "t2", Title: "Open", Status: "needsAction", Updated: "garbage"})
	require.True(t, ok)
	assert.False(t, r.Done)
	assert.True(t, r.UpdatedAt.IsZero())
	assert.True(t, r.CompletedAt.IsZero())

	_, ok = TaskToRemote(&tasks.Task{Id: "t3", Deleted: true})
	assert.False(t, ok)
	_, ok = TaskToRemote(nil)
	assert.False(t, ok)
}

type fakeTasks struct {
	lists     []map[string]any
	pages     map[string]map[string]any // pageToken -> response
	lastQuery map[string]string
}

func (f *fakeTasks) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/users/@me/lists"):
		_ = json.NewEncoder(w).Encode(map[string]any{"items": f.lists})
	case strings.HasSuffix(r.URL.Path, "/lists/L2/tasks"):
		q := r.URL.Query()
		f.lastQuery = map[string]string{
			"showCompleted": q.Get("showCompleted"),
			"showHidden":    q.Get("showHidden"),
		}
		page, ok := f.pages[q.Get("pageToken")]
		if !ok {
			http.Error(w, `{"error":{"code":400,"message":"bad page"}}`, http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(page)
	default:
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}
}

func newFakeService(t *testing.T, f *fakeTasks) *tasks.Service {
	t.Helper()
	ts := httptest.NewServer(f)
	t.Cleanup(ts.Close)
	srv, err := tasks.NewService(context.Background(),
		option.WithHTTPClient(ts.Client()),
		option.WithEndpoint(ts.URL+"/"),
	)
	require.NoError(t, err)
	return srv
}

func TestFindList(t *testing.T) {
	f := &fakeTasks{lists: []map[string]any{
		{"id": "L1", "title": "My Tasks"},
		{"id": "L2", "title": "Work"},
	}}
	srv := newFakeService(t, f)

	id, err := FindList(context.Background(), srv, "Work")
	require.NoError(t, err)
	assert.Equal(t, "L2", id)

	_, err = FindList(context.Background(), srv, "Home")
	assert.ErrorContains(t, err, "task list 'Home' not found")
}

func TestFetchPages(t *testing.T) {
	f := &fakeTasks{pages: map[string]map[string]any{
		"": {
			"items": []map[string]any{
				{"id": "a", "title": "First", "status": "needsAction"},
				{"id": "gone", "title": "Deleted", "status": "needsAction", "deleted": true},
			},
			"nextPageToken": "p2",
		},
		"p2": {
			"items": []map[string]any{
				{"id": "b", "title": "Second", "status": "completed", "completed": "2024-06-01T08:00:00Z"},
			},
		},
	}}
	c := NewTasksClient(newFakeService(t, f), "L2", nil)
	c.IncludeDone = true

	got, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.True(t, got[1].Done)
	assert.Equal(t, "true", f.lastQuery["showCompleted"])
	assert.Equal(t, "true", f.lastQuery["showHidden"])

	c.IncludeDone = false
	_, err = c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "false", f.lastQuery["showCompleted"])
}

func TestFetchError(t *testing.T) {
	c := NewTasksClient(newFakeService(t, &fakeTasks{}), "L2", nil)
	_, err := c.Fetch(context.Background())
	assert.ErrorContains(t, err, "unable to list tasks")
}
