package gitlab

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/todosync/pkg/model"
)

const (
	StatePending = "pending"
	StateDone    = "done"

	SourceName = "gitlab"
)

// Time is a GitLab timestamp. GitLab sends RFC 3339 strings, sometimes null.
type Time struct {
	time.Time
}

// UnmarshalJSON implements the json.Unmarshaler interface for Time.
func (t *Time) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("failed to parse GitLab time string '%s': %w", s, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements the json.Marshaler interface for Time.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte(`null`), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

type User struct {
	Username string `json:"username"`
}

type Namespace struct {
	PathWithNamespace string `json:"path_with_namespace"`
}

type Target struct {
	Title string `json:"title"`
}

// Todo is one entry of GET /todos.
type Todo struct {
	ID         int64      `json:"id"`
	Body       string     `json:"body"`
	State      string     `json:"state"`
	ActionName string     `json:"action_name"`
	TargetType string     `json:"target_type"`
	TargetURL  string     `json:"target_url"`
	Target     *Target    `json:"target,omitempty"`
	Author     *User      `json:"author,omitempty"`
	Project    *Namespace `json:"project,omitempty"`
	Group      *Namespace `json:"group,omitempty"`
	CreatedAt  Time       `json:"created_at"`
	UpdatedAt  Time       `json:"updated_at"`
}

func (t *Todo) IsDone() bool {
	return t.State == StateDone
}

// Remote maps the GitLab todo onto the source-neutral shape.
func (t *Todo) Remote() model.RemoteTodo {
	r := model.RemoteTodo{
		Done:      t.IsDone(),
		Title:     t.Body,
		URL:       t.TargetURL,
		Source:    SourceName,
		CreatedAt: t.CreatedAt.Time,
		UpdatedAt: t.UpdatedAt.Time,
	}
	if t.ID > 0 {
		r.ID = strconv.FormatInt(t.ID, 10)
	}
	if t.Target != nil {
		r.Body = t.Target.Title
	}
	if t.TargetType != "" && t.ActionName != "" {
		r.Kind = t.TargetType + ":" + t.ActionName
	}
	if t.Author != nil {
		r.Author = t.Author.Username
	}
	if t.Project != nil && t.Project.PathWithNamespace != "" {
		r.Project = t.Project.PathWithNamespace
	} else if t.Group != nil {
		r.Project = t.Group.PathWithNamespace
	}
	return r
}

// RemoteTodos maps a batch of GitLab todos.
func RemoteTodos(todos []Todo) []model.RemoteTodo {
	out := make([]model.RemoteTodo, 0, len(todos))
	for i := range todos {
		out = append(out, todos[i].Remote())
	}
	return out
}
