package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/harrisonrobin/todosync/pkg/model"
)

// DecodeTodos reads GitLab todos from r. It accepts either a JSON array, as
// returned by the API, or a stream of JSON objects.
func DecodeTodos(r io.Reader) ([]Todo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read todos: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var todos []Todo
		if err := json.Unmarshal(data, &todos); err != nil {
			return nil, fmt.Errorf("failed to decode todos json: %w", err)
		}
		return todos, nil
	}

	var todos []Todo
	decoder := json.NewDecoder(bytes.NewReader(data))
	for {
		var todo Todo
		if err := decoder.Decode(&todo); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode todo json: %w", err)
		}
		todos = append(todos, todo)
	}
	return todos, nil
}

// FileSource serves todos from a JSON dump instead of the API.
type FileSource struct {
	Path        string
	IncludeDone bool
}

func (s *FileSource) Fetch(ctx context.Context) ([]model.RemoteTodo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	todos, err := DecodeTodos(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	if !s.IncludeDone {
		kept := todos[:0]
		for _, t := range todos {
			if !t.IsDone() {
				kept = append(kept, t)
			}
		}
		todos = kept
	}
	return RemoteTodos(todos), nil
}
