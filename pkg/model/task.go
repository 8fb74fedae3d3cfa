package model

import "time"

// RemoteTodo represents a todo item fetched from any remote source.
type RemoteTodo struct {
	ID    string // stable identifier at the remote service
	Done  bool
	Title string
	Body  string
	Kind  string // e.g. "Issue:assigned" for GitLab target type and action
	// Project is the remote grouping the item belongs to, if any.
	Project string
	Author  string
	URL     string
	Source  string // "gitlab" or "gtasks"

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt time.Time
}
