// Package config loads the todosync configuration file.
//
// The file lives at $XDG_CONFIG_HOME/todosync/config.json (or
// ~/.config/todosync/config.json). TOML and YAML files are accepted as well,
// picked by extension. Every format is checked against the same JSON schema
// before it is decoded, and a handful of TODOSYNC_* environment variables
// override the file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrisonrobin/todosync/pkg/reconcile"
)

const (
	xdgAppName = "todosync"
	configFile = "config.json"

	SourceGitlab = "gitlab"
	SourceGTasks = "gtasks"

	DefaultGitlabHost = "https://gitlab.com"
	DefaultGTasksList = "My Tasks"
	DefaultTodoFile   = "~/.todo/todo.txt"
)

const (
	EnvGitlabToken = "TODOSYNC_GITLAB_TOKEN"
	EnvTodoFile    = "TODOSYNC_TODO_FILE"
	EnvTodosJSON   = "TODOSYNC_TODOS_JSON"
)

// Secret holds a credential. It prints as **REDACTED**.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "**REDACTED**"
}

func (s Secret) GoString() string {
	return fmt.Sprintf("config.Secret(%s)", s.String())
}

// Reveal returns the credential itself.
func (s Secret) Reveal() string {
	return string(s)
}

type Config struct {
	// Source selects the remote: gitlab or gtasks.
	Source string `json:"source"`
	// GitlabToken is a GitLab personal access token for the target user.
	GitlabToken Secret `json:"gitlab_token,omitempty"`
	// GitlabHost is the base URL of the GitLab instance.
	GitlabHost string `json:"gitlab_host"`
	// GTasksList is the title of the Google Tasks list to sync.
	GTasksList string `json:"gtasks_list"`
	// TodoFile is the todo.txt file to sync. A leading ~ is expanded.
	TodoFile string `json:"todo_file"`
	// ContextTag is added as @context to synced items. When set, items in
	// the file without it are left alone.
	ContextTag string `json:"context_tag,omitempty"`
	// IDKey is the key:value tag key holding the remote id.
	IDKey string `json:"id_key,omitempty"`
	// NoEscapeMeta disables escaping of key:value, +project and @context in
	// remote text.
	NoEscapeMeta    bool                    `json:"no_escape_meta"`
	OnMissingRemote reconcile.MissingPolicy `json:"on_missing_remote"`
	DoneTodoPolicy  reconcile.DonePolicy    `json:"done_todo_policy"`
	// TodosJSON reads GitLab todos from a JSON dump instead of the API.
	TodosJSON string `json:"todos_json,omitempty"`
}

// Default returns the configuration used for keys the file leaves out.
func Default() *Config {
	return &Config{
		Source:          SourceGitlab,
		GitlabHost:      DefaultGitlabHost,
		GTasksList:      DefaultGTasksList,
		TodoFile:        DefaultTodoFile,
		OnMissingRemote: reconcile.RetainMissing,
		DoneTodoPolicy:  reconcile.DoneAdd,
	}
}

// Dir returns the todosync configuration directory.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, xdgAppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.GitlabToken != "" {
		cp.GitlabToken = Secret(cp.GitlabToken.String())
	}
	return &cp
}

// Validate checks that the configuration is usable for a sync.
func (c *Config) Validate() error {
	var errs []error
	switch c.Source {
	case SourceGitlab:
		if c.GitlabToken == "" && c.TodosJSON == "" {
			errs = append(errs, fmt.Errorf("gitlab_token is required (or set %s)", EnvGitlabToken))
		}
		if u, err := url.Parse(c.GitlabHost); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("gitlab_host %q is not an absolute URL", c.GitlabHost))
		}
	case SourceGTasks:
		if strings.TrimSpace(c.GTasksList) == "" {
			errs = append(errs, errors.New("gtasks_list must not be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source %q (want gitlab or gtasks)", c.Source))
	}
	if c.TodoFile == "" {
		errs = append(errs, errors.New("todo_file must not be empty"))
	}
	if strings.ContainsAny(c.ContextTag, " \t") {
		errs = append(errs, fmt.Errorf("context_tag %q must be a single word", c.ContextTag))
	}
	if _, err := reconcile.ParseMissingPolicy(string(c.OnMissingRemote)); err != nil {
		errs = append(errs, err)
	}
	if _, err := reconcile.ParseDonePolicy(string(c.DoneTodoPolicy)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ResolvedIDKey returns the id tag key, defaulting per source.
func (c *Config) ResolvedIDKey() string {
	if c.IDKey != "" {
		return c.IDKey
	}
	if c.Source == SourceGTasks {
		return "gtask"
	}
	return "id"
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("couldn't determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
