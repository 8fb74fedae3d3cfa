package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/todosync/pkg/reconcile"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	t.Setenv(EnvGitlabToken, "")
	t.Setenv(EnvTodoFile, "")
	t.Setenv(EnvTodosJSON, "")
	return home
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(filepath.Join(home, "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, SourceGitlab, cfg.Source)
	assert.Equal(t, DefaultGitlabHost, cfg.GitlabHost)
	assert.Equal(t, filepath.Join(home, ".todo", "todo.txt"), cfg.TodoFile)
	assert.Equal(t, reconcile.RetainMissing, cfg.OnMissingRemote)
	assert.Equal(t, reconcile.DoneAdd, cfg.DoneTodoPolicy)
	assert.Empty(t, cfg.ContextTag)
}

func TestGetConfigPath(t *testing.T) {
	home := isolate(t)

	p, err := GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "xdg", "todosync", "config.json"), p)

	t.Setenv("XDG_CONFIG_HOME", "")
	p, err = GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "todosync", "config.json"), p)
}

func TestLoadFormats(t *testing.T) {
	files := map[string]string{
		"config.json": `{
  "gitlab_token": "glpat-secret",
  "gitlab_host": "https://gitlab.example.com",
  "todo_file": "/tmp/todo.txt",
  "context_tag": "gitlab",
  "done_todo_policy": "mark",
  "on_missing_remote": "mark_completed"
}`,
		"config.toml": `gitlab_token = "glpat-secret"
gitlab_host = "https://gitlab.example.com"
todo_file = "/tmp/todo.txt"
context_tag = "gitlab"
done_todo_policy = "mark"
on_missing_remote = "mark_completed"
`,
		"config.yaml": `gitlab_token: glpat-secret
gitlab_host: https://gitlab.example.com
todo_file: /tmp/todo.txt
context_tag: gitlab
done_todo_policy: mark
on_missing_remote: mark_completed
`,
	}

	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			home := isolate(t)
			path := filepath.Join(home, name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

			cfg, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, "glpat-secret", cfg.GitlabToken.Reveal())
			assert.Equal(t, "https://gitlab.example.com", cfg.GitlabHost)
			assert.Equal(t, "/tmp/todo.txt", cfg.TodoFile)
			assert.Equal(t, "gitlab", cfg.ContextTag)
			assert.Equal(t, reconcile.DoneMark, cfg.DoneTodoPolicy)
			assert.Equal(t, reconcile.MarkMissingCompleted, cfg.OnMissingRemote)
			assert.Equal(t, SourceGitlab, cfg.Source)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestLoadNullContextTag(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"context_tag": null}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.ContextTag)
}

func TestLoadSchemaErrors(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.json")
	body := `{"done_todo_policy": "sometimes", "gitlab_tokn": "x", "no_escape_meta": "yes"}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := Load(path)
	require.Error(t, err)

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, path, se.Path)
	assert.GreaterOrEqual(t, len(se.Issues), 3)
	assert.Contains(t, err.Error(), "/done_todo_policy")
	assert.Contains(t, err.Error(), "/no_escape_meta")
	assert.Contains(t, err.Error(), "gitlab_tokn")
}

func TestLoadRejectsBadSyntaxAndExtension(t *testing.T) {
	home := isolate(t)

	bad := filepath.Join(home, "config.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"source": `), 0o600))
	_, err := Load(bad)
	assert.ErrorContains(t, err, "failed to decode config")

	ini := filepath.Join(home, "config.ini")
	require.NoError(t, os.WriteFile(ini, []byte(`source=gitlab`), 0o600))
	_, err = Load(ini)
	assert.ErrorContains(t, err, "unsupported config format")
}

func TestEnvOverrides(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"gitlab_token": "from-file", "todo_file": "/a/todo.txt"}`), 0o600))

	t.Setenv(EnvGitlabToken, "from-env")
	t.Setenv(EnvTodoFile, "~/b/todo.txt")
	t.Setenv(EnvTodosJSON, "~/todos.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GitlabToken.Reveal())
	assert.Equal(t, filepath.Join(home, "b", "todo.txt"), cfg.TodoFile)
	assert.Equal(t, filepath.Join(home, "todos.json"), cfg.TodosJSON)
}

func TestSecretIsRedacted(t *testing.T) {
	cfg := Default()
	cfg.GitlabToken = "glpat-secret"

	assert.Equal(t, "**REDACTED**", cfg.GitlabToken.String())
	assert.NotContains(t, fmt.Sprintf("%v", *cfg), "glpat-secret")
	assert.NotContains(t, fmt.Sprintf("%+v", *cfg), "glpat-secret")
	assert.NotContains(t, fmt.Sprintf("%#v", cfg.GitlabToken), "glpat-secret")

	data, err := Encode("show.json", cfg.Redacted())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "glpat-secret")
	assert.Contains(t, string(data), "**REDACTED**")
	assert.Equal(t, "glpat-secret", cfg.GitlabToken.Reveal())
}

func TestSaveAndLoad(t *testing.T) {
	for _, name := range []string{"config.json", "config.toml", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			home := isolate(t)
			path := filepath.Join(home, "nested", name)

			cfg := Default()
			cfg.Source = SourceGTasks
			cfg.GTasksList = "Work"
			cfg.TodoFile = "/tmp/todo.txt"
			cfg.ContextTag = "tasks"
			cfg.DoneTodoPolicy = reconcile.DoneIgnore
			require.NoError(t, Save(path, cfg))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, got)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.TodoFile = "/tmp/todo.txt"
	assert.ErrorContains(t, cfg.Validate(), "gitlab_token is required")

	cfg.TodosJSON = "/tmp/todos.json"
	assert.NoError(t, cfg.Validate())

	cfg.GitlabToken = "x"
	cfg.GitlabHost = "gitlab.com"
	assert.ErrorContains(t, cfg.Validate(), "not an absolute URL")

	cfg = Default()
	cfg.Source = "jira"
	assert.ErrorContains(t, cfg.Validate(), "unknown source")

	cfg = Default()
	cfg.Source = SourceGTasks
	cfg.ContextTag = "two words"
	assert.ErrorContains(t, cfg.Validate(), "single word")
}

func TestResolvedIDKey(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "id", cfg.ResolvedIDKey())

	cfg.Source = SourceGTasks
	assert.Equal(t, "gtask", cfg.ResolvedIDKey())

	cfg.IDKey = "task"
	assert.Equal(t, "task", cfg.ResolvedIDKey())
}
