package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/todosync/pkg/writer"
)

//go:embed config.schema.json
var schemaJSON string

const schemaURL = "config.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// SchemaError lists every schema violation found in a config file.
type SchemaError struct {
	Path   string
	Issues []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Path, strings.Join(e.Issues, "; "))
}

func collectIssues(err *jsonschema.ValidationError, issues *[]string) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*issues = append(*issues, fmt.Sprintf("%s: %s", loc, err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectIssues(cause, issues)
	}
}

type format int

const (
	formatJSON format = iota
	formatTOML
	formatYAML
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", "":
		return formatJSON, nil
	case ".toml":
		return formatTOML, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return 0, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields the defaults. Environment overrides are
// applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := Decode(path, data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	if cfg.TodoFile, err = expandHome(cfg.TodoFile); err != nil {
		return nil, err
	}
	if cfg.TodosJSON, err = expandHome(cfg.TodosJSON); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode validates data against the config schema and decodes it over cfg.
// The format is picked from the extension of path.
func Decode(path string, data []byte, cfg *Config) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}

	var raw map[string]any
	switch f {
	case formatJSON:
		err = json.Unmarshal(data, &raw)
	case formatTOML:
		_, err = toml.Decode(string(data), &raw)
	case formatYAML:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if raw == nil {
		return nil
	}

	// Round-trip through JSON so every format validates and decodes alike.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to normalize config %s: %w", path, err)
	}
	var doc any
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return fmt.Errorf("failed to normalize config %s: %w", path, err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return fmt.Errorf("invalid config %s: %w", path, err)
		}
		var issues []string
		collectIssues(ve, &issues)
		sort.Strings(issues)
		return &SchemaError{Path: path, Issues: issues}
	}

	if err := json.Unmarshal(normalized, cfg); err != nil {
		return fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvGitlabToken); v != "" {
		cfg.GitlabToken = Secret(v)
	}
	if v := os.Getenv(EnvTodoFile); v != "" {
		cfg.TodoFile = v
	}
	if v := os.Getenv(EnvTodosJSON); v != "" {
		cfg.TodosJSON = v
	}
}

// Encode renders cfg in the format picked from the extension of path.
func Encode(path string, cfg *Config) ([]byte, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	if f == formatJSON {
		return append(data, '\n'), nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if f == formatYAML {
		return yaml.Marshal(raw)
	}
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// Save writes cfg to path, or the default location when path is empty. The
// file is readable only by the owner since it may hold a token.
func Save(path string, cfg *Config) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	data, err := Encode(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return writer.WriteFileMode(path, data, 0o600)
}
