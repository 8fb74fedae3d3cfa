package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/todosync/pkg/config"
	"github.com/harrisonrobin/todosync/pkg/gitlab"
	"github.com/harrisonrobin/todosync/pkg/google"
	"github.com/harrisonrobin/todosync/pkg/normalize"
	"github.com/harrisonrobin/todosync/pkg/reconcile"
	"github.com/harrisonrobin/todosync/pkg/state"
	"github.com/harrisonrobin/todosync/pkg/syncer"
)

func newSyncCmd(root *rootOptions) *cobra.Command {
	var (
		dryRun   bool
		todoFile string
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Merge the remote todos into the todo.txt file",
		Long: `Fetch the complete remote snapshot and merge it into the todo file.

Nothing is written when the fetch fails or when the merged file would be
identical to the current one. With --dry-run the merged file is printed
instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			if todoFile != "" {
				cfg.TodoFile = todoFile
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			src, err := buildSource(ctx, cfg, root.logger)
			if err != nil {
				return err
			}

			s := newSyncer(cfg, src, root.logger)
			s.Options.DryRun = dryRun
			s.Options.Out = cmd.OutOrStdout()

			report, err := s.Run(ctx)
			if err != nil {
				return err
			}
			logReport(root.logger, report)
			if !dryRun {
				recordRun(cfg, report, root.logger)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "print the merged file instead of writing it")
	cmd.Flags().StringVarP(&todoFile, "file", "f", "", "todo.txt file to sync (overrides config)")
	return cmd
}

func newSyncer(cfg *config.Config, src syncer.Source, logger *slog.Logger) *syncer.Syncer {
	idKey := cfg.ResolvedIDKey()
	return &syncer.Syncer{
		Source: src,
		Normalizer: normalize.New(normalize.Options{
			IDKey:        idKey,
			ContextTag:   cfg.ContextTag,
			NoEscapeMeta: cfg.NoEscapeMeta,
		}),
		Options: syncer.Options{
			Path: cfg.TodoFile,
			Reconcile: reconcile.Options{
				IDKey:           idKey,
				Scope:           cfg.ContextTag,
				OnMissingRemote: cfg.OnMissingRemote,
				Done:            cfg.DoneTodoPolicy,
			},
		},
		Logger: logger,
	}
}

// buildSource picks the remote the config points at. A todos dump takes
// precedence over the GitLab API.
func buildSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (syncer.Source, error) {
	includeDone := cfg.DoneTodoPolicy != reconcile.DoneIgnore

	switch cfg.Source {
	case config.SourceGTasks:
		dir, err := config.Dir()
		if err != nil {
			return nil, err
		}
		client, err := google.NewClient(ctx, dir, cfg.GTasksList, logger)
		if err != nil {
			return nil, err
		}
		client.IncludeDone = includeDone
		return client, nil
	default:
		if cfg.TodosJSON != "" {
			logger.Debug("reading gitlab todos from dump", "path", cfg.TodosJSON)
			return &gitlab.FileSource{Path: cfg.TodosJSON, IncludeDone: includeDone}, nil
		}
		client, err := gitlab.NewClient(cfg.GitlabHost, cfg.GitlabToken.Reveal(), gitlab.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		client.IncludeDone = includeDone
		return client, nil
	}
}

func logReport(logger *slog.Logger, r *syncer.Report) {
	st := r.Stats
	logger.Info("sync finished",
		"path", r.Path,
		"written", r.Written,
		"created", st.Created,
		"completed", st.Completed,
		"reopened", st.Reopened,
		"retained", st.Retained,
		"missing", st.Missing,
		"skipped", st.Skipped+st.Ignored,
	)
	if n := r.WarningCount(); n > 0 {
		logger.Warn("sync finished with warnings", "count", n, "run", r.RunID)
	}
}

func statePath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, state.FileName), nil
}

// recordRun saves a summary of the run for `todosync status`. Failing to do
// so does not fail the sync.
func recordRun(cfg *config.Config, r *syncer.Report, logger *slog.Logger) {
	path, err := statePath()
	if err != nil {
		logger.Warn("could not locate state file", "err", err)
		return
	}
	store, err := state.Open(path)
	if err != nil {
		logger.Warn("could not open state file", "path", path, "err", err)
		return
	}
	store.Set(state.Run{
		RunID:     r.RunID,
		Source:    cfg.Source,
		Path:      r.Path,
		At:        time.Now().UTC(),
		Fetched:   r.Fetched,
		Created:   r.Stats.Created,
		Completed: r.Stats.Completed,
		Reopened:  r.Stats.Reopened,
		Warnings:  r.WarningCount(),
	})
	if err := store.Save(); err != nil {
		logger.Warn("could not save state file", "path", path, "err", err)
	}
}
