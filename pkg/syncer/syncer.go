// Package syncer runs one sync of a remote source into the local todo file.
package syncer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/harrisonrobin/todosync/pkg/model"
	"github.com/harrisonrobin/todosync/pkg/normalize"
	"github.com/harrisonrobin/todosync/pkg/reconcile"
	"github.com/harrisonrobin/todosync/pkg/todotxt"
	"github.com/harrisonrobin/todosync/pkg/writer"
)

// Source returns the complete remote snapshot, or an error. A partial set is
// never returned.
type Source interface {
	Fetch(ctx context.Context) ([]model.RemoteTodo, error)
}

// ErrFetch is matched by every *FetchError.
var ErrFetch = errors.New("fetching remote todos failed")

type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch remote todos: %v", e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetch, e.Err}
}

type Options struct {
	// Path is the local todo.txt file.
	Path string
	// DryRun writes the merged file to Out instead of Path.
	DryRun bool
	Out    io.Writer
	// Reconcile.IDKey defaults to the normalizer's key.
	Reconcile reconcile.Options
}

type Syncer struct {
	Source     Source
	Normalizer *normalize.Normalizer
	Options    Options
	Logger     *slog.Logger
}

// Report describes a finished run.
type Report struct {
	RunID   string
	Path    string
	Fetched int
	// Changed is set when the merged file differs from the one on disk.
	Changed bool
	// Written is set when Path was replaced.
	Written bool

	Stats               reconcile.Stats
	Warnings            []reconcile.Warning
	FormatErrors        []*todotxt.FormatError
	NormalizationErrors []*normalize.NormalizationError
}

// WarningCount is the number of non-fatal problems found during the run.
func (r *Report) WarningCount() int {
	return len(r.Warnings) + len(r.FormatErrors) + len(r.NormalizationErrors)
}

func (s *Syncer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Run fetches, merges and writes. The local file is only touched when the
// fetch and read both succeeded and the merged bytes differ.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), Path: s.Options.Path}
	logger := s.logger().With("run", report.RunID)

	remote, err := s.Source.Fetch(ctx)
	if err != nil {
		return report, &FetchError{Err: err}
	}
	report.Fetched = len(remote)
	logger.Debug("fetched remote todos", "count", len(remote))

	normalizer := s.Normalizer
	if normalizer == nil {
		normalizer = normalize.New(normalize.Options{})
	}
	records, nerrs := normalizer.NormalizeAll(remote)
	report.NormalizationErrors = nerrs
	for _, ne := range nerrs {
		logger.Warn("skipping remote todo", "index", ne.Index, "title", ne.Title, "err", ne.Err)
	}

	data, err := writer.ReadFile(s.Options.Path)
	if err != nil {
		return report, err
	}
	local, ferrs, err := todotxt.Parse(bytes.NewReader(data))
	if err != nil {
		return report, &writer.IoError{Op: "read", Path: s.Options.Path, Err: err}
	}
	report.FormatErrors = ferrs
	for _, fe := range ferrs {
		logger.Warn("keeping unparsable line as is", "line", fe.Line, "reason", fe.Reason)
	}

	opts := s.Options.Reconcile
	if opts.IDKey == "" {
		opts.IDKey = normalizer.IDKey()
	}
	res := reconcile.Reconcile(local, records, opts)
	report.Stats = res.Stats
	report.Warnings = res.Warnings
	for _, w := range res.Warnings {
		logger.Warn(w.String())
	}

	out := []byte(todotxt.Serialize(res.Records))
	report.Changed = !bytes.Equal(out, data)

	if s.Options.DryRun {
		if s.Options.Out != nil {
			if _, err := s.Options.Out.Write(out); err != nil {
				return report, fmt.Errorf("write dry run output: %w", err)
			}
		}
		return report, nil
	}
	if !report.Changed {
		logger.Debug("todo file up to date", "path", s.Options.Path)
		return report, nil
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	if err := writer.WriteFile(s.Options.Path, out); err != nil {
		return report, err
	}
	report.Written = true
	logger.Debug("wrote todo file", "path", s.Options.Path, "records", len(res.Records))
	return report, nil
}
