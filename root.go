package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	verbose    bool
	logFormat  string

	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "todosync",
		Short: "Sync remote todos into a todo.txt file",
		Long: `todosync pulls your GitLab todos (or a Google Tasks list) and merges them
into a todo.txt file. The remote decides whether an item is done, the file
keeps everything else you wrote: priorities, wording, extra tags and items
that never came from the remote.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), opts.verbose, opts.logFormat)
			if err != nil {
				return err
			}
			opts.logger = logger
			slog.SetDefault(logger)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/todosync/config.json)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format: text, json or logfmt")

	cmd.AddCommand(
		newSyncCmd(opts),
		newAuthCmd(opts),
		newLintCmd(opts),
		newConfigCmd(opts),
		newStatusCmd(opts),
	)
	return cmd
}

// newLogger returns a slog logger backed by a charmbracelet/log handler.
func newLogger(w io.Writer, verbose bool, format string) (*slog.Logger, error) {
	var formatter log.Formatter
	switch format {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q (want text, json or logfmt)", format)
	}

	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: verbose,
		Prefix:          "todosync",
	})
	return slog.New(handler), nil
}
