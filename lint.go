package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/todosync/pkg/config"
	"github.com/harrisonrobin/todosync/pkg/todotxt"
)

func newLintCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lint [file]",
		Short: "Report malformed lines and repeated ids in a todo.txt file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			path := cfg.TodoFile
			if len(args) == 1 {
				path = args[0]
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			records, formatErrs, err := todotxt.Parse(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			problems := len(formatErrs)
			for _, fe := range formatErrs {
				fmt.Fprintf(out, "%s:%v\n", path, fe)
			}

			// Repeated ids are checked across the whole file, ignoring
			// context_tag, the same way reconcile.Reconcile drops local
			// duplicates before it applies its scope. Keep the two in step.
			idKey := cfg.ResolvedIDKey()
			seen := make(map[string]int)
			for i, r := range records {
				id := r.ExternalID(idKey)
				if id == "" {
					continue
				}
				if first, ok := seen[id]; ok {
					problems++
					fmt.Fprintf(out, "%s:line %d: %s:%s already used on line %d\n", path, i+1, idKey, id, first)
					continue
				}
				seen[id] = i + 1
			}

			root.logger.Debug("linted todo file", "path", path, "records", len(records), "problems", problems)
			if problems > 0 {
				return errors.New(pluralize(problems, "problem") + " found in " + path)
			}
			return nil
		},
	}
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
