package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/todosync/pkg/state"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last successful sync of each todo file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := statePath()
			if err != nil {
				return err
			}
			store, err := state.Open(path)
			if err != nil {
				return err
			}
			runs := store.List()
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sync has completed yet")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SOURCE\tFILE\tLAST SYNC\tFETCHED\tCREATED\tCOMPLETED\tREOPENED\tWARNINGS")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
					r.Source, r.Path, r.At.Local().Format(time.DateTime),
					r.Fetched, r.Created, r.Completed, r.Reopened, r.Warnings)
			}
			root.logger.Debug("read state", "path", path, "runs", len(runs))
			return w.Flush()
		},
	}
}
