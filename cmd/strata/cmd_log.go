package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/strata-vcs/strata/pkg/object"
)

func newLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log [revision]",
		Short: "Show history from a revision, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			var from object.CommitID
			if len(args) == 1 {
				from, err = resolveRevision(r, args[0])
			} else {
				from, err = workspaceHead(r)
			}
			if err != nil {
				return err
			}

			commits, err := r.Log(cmd.Context(), from, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			id := from
			for _, c := range commits {
				fmt.Fprintf(out, "commit %s\n", id)
				if c.Author != "" {
					fmt.Fprintf(out, "author  %s\n", c.Author)
				}
				if c.Timestamp != 0 {
					fmt.Fprintf(out, "date    %s\n", time.Unix(c.Timestamp, 0).Format(time.RFC1123))
				}
				fmt.Fprintf(out, "\n    %s\n\n", c.Description)

				if len(c.Parents) == 0 {
					break
				}
				id = c.Parents[0]
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of commits to show")

	return cmd
}
