package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strata-vcs/strata/pkg/repo"
)

func newCommitCmd() *cobra.Command {
	var message string
	var author string
	var email string
	var ignore []string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Snapshot the working copy as a new commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			id, err := r.Commit(cmd.Context(), message, authorSettings(r, author, email),
				repo.SnapshotOptions{Ignore: ignore})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", short(id), message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", "override author name")
	cmd.Flags().StringVar(&email, "email", "", "override author email")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "glob patterns to exclude from the snapshot")

	return cmd
}
