package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDescribeCmd() *cobra.Command {
	var message string
	var author string
	var email string

	cmd := &cobra.Command{
		Use:   "describe <revision>",
		Short: "Rewrite a commit's description, rebasing its descendants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("new description is required (-m)")
			}

			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			id, err := resolveRevision(r, args[0])
			if err != nil {
				return err
			}
			opID, err := r.Describe(cmd.Context(), id, message, authorSettings(r, author, email))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "described %s (operation %s)\n", short(id), opID[:8])
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "new description")
	cmd.Flags().StringVar(&author, "author", "", "override author name")
	cmd.Flags().StringVar(&email, "email", "", "override author email")

	return cmd
}
