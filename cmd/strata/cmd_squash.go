package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSquashCmd() *cobra.Command {
	var message string
	var author string
	var email string

	cmd := &cobra.Command{
		Use:   "squash <revision>",
		Short: "Fold a commit into its parent, rebasing later descendants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			id, err := resolveRevision(r, args[0])
			if err != nil {
				return err
			}
			opID, err := r.SquashWithDescription(cmd.Context(), id, message, authorSettings(r, author, email))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "squashed %s into its parent (operation %s)\n", short(id), opID[:8])
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "description for the squashed commit (default: the parent's)")
	cmd.Flags().StringVar(&author, "author", "", "override author name")
	cmd.Flags().StringVar(&email, "email", "", "override author email")

	return cmd
}
