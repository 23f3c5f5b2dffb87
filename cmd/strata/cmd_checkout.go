package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strata-vcs/strata/pkg/repo"
)

func newCheckoutCmd() *cobra.Command {
	var keepUntracked bool
	var author string
	var email string

	cmd := &cobra.Command{
		Use:   "checkout <revision>",
		Short: "Materialize a commit into the working copy",
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
			opts := repo.CheckoutOptions{KeepUntracked: keepUntracked}
			if err := r.Checkout(cmd.Context(), id, opts, authorSettings(r, author, email)); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "checked out %s\n", short(id))
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepUntracked, "keep-untracked", false, "leave files missing from the target tree in place")
	cmd.Flags().StringVar(&author, "author", "", "override author name")
	cmd.Flags().StringVar(&email, "email", "", "override author email")

	return cmd
}
