package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBranchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Manage branches",
	}
	cmd.AddCommand(newBranchListCmd())
	cmd.AddCommand(newBranchSetCmd())
	cmd.AddCommand(newBranchDeleteCmd())
	return cmd
}

func newBranchListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List branches",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			v := r.CurrentView()
			for _, name := range r.BranchNames() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", short(v.Branches[name]), name)
			}
			return nil
		},
	}
}

func newBranchSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <revision>",
		Short: "Create or move a branch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			id, err := resolveRevision(r, args[1])
			if err != nil {
				return err
			}
			if _, err := r.SetBranch(cmd.Context(), args[0], id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "branch %s -> %s\n", args[0], short(id))
			return nil
		},
	}
}

func newBranchDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			if _, err := r.DeleteBranch(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted branch %s\n", args[0])
			return nil
		},
	}
}
