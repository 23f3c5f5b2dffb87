package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage workspaces",
	}
	cmd.AddCommand(newWorkspaceListCmd())
	cmd.AddCommand(newWorkspaceSetCmd())
	return cmd
}

func newWorkspaceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			v := r.CurrentView()
			names := make([]string, 0, len(v.Workspaces))
			for name := range v.Workspaces {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", short(v.Workspaces[name]), name)
			}
			return nil
		},
	}
}

func newWorkspaceSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <revision>",
		Short: "Point a workspace at a commit without touching the working copy",
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
			if err := r.SetWorkspaceCommit(cmd.Context(), args[0], id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "workspace %s -> %s\n", args[0], short(id))
			return nil
		},
	}
}
