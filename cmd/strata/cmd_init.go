package main

import (
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/strata-vcs/strata/pkg/repo"
)

func newInitCmd() *cobra.Command {
	var name string
	var email string
	var backend string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new repository in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Init(cmd.Context(), osfs.New("."),
				repo.UserSettings{Name: name, Email: email},
				repo.InitOptions{Backend: backend})
			if err != nil {
				return err
			}
			defer r.Close()

			root := r.CurrentView().Workspaces[repo.DefaultWorkspace]
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized strata repository (root commit %s)\n", short(root))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "author name stored in the repository config")
	cmd.Flags().StringVar(&email, "email", "", "author email stored in the repository config")
	cmd.Flags().StringVar(&backend, "backend", "", "object store backend: files (default) or bolt")

	return cmd
}
