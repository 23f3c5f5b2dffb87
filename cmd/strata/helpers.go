package main

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/strata-vcs/strata/pkg/object"
	"github.com/strata-vcs/strata/pkg/repo"
)

// openRepo opens the repository in the current directory.
func openRepo(cmd *cobra.Command) (*repo.Repository, error) {
	return repo.Open(cmd.Context(), osfs.New("."))
}

// resolveRevision turns a user-supplied revision into a commit id: a branch
// name, a workspace name, or a full commit id.
func resolveRevision(r *repo.Repository, rev string) (object.CommitID, error) {
	v := r.CurrentView()
	if id, ok := v.Branches[rev]; ok {
		return id, nil
	}
	if id, ok := v.Workspaces[rev]; ok {
		return id, nil
	}
	if len(rev) == object.IDHexLen {
		return object.CommitID(rev), nil
	}
	return "", fmt.Errorf("unknown revision %q", rev)
}

// workspaceHead returns the default workspace's current commit.
func workspaceHead(r *repo.Repository) (object.CommitID, error) {
	id, ok := r.CurrentView().Workspaces[repo.DefaultWorkspace]
	if !ok {
		return "", fmt.Errorf("workspace %q does not exist", repo.DefaultWorkspace)
	}
	return id, nil
}

// authorSettings resolves the author identity: flags win over configuration,
// configuration over the environment.
func authorSettings(r *repo.Repository, name, email string) repo.UserSettings {
	settings := r.Config().UserSettings()
	if name != "" {
		settings.Name = name
	}
	if email != "" {
		settings.Email = email
	}
	if settings.Name == "" {
		settings.Name = os.Getenv("USER")
		if settings.Name == "" {
			settings.Name = "unknown"
		}
	}
	return settings
}

// short abbreviates a commit id for display.
func short(id object.CommitID) string {
	s := string(id)
	if len(s) > 8 {
		s = s[:8]
	}
	return s
}
