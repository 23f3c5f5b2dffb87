package repo

import (
	"context"
	"fmt"
	"sort"

	"github.com/strata-vcs/strata/pkg/object"
)

// SetBranch creates or moves a branch to point at an existing commit.
func (r *Repository) SetBranch(ctx context.Context, name string, id object.CommitID) (string, error) {
	if name == "" {
		return "", fmt.Errorf("set branch: empty branch name")
	}
	if _, ok, err := r.store.ReadCommit(ctx, id); err != nil {
		return "", fmt.Errorf("set branch: %w", err)
	} else if !ok {
		return "", fmt.Errorf("set branch: commit %s: %w", id, ErrNotFound)
	}

	tx := r.StartTransaction()
	tx.SetBranch(name, id)
	opID, err := tx.Commit(ctx, fmt.Sprintf("set branch %s to %s", name, id))
	if err != nil {
		return "", fmt.Errorf("set branch: %w", err)
	}
	return opID, nil
}

// DeleteBranch removes a branch. Deleting an unknown branch is an error.
func (r *Repository) DeleteBranch(ctx context.Context, name string) (string, error) {
	if _, ok := r.CurrentView().Branches[name]; !ok {
		return "", fmt.Errorf("delete branch: branch %q: %w", name, ErrNotFound)
	}

	tx := r.StartTransaction()
	tx.DeleteBranch(name)
	opID, err := tx.Commit(ctx, "delete branch "+name)
	if err != nil {
		return "", fmt.Errorf("delete branch: %w", err)
	}
	return opID, nil
}

// BranchNames returns the current branch names, sorted.
func (r *Repository) BranchNames() []string {
	v := r.CurrentView()
	names := make([]string, 0, len(v.Branches))
	for name := range v.Branches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
