package repo

import (
	"context"
	"fmt"

	"github.com/strata-vcs/strata/pkg/object"
)

// Checkout materializes the commit's tree into the working copy and moves
// the default workspace pointer to it. No new commit is created and no
// branch moves.
func (r *Repository) Checkout(ctx context.Context, id object.CommitID, opts CheckoutOptions, settings UserSettings) error {
	target, ok, err := r.store.ReadCommit(ctx, id)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if !ok {
		return fmt.Errorf("checkout: commit %s: %w", id, ErrNotFound)
	}

	tx := r.StartTransaction()

	var prevTree object.TreeID
	if prev, ok := tx.PendingView().Workspaces[DefaultWorkspace]; ok {
		prevTree, err = commitTree(ctx, r.store, prev)
		if err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
	}

	if err := materializeTree(ctx, r.fs, r.store, target.RootTreeID, prevTree, opts); err != nil {
		return err
	}

	tx.SetWorkspace(DefaultWorkspace, id)
	if _, err := tx.Commit(ctx, fmt.Sprintf("checkout %s", id)); err != nil {
		return err
	}
	return nil
}

// SetWorkspaceCommit points the named workspace at an arbitrary existing
// commit without touching the working copy. This is the supported way to
// park a workspace on a commit constructed directly through builders (for
// example a synthetic merge commit).
func (r *Repository) SetWorkspaceCommit(ctx context.Context, workspace string, id object.CommitID) error {
	if workspace == "" {
		return fmt.Errorf("set workspace commit: empty workspace name")
	}
	if _, ok, err := r.store.ReadCommit(ctx, id); err != nil {
		return fmt.Errorf("set workspace commit: %w", err)
	} else if !ok {
		return fmt.Errorf("set workspace commit: commit %s: %w", id, ErrNotFound)
	}

	tx := r.StartTransaction()
	tx.SetWorkspace(workspace, id)
	if _, err := tx.Commit(ctx, fmt.Sprintf("point workspace %s at %s", workspace, id)); err != nil {
		return err
	}
	return nil
}
