package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/strata-vcs/strata/pkg/object"
)

// Commit snapshots the working copy and records it as a new commit on the
// default workspace. The new commit's single parent is the workspace's
// current commit; the workspace pointer and head set move to the new leaf.
// Branches are untouched.
//
// Committing an unchanged working copy is allowed and still produces a new
// commit (descriptions and timestamps participate in identity).
func (r *Repository) Commit(ctx context.Context, description string, settings UserSettings, opts SnapshotOptions) (object.CommitID, error) {
	tx := r.StartTransaction()

	parent, ok := tx.PendingView().Workspaces[DefaultWorkspace]
	if !ok {
		return "", fmt.Errorf("commit: workspace %q: %w", DefaultWorkspace, ErrNotFound)
	}

	treeID, err := snapshotWorkingCopy(ctx, r.fs, r.store, opts)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	_, id, err := tx.NewCommit().
		SetParents([]object.CommitID{parent}).
		SetRootTree(treeID).
		SetAuthor(settings).
		SetTimestamp(time.Now().Unix()).
		SetDescription(description).
		Write(ctx)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	tx.SetWorkspace(DefaultWorkspace, id)
	tx.ReplaceHead(parent, id)

	if _, err := tx.Commit(ctx, "commit: "+description); err != nil {
		return "", err
	}
	return id, nil
}

// Log walks history from the given commit, following first-parent links,
// returning up to limit commits newest first.
func (r *Repository) Log(ctx context.Context, from object.CommitID, limit int) ([]*object.Commit, error) {
	var out []*object.Commit
	current := from

	for len(out) < limit {
		c, ok, err := r.store.ReadCommit(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		if !ok {
			if len(out) == 0 {
				return nil, fmt.Errorf("log: commit %s: %w", current, ErrNotFound)
			}
			break
		}
		out = append(out, c)
		if len(c.Parents) == 0 {
			break
		}
		current = c.Parents[0]
	}
	return out, nil
}
