package repo

import (
	"context"
	"fmt"

	"github.com/strata-vcs/strata/pkg/object"
)

// Describe rewrites a commit's description, leaving every other field
// unchanged. Since the description participates in the content hash, this
// creates a new commit; every descendant of the old commit is rebased onto
// the new one, and every branch and workspace pointer referencing the old
// id moves with it. Returns the operation id.
func (r *Repository) Describe(ctx context.Context, id object.CommitID, newDescription string, settings UserSettings) (string, error) {
	old, ok, err := r.store.ReadCommit(ctx, id)
	if err != nil {
		return "", fmt.Errorf("describe: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("describe: commit %s: %w", id, ErrNotFound)
	}

	tx := r.StartTransaction()
	if _, _, err := tx.RewriteCommit(old).SetDescription(newDescription).Write(ctx); err != nil {
		return "", fmt.Errorf("describe: %w", err)
	}

	opID, err := tx.Commit(ctx, fmt.Sprintf("describe %s", id))
	if err != nil {
		return "", fmt.Errorf("describe: %w", err)
	}
	return opID, nil
}

// Squash combines a commit into its single parent: the squashed commit
// keeps the commit's tree (a full snapshot of the parent's content plus the
// commit's changes) but takes the parent's place in the graph. Both old
// commits collapse onto the one new commit; every other descendant of the
// squashed commit is rebased onto the result. The parent's description is
// kept. Returns the operation id.
//
// The original commits stay physically present in the store, merely
// unreachable. This engine does not reclaim objects.
func (r *Repository) Squash(ctx context.Context, id object.CommitID, settings UserSettings) (string, error) {
	return r.SquashWithDescription(ctx, id, "", settings)
}

// SquashWithDescription is Squash with an explicit description for the
// squashed commit; an empty override keeps the parent's description.
func (r *Repository) SquashWithDescription(ctx context.Context, id object.CommitID, description string, settings UserSettings) (string, error) {
	c, ok, err := r.store.ReadCommit(ctx, id)
	if err != nil {
		return "", fmt.Errorf("squash: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("squash: commit %s: %w", id, ErrNotFound)
	}
	if len(c.Parents) != 1 {
		return "", fmt.Errorf("squash: commit %s has %d parents, need exactly 1", id, len(c.Parents))
	}

	parentID := c.Parents[0]
	parent, ok, err := r.store.ReadCommit(ctx, parentID)
	if err != nil {
		return "", fmt.Errorf("squash: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("squash: parent %s: %w", parentID, ErrNotFound)
	}

	if description == "" {
		description = parent.Description
	}

	tx := r.StartTransaction()

	// The squashed commit takes the parent's place in the graph: the
	// parent's parents, the child's tree.
	_, squashedID, err := tx.NewCommit().
		SetParents(parent.Parents).
		SetRootTree(c.RootTreeID).
		SetDescription(description).
		SetAuthor(settings).
		SetTimestamp(c.Timestamp).
		Write(ctx)
	if err != nil {
		return "", fmt.Errorf("squash: %w", err)
	}

	// Both old commits collapse onto the squashed one; the rebaser fixes up
	// every remaining descendant of the child.
	tx.RecordRewrite(parentID, squashedID)
	tx.RecordRewrite(id, squashedID)

	opID, err := tx.Commit(ctx, fmt.Sprintf("squash %s into %s", id, parentID))
	if err != nil {
		return "", fmt.Errorf("squash: %w", err)
	}
	return opID, nil
}
