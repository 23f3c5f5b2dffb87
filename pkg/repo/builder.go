package repo

import (
	"context"
	"fmt"

	"github.com/strata-vcs/strata/pkg/object"
)

// CommitBuilder assembles a new commit inside a transaction. Builders from
// NewCommit start blank; builders from RewriteCommit start as a copy of an
// existing commit and record the old→new substitution on write.
type CommitBuilder struct {
	tx        *Transaction
	commit    *object.Commit
	isRewrite bool
	oldID     object.CommitID
}

// NewCommit returns a blank builder, used for synthetic commits such as
// merges with explicitly chosen parents.
func (tx *Transaction) NewCommit() *CommitBuilder {
	return &CommitBuilder{tx: tx, commit: &object.Commit{}}
}

// RewriteCommit returns a builder pre-populated from an existing commit.
// Writing the builder registers the substitution that will pull every
// descendant of the old commit onto the new one when the transaction
// commits.
func (tx *Transaction) RewriteCommit(old *object.Commit) *CommitBuilder {
	return &CommitBuilder{
		tx:        tx,
		commit:    old.Clone(),
		isRewrite: true,
		oldID:     object.ComputeCommitID(old),
	}
}

// SetDescription replaces the commit description.
func (b *CommitBuilder) SetDescription(description string) *CommitBuilder {
	b.commit.Description = description
	return b
}

// SetParents replaces the parent list.
func (b *CommitBuilder) SetParents(parents []object.CommitID) *CommitBuilder {
	b.commit.Parents = append([]object.CommitID(nil), parents...)
	return b
}

// SetRootTree replaces the root tree.
func (b *CommitBuilder) SetRootTree(id object.TreeID) *CommitBuilder {
	b.commit.RootTreeID = id
	return b
}

// SetAuthor replaces the author identity.
func (b *CommitBuilder) SetAuthor(settings UserSettings) *CommitBuilder {
	b.commit.Author = settings.String()
	return b
}

// SetTimestamp replaces the commit timestamp.
func (b *CommitBuilder) SetTimestamp(ts int64) *CommitBuilder {
	b.commit.Timestamp = ts
	return b
}

// Write validates the commit, stores it, and returns the stored value with
// its content id. The object is physically present in the store immediately
// but stays invisible to the repository until the transaction commits.
func (b *CommitBuilder) Write(ctx context.Context) (*object.Commit, object.CommitID, error) {
	if err := b.validate(ctx); err != nil {
		return nil, "", fmt.Errorf("write commit: %w", err)
	}

	id, err := b.tx.repo.store.WriteCommit(ctx, b.commit)
	if err != nil {
		return nil, "", fmt.Errorf("write commit: %w", err)
	}
	if b.isRewrite {
		// A rewrite that changed nothing hashes to the same id and needs no
		// substitution.
		b.tx.RecordRewrite(b.oldID, id)
	}
	return b.commit.Clone(), id, nil
}

// validate rejects structurally invalid commits before anything is written:
// a dangling tree reference or an unknown parent would corrupt the graph.
func (b *CommitBuilder) validate(ctx context.Context) error {
	store := b.tx.repo.store

	if _, ok, err := store.ReadTree(ctx, b.commit.RootTreeID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("root tree %s: %w", b.commit.RootTreeID, ErrNotFound)
	}

	seen := make(map[object.CommitID]struct{}, len(b.commit.Parents))
	for _, p := range b.commit.Parents {
		if _, dup := seen[p]; dup {
			return fmt.Errorf("duplicate parent %s", p)
		}
		seen[p] = struct{}{}
		if _, ok, err := store.ReadCommit(ctx, p); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("parent %s: %w", p, ErrNotFound)
		}
	}
	return nil
}
