package repo

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/strata-vcs/strata/pkg/object"
	"github.com/strata-vcs/strata/pkg/view"
)

// Transaction is an isolated batch of object writes and pointer updates.
// Nothing it does is visible through the repository until Commit succeeds;
// a transaction that is simply dropped has no effect beyond some unreachable
// objects in the content-addressed store.
//
// Objects written through builders go straight into the shared store (safe
// before commit, store writes are pure content-addressed puts) while pointer
// changes accumulate on the transaction's pending view.
type Transaction struct {
	repo      *Repository
	base      *view.View // isolation baseline captured at start
	pending   *view.View
	rewrites  map[object.CommitID]object.CommitID
	committed bool
}

// StartTransaction begins a transaction whose baseline is the current view.
func (r *Repository) StartTransaction() *Transaction {
	base := r.CurrentView()
	return &Transaction{
		repo:     r,
		base:     base,
		pending:  base.Clone(),
		rewrites: make(map[object.CommitID]object.CommitID),
	}
}

// PendingView exposes the transaction's uncommitted pointer state.
func (tx *Transaction) PendingView() *view.View {
	return tx.pending
}

// SetBranch points a branch at a commit in the pending view.
func (tx *Transaction) SetBranch(name string, id object.CommitID) {
	tx.pending = tx.pending.WithBranch(name, id)
}

// DeleteBranch removes a branch from the pending view.
func (tx *Transaction) DeleteBranch(name string) {
	tx.pending = tx.pending.WithBranchDeleted(name)
}

// SetWorkspace points a workspace at a commit in the pending view.
func (tx *Transaction) SetWorkspace(name string, id object.CommitID) {
	tx.pending = tx.pending.WithWorkspace(name, id)
}

// ReplaceHead swaps one head for another in the pending view, used when a
// new leaf commit supersedes its parent.
func (tx *Transaction) ReplaceHead(old, repl object.CommitID) {
	tx.pending = tx.pending.WithHeadReplaced(old, repl)
}

// RecordRewrite registers an old→new commit substitution directly. Builders
// created via RewriteCommit record their substitution automatically; this
// hook exists for operations like squash where two old commits collapse
// into one new one.
func (tx *Transaction) RecordRewrite(old, repl object.CommitID) {
	if old != repl {
		tx.rewrites[old] = repl
	}
}

// Commit finishes the transaction: it rebases every descendant of the
// rewritten commits, applies the full substitution map to all pointers, and
// atomically swaps the repository's current view. On any error the
// repository is left exactly as it was.
func (tx *Transaction) Commit(ctx context.Context, opDescription string) (string, error) {
	if tx.committed {
		return "", ErrTransactionCommitted
	}

	roots := append(tx.base.AllPointerTargets(), tx.pending.AllPointerTargets()...)
	subs, err := rebaseDescendants(ctx, tx.repo.store, roots, tx.rewrites)
	if err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	next := tx.pending.Rewritten(subs)

	tx.repo.commitMu.Lock()
	defer tx.repo.commitMu.Unlock()

	if tx.repo.current.Load() != tx.base {
		return "", fmt.Errorf("commit transaction: %w", ErrStaleTransaction)
	}
	if err := view.Save(tx.repo.meta, viewFileName, next); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	tx.repo.current.Store(next)
	tx.committed = true

	return newOperationID(opDescription, next), nil
}

// newOperationID derives an opaque operation identifier from the operation
// description, the resulting view and the wall clock. It is a hook for an
// external undo/history layer, not a persisted log entry.
func newOperationID(description string, v *view.View) string {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	fmt.Fprintf(h, "%s\x00%d\x00", description, time.Now().UnixNano())
	if data, err := view.Marshal(v); err == nil {
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))
}
