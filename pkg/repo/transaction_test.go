package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/strata-vcs/strata/pkg/object"
	"github.com/strata-vcs/strata/pkg/view"
)

// Test 1: objects written through a builder stay invisible until the
// transaction commits; the current view and the persisted view are
// untouched.
func TestTransaction_Isolation(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t)
	before := r.CurrentView()
	rootID := workspaceCommit(t, r)
	rootTree := mustReadCommit(t, r, rootID).RootTreeID

	tx := r.StartTransaction()
	_, staged, err := tx.NewCommit().
		SetParents([]object.CommitID{rootID}).
		SetRootTree(rootTree).
		SetAuthor(testUser).
		SetTimestamp(time.Now().Unix()).
		SetDescription("staged").
		Write(ctx)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	tx.SetWorkspace(DefaultWorkspace, staged)

	if !r.CurrentView().Equal(before) {
		t.Error("uncommitted transaction changed the current view")
	}
	persisted, err := view.Load(r.meta, viewFileName)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !persisted.Equal(before) {
		t.Error("uncommitted transaction changed the persisted view")
	}

	// The staged object itself is readable; content-addressed writes are
	// safe before commit.
	if _, ok, err := r.Store().ReadCommit(ctx, staged); err != nil || !ok {
		t.Errorf("staged commit unreadable: ok=%v err=%v", ok, err)
	}
}

// Test 2: abandoning a transaction is a no-op.
func TestTransaction_Abandon(t *testing.T) {
	r, _ := newTestRepo(t)
	before := r.CurrentView()

	tx := r.StartTransaction()
	tx.SetBranch("doomed", workspaceCommit(t, r))
	tx = nil // dropped without Commit
	_ = tx

	if !r.CurrentView().Equal(before) {
		t.Error("abandoned transaction changed the view")
	}
}

// Test 3: a transaction whose baseline was superseded fails with
// ErrStaleTransaction and changes nothing.
func TestTransaction_StaleBaseline(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t)
	rootID := workspaceCommit(t, r)

	tx1 := r.StartTransaction()
	tx2 := r.StartTransaction()

	tx2.SetBranch("winner", rootID)
	if _, err := tx2.Commit(ctx, "tx2"); err != nil {
		t.Fatalf("tx2 Commit: %v", err)
	}

	tx1.SetBranch("loser", rootID)
	if _, err := tx1.Commit(ctx, "tx1"); !errors.Is(err, ErrStaleTransaction) {
		t.Errorf("tx1 Commit error = %v, want ErrStaleTransaction", err)
	}

	v := r.CurrentView()
	if _, ok := v.Branches["winner"]; !ok {
		t.Error("winning branch missing")
	}
	if _, ok := v.Branches["loser"]; ok {
		t.Error("stale transaction leaked a branch")
	}
}

// Test 4: a committed transaction cannot commit again.
func TestTransaction_DoubleCommit(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t)

	tx := r.StartTransaction()
	tx.SetBranch("b", workspaceCommit(t, r))
	if _, err := tx.Commit(ctx, "first"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := tx.Commit(ctx, "second"); !errors.Is(err, ErrTransactionCommitted) {
		t.Errorf("second Commit error = %v, want ErrTransactionCommitted", err)
	}
}

// Test 5: builders reject structurally invalid commits before anything is
// written.
func TestCommitBuilder_Validation(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t)
	rootID := workspaceCommit(t, r)
	rootTree := mustReadCommit(t, r, rootID).RootTreeID
	bogusCommit := object.ComputeCommitID(&object.Commit{Description: "ghost"})
	bogusTree := object.ComputeTreeID(&object.Tree{Entries: []object.TreeEntry{{
		Name: "x", FileID: object.ComputeFileContentID(&object.FileContent{Data: []byte("x")}),
	}}})

	tx := r.StartTransaction()

	if _, _, err := tx.NewCommit().SetRootTree(bogusTree).Write(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("dangling tree error = %v, want ErrNotFound", err)
	}
	if _, _, err := tx.NewCommit().SetRootTree(rootTree).
		SetParents([]object.CommitID{bogusCommit}).Write(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown parent error = %v, want ErrNotFound", err)
	}
	if _, _, err := tx.NewCommit().SetRootTree(rootTree).
		SetParents([]object.CommitID{rootID, rootID}).Write(ctx); err == nil {
		t.Error("duplicate parents accepted")
	}
}

// Test 6: each commit returns a distinct operation id.
func TestTransaction_OperationIDs(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t)
	rootID := workspaceCommit(t, r)

	op1, err := r.SetBranch(ctx, "a", rootID)
	if err != nil {
		t.Fatalf("SetBranch: %v", err)
	}
	op2, err := r.SetBranch(ctx, "b", rootID)
	if err != nil {
		t.Fatalf("SetBranch: %v", err)
	}
	if op1 == "" || op2 == "" || op1 == op2 {
		t.Errorf("operation ids: %q, %q", op1, op2)
	}
}
