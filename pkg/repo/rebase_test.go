package repo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/strata-vcs/strata/pkg/object"
	"github.com/strata-vcs/strata/pkg/repopath"
)

// helper: buildCommit writes the given files as a tree and creates a commit
// with explicit parents inside tx.
func buildCommit(t *testing.T, tx *Transaction, parents []object.CommitID, files map[string]string, desc string) object.CommitID {
	t.Helper()
	ctx := context.Background()
	store := tx.repo.store

	flat := make(map[repopath.RepoPath]object.FileContentID, len(files))
	for name, content := range files {
		fid, err := store.WriteFileContent(ctx, &object.FileContent{Data: []byte(content)})
		if err != nil {
			t.Fatalf("WriteFileContent(%s): %v", name, err)
		}
		flat[repopath.MustParse(name)] = fid
	}
	treeID, err := writeTreeFromFlat(ctx, store, flat)
	if err != nil {
		t.Fatalf("writeTreeFromFlat: %v", err)
	}

	_, id, err := tx.NewCommit().
		SetParents(parents).
		SetRootTree(treeID).
		SetAuthor(testUser).
		SetTimestamp(1700000000).
		SetDescription(desc).
		Write(ctx)
	if err != nil {
		t.Fatalf("Write(%s): %v", desc, err)
	}
	return id
}

// Test 1: describing a mid-history commit rewrites it and rebases its
// descendants; trees and descendant descriptions are preserved.
func TestDescribe_RebasesLinearDescendants(t *testing.T) {
	ctx := context.Background()
	r, fs := newTestRepo(t)
	commitFile(t, r, fs, "a.txt", "a\n", "A")
	b := commitFile(t, r, fs, "b.txt", "b\n", "B")
	c := commitFile(t, r, fs, "c.txt", "c\n", "C")

	if _, err := r.Describe(ctx, b, "B v2", testUser); err != nil {
		t.Fatalf("Describe: %v", err)
	}

	cPrime := workspaceCommit(t, r)
	if cPrime == c {
		t.Fatal("descendant was not rebased")
	}
	cc := mustReadCommit(t, r, cPrime)
	if cc.Description != "C" {
		t.Errorf("rebased description = %q, want C", cc.Description)
	}
	if len(cc.Parents) != 1 {
		t.Fatalf("rebased parents = %v", cc.Parents)
	}

	bPrime := mustReadCommit(t, r, cc.Parents[0])
	if bPrime.Description != "B v2" {
		t.Errorf("rewritten description = %q, want B v2", bPrime.Description)
	}
	if bPrime.RootTreeID != mustReadCommit(t, r, b).RootTreeID {
		t.Error("describe changed the rewritten commit's tree")
	}
	if cc.RootTreeID != mustReadCommit(t, r, c).RootTreeID {
		t.Error("rebase changed the descendant's tree")
	}

	// The superseded commits stay readable; nothing is deleted.
	if _, ok, err := r.Store().ReadCommit(ctx, c); err != nil || !ok {
		t.Errorf("original descendant unreadable: ok=%v err=%v", ok, err)
	}
}

// Test 2: every pointer kind referencing rewritten history moves.
func TestDescribe_MovesAllPointers(t *testing.T) {
	ctx := context.Background()
	r, fs := newTestRepo(t)
	a := commitFile(t, r, fs, "a.txt", "a\n", "A")
	b := commitFile(t, r, fs, "b.txt", "b\n", "B")
	if _, err := r.SetBranch(ctx, "feat", a); err != nil {
		t.Fatalf("SetBranch feat: %v", err)
	}
	if _, err := r.SetBranch(ctx, "main", b); err != nil {
		t.Fatalf("SetBranch main: %v", err)
	}

	if _, err := r.Describe(ctx, a, "A v2", testUser); err != nil {
		t.Fatalf("Describe: %v", err)
	}

	v := r.CurrentView()
	if v.Branches["feat"] == a {
		t.Error("branch on the rewritten commit did not move")
	}
	if mustReadCommit(t, r, v.Branches["feat"]).Description != "A v2" {
		t.Error("branch does not point at the rewritten commit")
	}
	if v.Branches["main"] == b {
		t.Error("branch on the descendant did not move")
	}
	if v.Workspaces[DefaultWorkspace] != v.Branches["main"] {
		t.Error("workspace and branch disagree after rebase")
	}
	if _, ok := v.Heads[b]; ok {
		t.Error("stale head survived")
	}
	if _, ok := v.Heads[v.Branches["main"]]; !ok {
		t.Error("rebased head missing")
	}
}

// Test 3: a rewrite that changes nothing hashes to the same id and moves no
// pointers.
func TestDescribe_NoOp(t *testing.T) {
	ctx := context.Background()
	r, fs := newTestRepo(t)
	b := commitFile(t, r, fs, "b.txt", "b\n", "B")

	if _, err := r.Describe(ctx, b, "B", testUser); err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if workspaceCommit(t, r) != b {
		t.Error("no-op describe moved the workspace")
	}
}

// Test 4: rebasing carries through a fork and its merge; the merge keeps
// both (rewritten) parents.
func TestRebase_ThroughMerge(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t)
	rootID := workspaceCommit(t, r)

	tx := r.StartTransaction()
	a := buildCommit(t, tx, []object.CommitID{rootID}, map[string]string{"base.txt": "base\n"}, "A")
	c := buildCommit(t, tx, []object.CommitID{a}, map[string]string{"base.txt": "base\n", "c.txt": "c\n"}, "C")
	d := buildCommit(t, tx, []object.CommitID{a}, map[string]string{"base.txt": "base\n", "d.txt": "d\n"}, "D")
	e := buildCommit(t, tx, []object.CommitID{c, d}, map[string]string{"base.txt": "base\n", "c.txt": "c\n", "d.txt": "d\n"}, "E")
	tx.SetWorkspace(DefaultWorkspace, e)
	tx.ReplaceHead(rootID, e)
	if _, err := tx.Commit(ctx, "build fork and merge"); err != nil {
		t.Fatalf("tx Commit: %v", err)
	}

	if _, err := r.Describe(ctx, a, "A v2", testUser); err != nil {
		t.Fatalf("Describe: %v", err)
	}

	ePrime := workspaceCommit(t, r)
	if ePrime == e {
		t.Fatal("merge commit was not rebased")
	}
	ec := mustReadCommit(t, r, ePrime)
	if len(ec.Parents) != 2 {
		t.Fatalf("rebased merge has %d parents, want 2", len(ec.Parents))
	}
	if ec.Parents[0] == c || ec.Parents[1] == d {
		t.Error("merge parents were not rewritten")
	}
	for _, p := range ec.Parents {
		pc := mustReadCommit(t, r, p)
		if len(pc.Parents) != 1 {
			t.Fatalf("rebased side has %d parents", len(pc.Parents))
		}
		if mustReadCommit(t, r, pc.Parents[0]).Description != "A v2" {
			t.Error("rebased side does not sit on the rewritten fork point")
		}
	}

	paths := treePaths(t, r, ePrime)
	for _, want := range []string{"base.txt", "c.txt", "d.txt"} {
		if !paths[want] {
			t.Errorf("rebased merge tree missing %s (have %v)", want, paths)
		}
	}
}

// Test 5: content added by a rewritten ancestor appears in rebased
// descendants, merged with their own changes.
func TestRebase_PropagatesTreeChanges(t *testing.T) {
	ctx := context.Background()
	r, fs := newTestRepo(t)
	a := commitFile(t, r, fs, "a.txt", "one\n", "A")
	commitFile(t, r, fs, "b.txt", "b\n", "B")

	// Rewrite A to also carry extra.txt.
	tx := r.StartTransaction()
	oldA := mustReadCommit(t, r, a)
	flat, err := flattenTree(ctx, r.Store(), oldA.RootTreeID)
	if err != nil {
		t.Fatalf("flattenTree: %v", err)
	}
	fid, err := r.Store().WriteFileContent(ctx, &object.FileContent{Data: []byte("extra\n")})
	if err != nil {
		t.Fatalf("WriteFileContent: %v", err)
	}
	flat[repopath.MustParse("extra.txt")] = fid
	newTree, err := writeTreeFromFlat(ctx, r.Store(), flat)
	if err != nil {
		t.Fatalf("writeTreeFromFlat: %v", err)
	}
	if _, _, err := tx.RewriteCommit(oldA).SetRootTree(newTree).Write(ctx); err != nil {
		t.Fatalf("RewriteCommit: %v", err)
	}
	if _, err := tx.Commit(ctx, "amend A"); err != nil {
		t.Fatalf("tx Commit: %v", err)
	}

	paths := treePaths(t, r, workspaceCommit(t, r))
	for _, want := range []string{"a.txt", "b.txt", "extra.txt"} {
		if !paths[want] {
			t.Errorf("rebased tree missing %s (have %v)", want, paths)
		}
	}
}

// Test 6: when the rewritten ancestor and the descendant edited the same
// lines, the rebased file carries conflict markers with both sides.
func TestRebase_ConflictMarkers(t *testing.T) {
	ctx := context.Background()
	r, fs := newTestRepo(t)
	a := commitFile(t, r, fs, "f.txt", "line1\n", "A")
	commitFile(t, r, fs, "f.txt", "child edit\n", "B")

	tx := r.StartTransaction()
	oldA := mustReadCommit(t, r, a)
	fid, err := r.Store().WriteFileContent(ctx, &object.FileContent{Data: []byte("ancestor edit\n")})
	if err != nil {
		t.Fatalf("WriteFileContent: %v", err)
	}
	newTree, err := writeTreeFromFlat(ctx, r.Store(),
		map[repopath.RepoPath]object.FileContentID{repopath.MustParse("f.txt"): fid})
	if err != nil {
		t.Fatalf("writeTreeFromFlat: %v", err)
	}
	if _, _, err := tx.RewriteCommit(oldA).SetRootTree(newTree).Write(ctx); err != nil {
		t.Fatalf("RewriteCommit: %v", err)
	}
	if _, err := tx.Commit(ctx, "amend A content"); err != nil {
		t.Fatalf("tx Commit: %v", err)
	}

	merged := treeFileString(t, r, workspaceCommit(t, r), "f.txt")
	for _, marker := range []string{"<<<<<<< ours", "child edit", "=======", "ancestor edit", ">>>>>>> theirs"} {
		if !strings.Contains(merged, marker) {
			t.Errorf("merged file missing %q:\n%s", marker, merged)
		}
	}
}

// Test 7: squash collapses a commit into its parent; later descendants are
// rebased onto the combined commit.
func TestSquash(t *testing.T) {
	ctx := context.Background()
	r, fs := newTestRepo(t)
	a := commitFile(t, r, fs, "a.txt", "a\n", "A")
	commitFile(t, r, fs, "b.txt", "b\n", "B")
	c := commitFile(t, r, fs, "c.txt", "c\n", "C")
	d := commitFile(t, r, fs, "d.txt", "d\n", "D")

	if _, err := r.Squash(ctx, c, testUser); err != nil {
		t.Fatalf("Squash: %v", err)
	}

	dPrime := workspaceCommit(t, r)
	if dPrime == d {
		t.Fatal("descendant of the squashed commit was not rebased")
	}
	dc := mustReadCommit(t, r, dPrime)
	if len(dc.Parents) != 1 {
		t.Fatalf("rebased parents = %v", dc.Parents)
	}

	squashed := mustReadCommit(t, r, dc.Parents[0])
	if squashed.Description != "B" {
		t.Errorf("squashed description = %q, want the parent's", squashed.Description)
	}
	if len(squashed.Parents) != 1 || squashed.Parents[0] != a {
		t.Errorf("squashed parents = %v, want [%s]", squashed.Parents, a)
	}

	paths := treePaths(t, r, dc.Parents[0])
	for _, want := range []string{"a.txt", "b.txt", "c.txt"} {
		if !paths[want] {
			t.Errorf("squashed tree missing %s (have %v)", want, paths)
		}
	}
	if paths["d.txt"] {
		t.Error("squashed tree contains the descendant's file")
	}
	if dPaths := treePaths(t, r, dPrime); !dPaths["d.txt"] {
		t.Error("rebased descendant lost its own file")
	}

	// The collapsed commits are unreachable from pointers but still stored.
	if _, ok, err := r.Store().ReadCommit(ctx, c); err != nil || !ok {
		t.Errorf("squashed commit unreadable: ok=%v err=%v", ok, err)
	}
}

// Test 8: squashing one side of a merge collapses both of the merge's
// parents onto the squashed commit; the rebased merge carries the surviving
// parent once, not twice.
func TestRebase_SquashMergeSideCollapsesParents(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t)
	rootID := workspaceCommit(t, r)

	tx := r.StartTransaction()
	b := buildCommit(t, tx, []object.CommitID{rootID}, map[string]string{"b.txt": "b\n"}, "B")
	c := buildCommit(t, tx, []object.CommitID{b}, map[string]string{"b.txt": "b\n", "c.txt": "c\n"}, "C")
	e := buildCommit(t, tx, []object.CommitID{b, c}, map[string]string{"b.txt": "b\n", "c.txt": "c\n"}, "E")
	tx.SetWorkspace(DefaultWorkspace, e)
	tx.ReplaceHead(rootID, e)
	if _, err := tx.Commit(ctx, "build merge"); err != nil {
		t.Fatalf("tx Commit: %v", err)
	}

	if _, err := r.Squash(ctx, c, testUser); err != nil {
		t.Fatalf("Squash: %v", err)
	}

	ePrime := workspaceCommit(t, r)
	if ePrime == e {
		t.Fatal("merge commit was not rebased")
	}
	ec := mustReadCommit(t, r, ePrime)
	if len(ec.Parents) != 1 {
		t.Fatalf("rebased merge has %d parents, want the converged parent once: %v", len(ec.Parents), ec.Parents)
	}

	squashed := mustReadCommit(t, r, ec.Parents[0])
	if squashed.Description != "B" {
		t.Errorf("converged parent description = %q, want the squash target's parent's", squashed.Description)
	}
	if len(squashed.Parents) != 1 || squashed.Parents[0] != rootID {
		t.Errorf("converged parent parents = %v, want [%s]", squashed.Parents, rootID)
	}
	paths := treePaths(t, r, ec.Parents[0])
	if !paths["b.txt"] || !paths["c.txt"] {
		t.Errorf("converged parent tree = %v, want both files", paths)
	}

	// The collapsed commit stays usable by later rewrites: a builder-based
	// rewrite of the rebased merge must pass validation.
	tx = r.StartTransaction()
	if _, _, err := tx.RewriteCommit(ec).SetDescription("E v2").Write(ctx); err != nil {
		t.Fatalf("rewriting the rebased merge: %v", err)
	}
}

// Test 9: rebasing a merge whose fork point gained new content merges every
// side's tree in turn; the result carries the ancestor's addition and both
// sides' own files.
func TestRebase_MergeCombinesTreeChanges(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t)
	rootID := workspaceCommit(t, r)

	tx := r.StartTransaction()
	a := buildCommit(t, tx, []object.CommitID{rootID}, map[string]string{"base.txt": "base\n"}, "A")
	c := buildCommit(t, tx, []object.CommitID{a}, map[string]string{"base.txt": "base\n", "c.txt": "c\n"}, "C")
	d := buildCommit(t, tx, []object.CommitID{a}, map[string]string{"base.txt": "base\n", "d.txt": "d\n"}, "D")
	e := buildCommit(t, tx, []object.CommitID{c, d}, map[string]string{"base.txt": "base\n", "c.txt": "c\n", "d.txt": "d\n"}, "E")
	tx.SetWorkspace(DefaultWorkspace, e)
	tx.ReplaceHead(rootID, e)
	if _, err := tx.Commit(ctx, "build fork and merge"); err != nil {
		t.Fatalf("tx Commit: %v", err)
	}

	// Amend the fork point's tree so every rebased commit must reconcile
	// real tree changes, the merge against both of its sides.
	tx = r.StartTransaction()
	oldA := mustReadCommit(t, r, a)
	flat, err := flattenTree(ctx, r.Store(), oldA.RootTreeID)
	if err != nil {
		t.Fatalf("flattenTree: %v", err)
	}
	fid, err := r.Store().WriteFileContent(ctx, &object.FileContent{Data: []byte("extra\n")})
	if err != nil {
		t.Fatalf("WriteFileContent: %v", err)
	}
	flat[repopath.MustParse("extra.txt")] = fid
	newTree, err := writeTreeFromFlat(ctx, r.Store(), flat)
	if err != nil {
		t.Fatalf("writeTreeFromFlat: %v", err)
	}
	if _, _, err := tx.RewriteCommit(oldA).SetRootTree(newTree).Write(ctx); err != nil {
		t.Fatalf("RewriteCommit: %v", err)
	}
	if _, err := tx.Commit(ctx, "amend fork point"); err != nil {
		t.Fatalf("tx Commit: %v", err)
	}

	ePrime := workspaceCommit(t, r)
	ec := mustReadCommit(t, r, ePrime)
	if len(ec.Parents) != 2 {
		t.Fatalf("rebased merge has %d parents, want 2", len(ec.Parents))
	}
	for _, p := range ec.Parents {
		paths := treePaths(t, r, p)
		if !paths["extra.txt"] {
			t.Errorf("rebased side %s missing the ancestor's file (have %v)", short8(p), paths)
		}
	}
	paths := treePaths(t, r, ePrime)
	for _, want := range []string{"base.txt", "c.txt", "d.txt", "extra.txt"} {
		if !paths[want] {
			t.Errorf("rebased merge tree missing %s (have %v)", want, paths)
		}
	}
}

func short8(id object.CommitID) string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// Test 10: squash needs exactly one parent.
func TestSquash_RequiresSingleParent(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t)
	rootID := workspaceCommit(t, r)

	if _, err := r.Squash(ctx, rootID, testUser); err == nil {
		t.Error("squashing the root commit succeeded")
	}
	bogus := object.ComputeCommitID(&object.Commit{Description: "ghost"})
	if _, err := r.Squash(ctx, bogus, testUser); !errors.Is(err, ErrNotFound) {
		t.Errorf("Squash(unknown) error = %v, want ErrNotFound", err)
	}
}
