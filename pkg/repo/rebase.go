package repo

import (
	"context"
	"fmt"

	"github.com/strata-vcs/strata/pkg/object"
)

// rebaseDescendants propagates a set of direct old→new commit substitutions
// through the whole graph: every transitive descendant of a rewritten
// commit is itself rewritten onto the substituted parents, and the returned
// map holds the complete substitution set (direct rewrites plus every
// rebased descendant).
//
// roots are the commit ids every reachable commit hangs off (all pointer
// targets of the views involved). Descendants are processed in topological
// order so a merge commit is only rewritten once all of its parents are
// resolved; a descendant left unresolved after the walk fails the whole
// operation, because partially rebasing a graph is never acceptable.
func rebaseDescendants(ctx context.Context, store object.Store, roots []object.CommitID, rewrites map[object.CommitID]object.CommitID) (map[object.CommitID]object.CommitID, error) {
	subs := make(map[object.CommitID]object.CommitID, len(rewrites))
	for old, repl := range rewrites {
		subs[old] = repl
	}
	if len(subs) == 0 {
		return subs, nil
	}

	commits, children, err := loadGraph(ctx, store, roots)
	if err != nil {
		return nil, err
	}

	// Forward BFS from the rewritten commits: everything reachable through
	// child edges needs rebasing, except the directly rewritten commits
	// themselves.
	toRewrite := make(map[object.CommitID]struct{})
	queue := make([]object.CommitID, 0, len(rewrites))
	for old := range rewrites {
		queue = append(queue, old)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			if _, seen := toRewrite[child]; seen {
				continue
			}
			if _, direct := rewrites[child]; direct {
				continue
			}
			toRewrite[child] = struct{}{}
			queue = append(queue, child)
		}
	}

	// Topological pass: a descendant is ready once none of its parents is
	// still waiting to be rewritten.
	pending := make(map[object.CommitID]int, len(toRewrite)) // unresolved parent count
	var ready []object.CommitID
	for id := range toRewrite {
		n := 0
		for _, p := range commits[id].Parents {
			if _, waiting := toRewrite[p]; waiting {
				n++
			}
		}
		pending[id] = n
		if n == 0 {
			ready = append(ready, id)
		}
	}

	done := 0
	for len(ready) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := ready[0]
		ready = ready[1:]

		newID, err := rewriteOnto(ctx, store, commits[id], subs)
		if err != nil {
			return nil, fmt.Errorf("rebase %s: %w", id, err)
		}
		subs[id] = newID
		done++

		for _, child := range children[id] {
			if _, waiting := toRewrite[child]; !waiting {
				continue
			}
			pending[child]--
			if pending[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	if done != len(toRewrite) {
		return nil, fmt.Errorf("rebase: %d descendants left with unresolved parents", len(toRewrite)-done)
	}
	return subs, nil
}

// loadGraph walks parent links backward from roots and returns every
// reachable commit plus a child index (reverse-parent edges).
func loadGraph(ctx context.Context, store object.Store, roots []object.CommitID) (map[object.CommitID]*object.Commit, map[object.CommitID][]object.CommitID, error) {
	commits := make(map[object.CommitID]*object.Commit)
	children := make(map[object.CommitID][]object.CommitID)

	stack := make([]object.CommitID, 0, len(roots))
	seen := make(map[object.CommitID]struct{}, len(roots))
	for _, id := range roots {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		stack = append(stack, id)
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c, ok, err := store.ReadCommit(ctx, id)
		if err != nil {
			return nil, nil, fmt.Errorf("load graph: %w", err)
		}
		if !ok {
			return nil, nil, fmt.Errorf("load graph: commit %s: %w", id, ErrNotFound)
		}
		commits[id] = c

		for _, p := range c.Parents {
			children[p] = append(children[p], id)
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			stack = append(stack, p)
		}
	}
	return commits, children, nil
}

// rewriteOnto produces the rebased version of one commit: parents mapped
// through subs, and the tree re-derived so the commit's own changes sit on
// top of each rewritten parent.
//
// Per changed parent the tree is a three-way merge with the old parent's
// tree as base: the commit's tree is a full snapshot already carrying its
// own edits over the old parent, so the merge keeps those edits and folds in
// whatever the new parent introduced. For merge commits each changed side is
// reconciled in turn against the running result. Parents that converge on
// the same substituted id (a squash collapsing one side of a merge into the
// other) are deduplicated after each side's tree contribution is folded in,
// so the rebased commit stays structurally valid.
func rewriteOnto(ctx context.Context, store object.Store, c *object.Commit, subs map[object.CommitID]object.CommitID) (object.CommitID, error) {
	out := c.Clone()
	tree := c.RootTreeID

	parents := make([]object.CommitID, 0, len(c.Parents))
	seen := make(map[object.CommitID]struct{}, len(c.Parents))

	for _, oldParent := range c.Parents {
		newParent, changed := subs[oldParent]
		if !changed {
			newParent = oldParent
		} else {
			oldTree, err := commitTree(ctx, store, oldParent)
			if err != nil {
				return "", err
			}
			newTree, err := commitTree(ctx, store, newParent)
			if err != nil {
				return "", err
			}
			tree, err = mergeTrees(ctx, store, oldTree, tree, newTree)
			if err != nil {
				return "", err
			}
		}
		if _, dup := seen[newParent]; !dup {
			seen[newParent] = struct{}{}
			parents = append(parents, newParent)
		}
	}
	out.Parents = parents
	out.RootTreeID = tree

	id, err := store.WriteCommit(ctx, out)
	if err != nil {
		return "", err
	}
	return id, nil
}

func commitTree(ctx context.Context, store object.Store, id object.CommitID) (object.TreeID, error) {
	c, ok, err := store.ReadCommit(ctx, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("commit %s: %w", id, ErrNotFound)
	}
	return c.RootTreeID, nil
}
