// Package view holds the repository's pointer state as an immutable value.
// The only mutable state in the whole engine is which *View a Repository
// currently points at; a View itself is never modified after construction.
package view

import (
	"github.com/strata-vcs/strata/pkg/object"
)

// View is a snapshot of every pointer in the repository: named branches,
// per-workspace checked-out commits, and the head (leaf) commit set.
//
// The maps are exposed for reading; callers must treat them as frozen and go
// through the With* helpers for changes, each of which returns a new View.
type View struct {
	Branches   map[string]object.CommitID
	Workspaces map[string]object.CommitID
	Heads      map[object.CommitID]struct{}
}

// New returns an empty View.
func New() *View {
	return &View{
		Branches:   make(map[string]object.CommitID),
		Workspaces: make(map[string]object.CommitID),
		Heads:      make(map[object.CommitID]struct{}),
	}
}

// Clone returns a deep copy.
func (v *View) Clone() *View {
	out := &View{
		Branches:   make(map[string]object.CommitID, len(v.Branches)),
		Workspaces: make(map[string]object.CommitID, len(v.Workspaces)),
		Heads:      make(map[object.CommitID]struct{}, len(v.Heads)),
	}
	for name, id := range v.Branches {
		out.Branches[name] = id
	}
	for name, id := range v.Workspaces {
		out.Workspaces[name] = id
	}
	for id := range v.Heads {
		out.Heads[id] = struct{}{}
	}
	return out
}

// WithBranch returns a copy with the named branch pointing at id.
func (v *View) WithBranch(name string, id object.CommitID) *View {
	out := v.Clone()
	out.Branches[name] = id
	return out
}

// WithBranchDeleted returns a copy without the named branch.
func (v *View) WithBranchDeleted(name string) *View {
	out := v.Clone()
	delete(out.Branches, name)
	return out
}

// WithWorkspace returns a copy with the named workspace checked out at id.
func (v *View) WithWorkspace(name string, id object.CommitID) *View {
	out := v.Clone()
	out.Workspaces[name] = id
	return out
}

// WithHead returns a copy with id added to the head set.
func (v *View) WithHead(id object.CommitID) *View {
	out := v.Clone()
	out.Heads[id] = struct{}{}
	return out
}

// WithHeadReplaced returns a copy where old is removed from the head set and
// repl added. Used when a new leaf commit supersedes its parent as a head.
func (v *View) WithHeadReplaced(old, repl object.CommitID) *View {
	out := v.Clone()
	delete(out.Heads, old)
	out.Heads[repl] = struct{}{}
	return out
}

// Rewritten returns a copy with the substitution map applied to every
// pointer: any branch, workspace or head whose commit id appears as a key is
// moved to the mapped id. Pointers not named in subs are untouched.
func (v *View) Rewritten(subs map[object.CommitID]object.CommitID) *View {
	if len(subs) == 0 {
		return v.Clone()
	}
	out := v.Clone()
	for name, id := range out.Branches {
		if repl, ok := subs[id]; ok {
			out.Branches[name] = repl
		}
	}
	for name, id := range out.Workspaces {
		if repl, ok := subs[id]; ok {
			out.Workspaces[name] = repl
		}
	}
	for id := range subs {
		if _, ok := out.Heads[id]; ok {
			delete(out.Heads, id)
			out.Heads[subs[id]] = struct{}{}
		}
	}
	return out
}

// AllPointerTargets returns every commit id referenced by the view, without
// duplicates. These are the roots from which reachable history is walked.
func (v *View) AllPointerTargets() []object.CommitID {
	seen := make(map[object.CommitID]struct{})
	var out []object.CommitID
	add := func(id object.CommitID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range v.Branches {
		add(id)
	}
	for _, id := range v.Workspaces {
		add(id)
	}
	for id := range v.Heads {
		add(id)
	}
	return out
}

// Equal reports whether two views hold identical pointer state.
func (v *View) Equal(o *View) bool {
	if len(v.Branches) != len(o.Branches) ||
		len(v.Workspaces) != len(o.Workspaces) ||
		len(v.Heads) != len(o.Heads) {
		return false
	}
	for name, id := range v.Branches {
		if o.Branches[name] != id {
			return false
		}
	}
	for name, id := range v.Workspaces {
		if o.Workspaces[name] != id {
			return false
		}
	}
	for id := range v.Heads {
		if _, ok := o.Heads[id]; !ok {
			return false
		}
	}
	return true
}
