// Package repo implements the repository façade: an object store plus one
// atomically swappable pointer snapshot (the view), with all mutation
// funneled through transactions that rebase the descendants of rewritten
// commits.
package repo

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/go-git/go-billy/v5"

	"github.com/strata-vcs/strata/pkg/object"
	"github.com/strata-vcs/strata/pkg/view"
)

const (
	// MetaDir is the repository metadata directory under the root.
	MetaDir = ".strata"

	// DefaultWorkspace is the workspace created by Init.
	DefaultWorkspace = "default"

	viewFileName   = "view"
	configFileName = "config.toml"
	boltFileName   = "objects.db"
)

var (
	// ErrNotFound reports an operation given a commit id, branch or
	// workspace that does not exist. Distinct from a store miss: a store
	// miss is a normal outcome, ErrNotFound is caller misuse.
	ErrNotFound = errors.New("not found")

	// ErrRepoExists reports Init on an already-initialized directory.
	ErrRepoExists = errors.New("repository already exists")

	// ErrNotRepo reports Open on a directory with no repository.
	ErrNotRepo = errors.New("not a strata repository")

	// ErrStaleTransaction reports a transaction commit whose baseline view
	// is no longer the repository's current view.
	ErrStaleTransaction = errors.New("transaction baseline is stale")

	// ErrTransactionCommitted reports reuse of a committed transaction.
	ErrTransactionCommitted = errors.New("transaction already committed")
)

// Repository is an opened strata repository. The current view is the only
// mutable state; it is held behind an atomic pointer so concurrent readers
// always observe a complete view, never a partial one. Writers serialize on
// commitMu around the view swap.
type Repository struct {
	fs    billy.Filesystem // repository root (working copy)
	meta  billy.Filesystem // MetaDir
	store object.Store
	cfg   Config

	current  atomic.Pointer[view.View]
	commitMu sync.Mutex

	storeCloser io.Closer // set for backends holding an open file
}

// CurrentView returns the current pointer snapshot. The returned value is
// immutable and stays coherent even while later transactions commit.
func (r *Repository) CurrentView() *view.View {
	return r.current.Load()
}

// Store exposes the repository's object store.
func (r *Repository) Store() object.Store {
	return r.store
}

// Config returns the repository configuration read at open time.
func (r *Repository) Config() Config {
	return r.cfg
}

// Close releases store resources. The repository must not be used after.
func (r *Repository) Close() error {
	if r.storeCloser != nil {
		return r.storeCloser.Close()
	}
	return nil
}
