package repo

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"

	"github.com/strata-vcs/strata/pkg/object"
	"github.com/strata-vcs/strata/pkg/repopath"
)

// SnapshotOptions controls how the working copy is scanned into a tree.
type SnapshotOptions struct {
	// Ignore holds glob patterns matched against both the repo-relative
	// path and the base name; matching files are left out of the snapshot.
	// The metadata directory is always ignored.
	Ignore []string
}

// CheckoutOptions controls how a tree is materialized into the working copy.
type CheckoutOptions struct {
	// KeepUntracked leaves files from the previous checkout in place even
	// when the target tree does not contain them.
	KeepUntracked bool
}

// snapshotWorkingCopy scans the working copy into blob and tree objects and
// returns the root tree id.
func snapshotWorkingCopy(ctx context.Context, fs billy.Filesystem, store object.Store, opts SnapshotOptions) (object.TreeID, error) {
	files := make(map[repopath.RepoPath]object.FileContentID)
	if err := snapshotDir(ctx, fs, store, opts, "", files); err != nil {
		return "", err
	}
	return writeTreeFromFlat(ctx, store, files)
}

func snapshotDir(ctx context.Context, fs billy.Filesystem, store object.Store, opts SnapshotOptions, dir string, files map[repopath.RepoPath]object.FileContentID) error {
	entries, err := fs.ReadDir(dirOrDot(dir))
	if err != nil {
		return fmt.Errorf("snapshot: read dir %q: %w", dir, err)
	}

	// Sorted for deterministic blob write order.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		rel := e.Name()
		if dir != "" {
			rel = dir + "/" + e.Name()
		}
		if rel == MetaDir || ignored(opts.Ignore, rel, e.Name()) {
			continue
		}

		if e.IsDir() {
			if err := snapshotDir(ctx, fs, store, opts, rel, files); err != nil {
				return err
			}
			continue
		}
		if !e.Mode().IsRegular() {
			continue
		}

		data, err := readAll(fs, rel)
		if err != nil {
			return fmt.Errorf("snapshot: read %q: %w", rel, err)
		}
		id, err := store.WriteFileContent(ctx, &object.FileContent{Data: data})
		if err != nil {
			return fmt.Errorf("snapshot: store %q: %w", rel, err)
		}
		p, err := repopath.Parse(rel)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		files[p] = id
	}
	return nil
}

// materializeTree writes the target tree's files into the working copy.
// Files present in prev but absent from target are removed unless
// KeepUntracked is set. prev may be empty.
func materializeTree(ctx context.Context, fs billy.Filesystem, store object.Store, target object.TreeID, prev object.TreeID, opts CheckoutOptions) error {
	targetFiles, err := flattenTree(ctx, store, target)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	for p, id := range targetFiles {
		f, ok, err := store.ReadFileContent(ctx, id)
		if err != nil {
			return fmt.Errorf("checkout: read blob for %q: %w", p, err)
		}
		if !ok {
			return fmt.Errorf("checkout: blob %s for %q: %w", id, p, ErrNotFound)
		}
		if err := writeFile(fs, p.String(), f.Data); err != nil {
			return fmt.Errorf("checkout: write %q: %w", p, err)
		}
	}

	if opts.KeepUntracked || prev == "" {
		return nil
	}
	prevFiles, err := flattenTree(ctx, store, prev)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	for p := range prevFiles {
		if _, stillThere := targetFiles[p]; stillThere {
			continue
		}
		if err := fs.Remove(p.String()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("checkout: remove %q: %w", p, err)
		}
	}
	return nil
}

func ignored(patterns []string, rel, base string) bool {
	for _, pat := range patterns {
		if ok, _ := path.Match(pat, rel); ok {
			return true
		}
		if ok, _ := path.Match(pat, base); ok {
			return true
		}
	}
	return false
}

func dirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

func readAll(fs billy.Filesystem, name string) ([]byte, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func writeFile(fs billy.Filesystem, name string, data []byte) error {
	if dir := path.Dir(name); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := fs.Create(name)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
