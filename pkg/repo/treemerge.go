package repo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/strata-vcs/strata/pkg/diff3"
	"github.com/strata-vcs/strata/pkg/object"
	"github.com/strata-vcs/strata/pkg/repopath"
)

// flattenTree walks a tree recursively and returns every file keyed by its
// full repository path.
func flattenTree(ctx context.Context, store object.Store, id object.TreeID) (map[repopath.RepoPath]object.FileContentID, error) {
	out := make(map[repopath.RepoPath]object.FileContentID)
	if err := flattenTreeRec(ctx, store, id, repopath.Root, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenTreeRec(ctx context.Context, store object.Store, id object.TreeID, prefix repopath.RepoPath, out map[repopath.RepoPath]object.FileContentID) error {
	tree, ok, err := store.ReadTree(ctx, id)
	if err != nil {
		return fmt.Errorf("flatten tree: %w", err)
	}
	if !ok {
		return fmt.Errorf("flatten tree: tree %s: %w", id, ErrNotFound)
	}
	for _, e := range tree.Entries {
		p, err := prefix.Join(e.Name)
		if err != nil {
			return fmt.Errorf("flatten tree %s: %w", id, err)
		}
		if e.IsDir {
			if err := flattenTreeRec(ctx, store, e.SubtreeID, p, out); err != nil {
				return err
			}
			continue
		}
		out[p] = e.FileID
	}
	return nil
}

// writeTreeFromFlat converts a flat path→file map into nested tree objects,
// writing each tree to the store and returning the root id. An empty map
// yields the empty tree.
func writeTreeFromFlat(ctx context.Context, store object.Store, files map[repopath.RepoPath]object.FileContentID) (object.TreeID, error) {
	byPath := make(map[string]object.FileContentID, len(files))
	for p, id := range files {
		byPath[p.String()] = id
	}
	return writeTreeDir(ctx, store, byPath, "")
}

func writeTreeDir(ctx context.Context, store object.Store, files map[string]object.FileContentID, prefix string) (object.TreeID, error) {
	// Collect direct children: file names and immediate subdirectory names.
	direct := make(map[string]object.FileContentID)
	subdirs := make(map[string]struct{})

	for p, id := range files {
		rel := p
		if prefix != "" {
			if !strings.HasPrefix(p, prefix+"/") {
				continue
			}
			rel = p[len(prefix)+1:]
		}
		if slash := strings.IndexByte(rel, '/'); slash < 0 {
			direct[rel] = id
		} else {
			subdirs[rel[:slash]] = struct{}{}
		}
	}

	names := make([]string, 0, len(direct)+len(subdirs))
	for name := range direct {
		names = append(names, name)
	}
	for name := range subdirs {
		// Merging can propose the same name as both a file and a directory
		// (one side replaced a file with a directory). Writing either one
		// would silently discard the other's content, so refuse.
		if _, isFile := direct[name]; isFile {
			full := name
			if prefix != "" {
				full = prefix + "/" + name
			}
			return "", fmt.Errorf("write tree: %q is both a file and a directory", full)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var entries []object.TreeEntry
	for _, name := range names {
		if id, isFile := direct[name]; isFile {
			entries = append(entries, object.TreeEntry{Name: name, FileID: id})
			continue
		}
		childPrefix := name
		if prefix != "" {
			childPrefix = prefix + "/" + name
		}
		subID, err := writeTreeDir(ctx, store, files, childPrefix)
		if err != nil {
			return "", fmt.Errorf("write tree %q: %w", childPrefix, err)
		}
		entries = append(entries, object.TreeEntry{Name: name, IsDir: true, SubtreeID: subID})
	}

	id, err := store.WriteTree(ctx, &object.Tree{Entries: entries})
	if err != nil {
		return "", fmt.Errorf("write tree (prefix=%q): %w", prefix, err)
	}
	return id, nil
}

// mergeTrees performs a directory-entry-level three-way merge and writes the
// resulting tree. base is the region both sides diverged from: during a
// rebase it is the old parent's tree, ours the rebased commit's own tree,
// theirs the new parent's tree.
//
// Per path: one-sided changes win; delete-vs-modify keeps the modified side
// (a rebase must not drop the surviving side's edit); double-sided content
// edits fall through to a line-level diff3 merge whose conflicts are
// embedded as markers in the written blob.
func mergeTrees(ctx context.Context, store object.Store, base, ours, theirs object.TreeID) (object.TreeID, error) {
	// Degenerate cases need no flattening.
	if ours == theirs || base == theirs {
		return ours, nil
	}
	if base == ours {
		return theirs, nil
	}

	baseFiles, err := flattenTree(ctx, store, base)
	if err != nil {
		return "", fmt.Errorf("merge trees: %w", err)
	}
	oursFiles, err := flattenTree(ctx, store, ours)
	if err != nil {
		return "", fmt.Errorf("merge trees: %w", err)
	}
	theirsFiles, err := flattenTree(ctx, store, theirs)
	if err != nil {
		return "", fmt.Errorf("merge trees: %w", err)
	}

	merged := make(map[repopath.RepoPath]object.FileContentID)
	for _, p := range collectPaths(baseFiles, oursFiles, theirsFiles) {
		b, inBase := baseFiles[p]
		o, inOurs := oursFiles[p]
		t, inTheirs := theirsFiles[p]

		switch {
		case inOurs && inTheirs:
			if o == t {
				merged[p] = o
				continue
			}
			if inBase && o == b {
				merged[p] = t
				continue
			}
			if inBase && t == b {
				merged[p] = o
				continue
			}
			// Both sides changed the content. Line-level merge.
			id, err := mergeFileContents(ctx, store, p, b, inBase, o, t)
			if err != nil {
				return "", err
			}
			merged[p] = id

		case inOurs && !inTheirs:
			if inBase && o == b {
				// Deleted by theirs, untouched by ours: stays deleted.
				continue
			}
			merged[p] = o

		case !inOurs && inTheirs:
			if inBase && t == b {
				// Deleted by ours, untouched by theirs: stays deleted.
				continue
			}
			merged[p] = t

			// Present only in base: deleted on both sides, stays deleted.
		}
	}

	return writeTreeFromFlat(ctx, store, merged)
}

func mergeFileContents(ctx context.Context, store object.Store, p repopath.RepoPath, baseID object.FileContentID, inBase bool, oursID, theirsID object.FileContentID) (object.FileContentID, error) {
	var baseData []byte
	if inBase {
		f, ok, err := store.ReadFileContent(ctx, baseID)
		if err != nil {
			return "", fmt.Errorf("merge %q: read base: %w", p, err)
		}
		if !ok {
			return "", fmt.Errorf("merge %q: base blob %s: %w", p, baseID, ErrNotFound)
		}
		baseData = f.Data
	}
	oursFile, ok, err := store.ReadFileContent(ctx, oursID)
	if err != nil {
		return "", fmt.Errorf("merge %q: read ours: %w", p, err)
	}
	if !ok {
		return "", fmt.Errorf("merge %q: blob %s: %w", p, oursID, ErrNotFound)
	}
	theirsFile, ok, err := store.ReadFileContent(ctx, theirsID)
	if err != nil {
		return "", fmt.Errorf("merge %q: read theirs: %w", p, err)
	}
	if !ok {
		return "", fmt.Errorf("merge %q: blob %s: %w", p, theirsID, ErrNotFound)
	}

	result := diff3.Merge(baseData, oursFile.Data, theirsFile.Data)
	id, err := store.WriteFileContent(ctx, &object.FileContent{Data: result.Merged})
	if err != nil {
		return "", fmt.Errorf("merge %q: write merged: %w", p, err)
	}
	return id, nil
}

func collectPaths(maps ...map[repopath.RepoPath]object.FileContentID) []repopath.RepoPath {
	seen := make(map[repopath.RepoPath]struct{})
	for _, m := range maps {
		for p := range m {
			seen[p] = struct{}{}
		}
	}
	out := make([]repopath.RepoPath, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
