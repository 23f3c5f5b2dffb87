package repo

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"

	"github.com/strata-vcs/strata/pkg/object"
	"github.com/strata-vcs/strata/pkg/repopath"
)

var testUser = UserSettings{Name: "Test", Email: "test@example.com"}

// helper: newTestRepo creates an in-memory repository.
func newTestRepo(t *testing.T) (*Repository, billy.Filesystem) {
	t.Helper()
	fs := memfs.New()
	r, err := Init(context.Background(), fs, testUser, InitOptions{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r, fs
}

// helper: writeWorkFile writes a file into the working copy.
func writeWorkFile(t *testing.T, fs billy.Filesystem, name, content string) {
	t.Helper()
	if err := writeFile(fs, name, []byte(content)); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// helper: commitFile writes one file and commits it.
func commitFile(t *testing.T, r *Repository, fs billy.Filesystem, name, content, desc string) object.CommitID {
	t.Helper()
	writeWorkFile(t, fs, name, content)
	id, err := r.Commit(context.Background(), desc, testUser, SnapshotOptions{})
	if err != nil {
		t.Fatalf("Commit(%s): %v", desc, err)
	}
	return id
}

// helper: mustReadCommit reads a commit that must exist.
func mustReadCommit(t *testing.T, r *Repository, id object.CommitID) *object.Commit {
	t.Helper()
	c, ok, err := r.Store().ReadCommit(context.Background(), id)
	if err != nil || !ok {
		t.Fatalf("ReadCommit(%s): ok=%v err=%v", id, ok, err)
	}
	return c
}

// helper: workspaceCommit returns the default workspace's current commit id.
func workspaceCommit(t *testing.T, r *Repository) object.CommitID {
	t.Helper()
	id, ok := r.CurrentView().Workspaces[DefaultWorkspace]
	if !ok {
		t.Fatal("default workspace missing")
	}
	return id
}

// helper: treeFileString reads the content of one file inside a commit's
// tree, failing if the path is absent.
func treeFileString(t *testing.T, r *Repository, id object.CommitID, path string) string {
	t.Helper()
	ctx := context.Background()
	c := mustReadCommit(t, r, id)
	files, err := flattenTree(ctx, r.Store(), c.RootTreeID)
	if err != nil {
		t.Fatalf("flattenTree: %v", err)
	}
	fid, ok := files[repopath.MustParse(path)]
	if !ok {
		t.Fatalf("commit %s has no file %q (files: %v)", id, path, files)
	}
	f, ok, err := r.Store().ReadFileContent(ctx, fid)
	if err != nil || !ok {
		t.Fatalf("ReadFileContent: ok=%v err=%v", ok, err)
	}
	return string(f.Data)
}

// helper: treePaths returns the sorted file paths of a commit's tree.
func treePaths(t *testing.T, r *Repository, id object.CommitID) map[string]bool {
	t.Helper()
	c := mustReadCommit(t, r, id)
	files, err := flattenTree(context.Background(), r.Store(), c.RootTreeID)
	if err != nil {
		t.Fatalf("flattenTree: %v", err)
	}
	out := make(map[string]bool, len(files))
	for p := range files {
		out[p.String()] = true
	}
	return out
}
