package object

// Kind identifies the kind of object stored.
type Kind string

const (
	KindFile   Kind = "file"
	KindTree   Kind = "tree"
	KindCommit Kind = "commit"
)

// FileContentID is a 64-character hex-encoded BLAKE2b-256 digest of a
// file-content object.
type FileContentID string

// TreeID is the content id of a tree object.
type TreeID string

// CommitID is the content id of a commit object.
type CommitID string

// FileContent holds the raw bytes of one file snapshot.
type FileContent struct {
	Data []byte
}

// TreeEntry is one entry in a tree. Exactly one of FileID and SubtreeID is
// set, depending on IsDir.
type TreeEntry struct {
	Name      string
	IsDir     bool
	FileID    FileContentID
	SubtreeID TreeID
}

// Tree is a directory snapshot: a list of entries sorted by Name. Trees are
// full snapshots, never diffs.
type Tree struct {
	Entries []TreeEntry
}

// Entry returns the entry with the given name, if present.
func (t *Tree) Entry(name string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}

// Commit is a revision. Zero parents marks a root commit, one a normal
// commit, two or more a merge. A commit's identity is the hash of its
// serialized content, so "editing" a commit always produces a new object.
type Commit struct {
	RootTreeID  TreeID
	Parents     []CommitID
	Author      string
	Timestamp   int64
	Description string
}

// Clone returns a deep copy, used by builders that seed from an existing
// commit.
func (c *Commit) Clone() *Commit {
	out := *c
	out.Parents = make([]CommitID, len(c.Parents))
	copy(out.Parents, c.Parents)
	return &out
}
