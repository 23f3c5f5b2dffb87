package object

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// IDHexLen is the length of every hex-encoded object id.
const IDHexLen = 64

// digest computes the BLAKE2b-256 of the envelope "kind len\0content" and
// returns it hex-encoded. The envelope mirrors the on-disk object format, so
// an object's id is always the hash of exactly the bytes the store persists.
func digest(kind Kind, data []byte) string {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only possible with a bad key; we pass none.
		panic(err)
	}
	fmt.Fprintf(h, "%s %d\x00", kind, len(data))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ComputeFileContentID returns the content id of a file object.
func ComputeFileContentID(f *FileContent) FileContentID {
	return FileContentID(digest(KindFile, MarshalFileContent(f)))
}

// ComputeTreeID returns the content id of a tree object.
func ComputeTreeID(t *Tree) TreeID {
	return TreeID(digest(KindTree, MarshalTree(t)))
}

// ComputeCommitID returns the content id of a commit object. Every field of
// the commit participates in the hash.
func ComputeCommitID(c *Commit) CommitID {
	return CommitID(digest(KindCommit, MarshalCommit(c)))
}
