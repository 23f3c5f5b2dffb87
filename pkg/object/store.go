package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrCorrupt reports an object whose stored bytes do not parse or do not
// match their declared envelope.
var ErrCorrupt = errors.New("corrupt object")

// Store is a content-addressed object store. Writes are idempotent: writing
// content that already exists returns the existing id without a duplicate
// write. Reads report absence as ok=false with a nil error; a missing
// object is a normal outcome for callers, not a failure.
//
// There is no update or delete. That is intentional: it is what makes
// transaction isolation trivial, since a staged write can never disturb
// anything previously readable.
type Store interface {
	WriteFileContent(ctx context.Context, f *FileContent) (FileContentID, error)
	WriteTree(ctx context.Context, t *Tree) (TreeID, error)
	WriteCommit(ctx context.Context, c *Commit) (CommitID, error)

	ReadFileContent(ctx context.Context, id FileContentID) (*FileContent, bool, error)
	ReadTree(ctx context.Context, id TreeID) (*Tree, bool, error)
	ReadCommit(ctx context.Context, id CommitID) (*Commit, bool, error)
}

// backend is the raw byte-level contract the store backends implement. Keys
// are hex object ids; values are envelopes. put must be idempotent.
type backend interface {
	put(ctx context.Context, id string, envelope []byte) error
	get(ctx context.Context, id string) ([]byte, bool, error)
}

// typedStore layers object typing, serialization and id computation over a
// raw backend. All three backends share it.
type typedStore struct {
	raw backend
}

// envelope builds the on-disk form "kind len\0content".
func envelope(kind Kind, content []byte) []byte {
	header := fmt.Sprintf("%s %d\x00", kind, len(content))
	out := make([]byte, 0, len(header)+len(content))
	out = append(out, header...)
	out = append(out, content...)
	return out
}

// parseEnvelope splits an envelope into its declared kind and content,
// validating the declared length.
func parseEnvelope(id string, raw []byte) (Kind, []byte, error) {
	nul := bytes.IndexByte(raw, 0)
	if nul < 0 {
		return "", nil, fmt.Errorf("object %s: %w: no NUL separator", id, ErrCorrupt)
	}
	header := string(raw[:nul])
	content := raw[nul+1:]

	kindStr, lenStr, ok := strings.Cut(header, " ")
	if !ok {
		return "", nil, fmt.Errorf("object %s: %w: invalid header %q", id, ErrCorrupt, header)
	}
	length, err := strconv.Atoi(lenStr)
	if err != nil {
		return "", nil, fmt.Errorf("object %s: %w: invalid length %q", id, ErrCorrupt, lenStr)
	}
	if len(content) != length {
		return "", nil, fmt.Errorf("object %s: %w: length mismatch (header=%d, actual=%d)",
			id, ErrCorrupt, length, len(content))
	}
	return Kind(kindStr), content, nil
}

func (s *typedStore) write(ctx context.Context, kind Kind, content []byte) (string, error) {
	id := digest(kind, content)
	if err := s.raw.put(ctx, id, envelope(kind, content)); err != nil {
		return "", fmt.Errorf("write %s: %w", kind, err)
	}
	return id, nil
}

func (s *typedStore) read(ctx context.Context, kind Kind, id string) ([]byte, bool, error) {
	if len(id) != IDHexLen {
		return nil, false, fmt.Errorf("read %s: malformed id %q", kind, id)
	}
	raw, ok, err := s.raw.get(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("read %s %s: %w", kind, id, err)
	}
	if !ok {
		return nil, false, nil
	}
	gotKind, content, err := parseEnvelope(id, raw)
	if err != nil {
		return nil, false, err
	}
	if gotKind != kind {
		return nil, false, fmt.Errorf("object %s: %w: kind mismatch (stored %q, want %q)",
			id, ErrCorrupt, gotKind, kind)
	}
	return content, true, nil
}

func (s *typedStore) WriteFileContent(ctx context.Context, f *FileContent) (FileContentID, error) {
	id, err := s.write(ctx, KindFile, MarshalFileContent(f))
	return FileContentID(id), err
}

func (s *typedStore) WriteTree(ctx context.Context, t *Tree) (TreeID, error) {
	id, err := s.write(ctx, KindTree, MarshalTree(t))
	return TreeID(id), err
}

func (s *typedStore) WriteCommit(ctx context.Context, c *Commit) (CommitID, error) {
	id, err := s.write(ctx, KindCommit, MarshalCommit(c))
	return CommitID(id), err
}

func (s *typedStore) ReadFileContent(ctx context.Context, id FileContentID) (*FileContent, bool, error) {
	content, ok, err := s.read(ctx, KindFile, string(id))
	if err != nil || !ok {
		return nil, ok, err
	}
	f, err := UnmarshalFileContent(content)
	if err != nil {
		return nil, false, fmt.Errorf("object %s: %w: %v", id, ErrCorrupt, err)
	}
	return f, true, nil
}

func (s *typedStore) ReadTree(ctx context.Context, id TreeID) (*Tree, bool, error) {
	content, ok, err := s.read(ctx, KindTree, string(id))
	if err != nil || !ok {
		return nil, ok, err
	}
	t, err := UnmarshalTree(content)
	if err != nil {
		return nil, false, fmt.Errorf("object %s: %w: %v", id, ErrCorrupt, err)
	}
	return t, true, nil
}

func (s *typedStore) ReadCommit(ctx context.Context, id CommitID) (*Commit, bool, error) {
	content, ok, err := s.read(ctx, KindCommit, string(id))
	if err != nil || !ok {
		return nil, ok, err
	}
	c, err := UnmarshalCommit(content)
	if err != nil {
		return nil, false, fmt.Errorf("object %s: %w: %v", id, ErrCorrupt, err)
	}
	return c, true, nil
}
