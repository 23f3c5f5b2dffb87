package object

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/klauspost/compress/zstd"
)

// FileStore keeps loose objects with a 2-character fan-out directory layout:
// objects/ab/cdef0123... Envelopes are zstd-compressed on disk. Writes are
// atomic: data goes to a temp file which is then renamed into place.
//
// The store works against any billy filesystem, so tests can run it fully
// in memory.
type FileStore struct {
	typedStore
	fs  billy.Filesystem
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewFileStore creates a FileStore rooted at fs. The objects/ subdirectory
// is created lazily on first write.
func NewFileStore(fs billy.Filesystem) (*FileStore, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("file store: zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("file store: zstd decoder: %w", err)
	}
	s := &FileStore{fs: fs, enc: enc, dec: dec}
	s.raw = s
	return s, nil
}

func (s *FileStore) objectPath(id string) string {
	return s.fs.Join("objects", id[:2], id[2:])
}

func (s *FileStore) put(ctx context.Context, id string, env []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Fast path: already exists. Content-addressed, so no rewrite needed.
	if _, err := s.fs.Stat(s.objectPath(id)); err == nil {
		return nil
	}

	dir := s.fs.Join("objects", id[:2])
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	tmp, err := s.fs.TempFile(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(s.enc.EncodeAll(env, nil)); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("close: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.objectPath(id)); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (s *FileStore) get(ctx context.Context, id string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	f, err := s.fs.Open(s.objectPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	compressed, err := io.ReadAll(f)
	if err != nil {
		return nil, false, err
	}
	env, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
	}
	return env, true, nil
}
