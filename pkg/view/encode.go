package view

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/strata-vcs/strata/pkg/object"
)

// viewFile is the persisted msgpack form of a View. Heads are kept as a
// sorted list so the file bytes are stable for identical views.
type viewFile struct {
	Branches   map[string]string `msgpack:"branches"`
	Workspaces map[string]string `msgpack:"workspaces"`
	Heads      []string          `msgpack:"heads"`
}

// Marshal encodes a View to msgpack bytes.
func Marshal(v *View) ([]byte, error) {
	vf := viewFile{
		Branches:   make(map[string]string, len(v.Branches)),
		Workspaces: make(map[string]string, len(v.Workspaces)),
		Heads:      make([]string, 0, len(v.Heads)),
	}
	for name, id := range v.Branches {
		vf.Branches[name] = string(id)
	}
	for name, id := range v.Workspaces {
		vf.Workspaces[name] = string(id)
	}
	for id := range v.Heads {
		vf.Heads = append(vf.Heads, string(id))
	}
	sort.Strings(vf.Heads)

	data, err := msgpack.Marshal(&vf)
	if err != nil {
		return nil, fmt.Errorf("marshal view: %w", err)
	}
	return data, nil
}

// Unmarshal decodes msgpack bytes into a View.
func Unmarshal(data []byte) (*View, error) {
	var vf viewFile
	if err := msgpack.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("unmarshal view: %w", err)
	}
	v := New()
	for name, id := range vf.Branches {
		v.Branches[name] = object.CommitID(id)
	}
	for name, id := range vf.Workspaces {
		v.Workspaces[name] = object.CommitID(id)
	}
	for _, id := range vf.Heads {
		v.Heads[object.CommitID(id)] = struct{}{}
	}
	return v, nil
}

// Save atomically writes the view file at path: temp file in the same
// directory, then rename.
func Save(fs billy.Filesystem, path string, v *View) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}

	dir := "."
	if i := lastSlash(path); i >= 0 {
		dir = path[:i]
	}
	tmp, err := fs.TempFile(dir, ".view-tmp-")
	if err != nil {
		return fmt.Errorf("save view: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return fmt.Errorf("save view: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("save view: close: %w", err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("save view: rename: %w", err)
	}
	return nil
}

// Load reads the view file at path. A missing file is an error: a repository
// without a view is not a repository.
func Load(fs billy.Filesystem, path string) (*View, error) {
	f, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("load view: %s does not exist", path)
		}
		return nil, fmt.Errorf("load view: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("load view: read: %w", err)
	}
	return Unmarshal(data)
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
