package repo

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"

	"github.com/strata-vcs/strata/pkg/object"
	"github.com/strata-vcs/strata/pkg/view"
)

// InitOptions controls repository creation.
type InitOptions struct {
	// Backend selects the object store: BackendFiles (default) or
	// BackendBolt. The bolt backend needs a disk-backed filesystem.
	Backend string
}

// Init creates a new repository rooted at fs. It creates the .strata/
// layout, writes the configuration, and seeds history with a root commit
// (no parents, empty tree) checked out in the "default" workspace.
func Init(ctx context.Context, fs billy.Filesystem, settings UserSettings, opts InitOptions) (*Repository, error) {
	if _, err := fs.Stat(MetaDir); err == nil {
		return nil, fmt.Errorf("init: %w", ErrRepoExists)
	}
	if err := fs.MkdirAll(MetaDir, 0o755); err != nil {
		return nil, fmt.Errorf("init: mkdir %s: %w", MetaDir, err)
	}
	meta, err := fs.Chroot(MetaDir)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	cfg := Config{
		User:    UserConfig{Name: settings.Name, Email: settings.Email},
		Storage: StorageConfig{Backend: opts.Backend},
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendFiles
	}
	if err := writeConfig(meta, configFileName, cfg); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	store, closer, err := openStore(fs, meta, cfg)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	// Seed history: an empty tree and a root commit with no parents. Both
	// are pure content, so every repository shares the same root ids.
	emptyTree, err := store.WriteTree(ctx, &object.Tree{})
	if err != nil {
		return nil, fmt.Errorf("init: write empty tree: %w", err)
	}
	rootID, err := store.WriteCommit(ctx, &object.Commit{RootTreeID: emptyTree})
	if err != nil {
		return nil, fmt.Errorf("init: write root commit: %w", err)
	}

	v := view.New()
	v.Workspaces[DefaultWorkspace] = rootID
	v.Heads[rootID] = struct{}{}
	if err := view.Save(meta, viewFileName, v); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	r := &Repository{fs: fs, meta: meta, store: store, cfg: cfg, storeCloser: closer}
	r.current.Store(v)
	return r, nil
}

// Open opens an existing repository rooted at fs.
func Open(ctx context.Context, fs billy.Filesystem) (*Repository, error) {
	if _, err := fs.Stat(MetaDir); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open: %w", ErrNotRepo)
		}
		return nil, fmt.Errorf("open: %w", err)
	}
	meta, err := fs.Chroot(MetaDir)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	cfg, err := readConfig(meta, configFileName)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	store, closer, err := openStore(fs, meta, cfg)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	v, err := view.Load(meta, viewFileName)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	r := &Repository{fs: fs, meta: meta, store: store, cfg: cfg, storeCloser: closer}
	r.current.Store(v)
	return r, nil
}

func openStore(root, meta billy.Filesystem, cfg Config) (object.Store, io.Closer, error) {
	switch cfg.backend() {
	case BackendBolt:
		// bbolt needs a real file path; billy in-memory filesystems cannot
		// host this backend.
		path := filepath.Join(root.Root(), MetaDir, boltFileName)
		s, err := object.OpenBoltStore(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		s, err := object.NewFileStore(meta)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	}
}
