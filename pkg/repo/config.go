package repo

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-git/go-billy/v5"
)

// UserSettings identifies the author of a mutation. It is passed explicitly
// into every mutating call and never stored as ambient state, so concurrent
// mutations with different identities cannot cross-contaminate.
type UserSettings struct {
	Name  string
	Email string
}

// String renders the canonical author form "Name <email>".
func (u UserSettings) String() string {
	return fmt.Sprintf("%s <%s>", u.Name, u.Email)
}

// Storage backends selectable in config.
const (
	BackendFiles = "files"
	BackendBolt  = "bolt"
)

// Config is the repository-local configuration stored in
// .strata/config.toml.
type Config struct {
	User    UserConfig    `toml:"user"`
	Storage StorageConfig `toml:"storage"`
}

// UserConfig holds default author identity.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// StorageConfig selects the object store backend.
type StorageConfig struct {
	Backend string `toml:"backend"`
}

// UserSettings converts the configured defaults into per-call settings.
func (c Config) UserSettings() UserSettings {
	return UserSettings{Name: c.User.Name, Email: c.User.Email}
}

func (c Config) backend() string {
	if c.Storage.Backend == "" {
		return BackendFiles
	}
	return c.Storage.Backend
}

func readConfig(fs billy.Filesystem, path string) (Config, error) {
	f, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", ErrNotRepo)
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config: unmarshal: %w", err)
	}
	switch cfg.backend() {
	case BackendFiles, BackendBolt:
	default:
		return Config{}, fmt.Errorf("read config: unknown storage backend %q", cfg.Storage.Backend)
	}
	return cfg, nil
}

func writeConfig(fs billy.Filesystem, path string, cfg Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write config: close: %w", err)
	}
	return nil
}
