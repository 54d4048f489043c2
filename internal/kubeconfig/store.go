package kubeconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"k8s.io/client-go/tools/clientcmd"
)

const (
	// DefaultDirName is the storage directory under the user's home
	DefaultDirName = ".kboard/kubeconfigs"

	fileExt = ".yaml"
)

var sanitizer = strings.NewReplacer("/", "_", `\`, "_", ":", "_")

// Sanitize turns a registry name into a safe file name stem
func Sanitize(name string) string {
	return sanitizer.Replace(name)
}

// DefaultDir returns the storage directory under the user's home
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", IOError("", fmt.Errorf("failed to resolve home directory: %w", err))
	}
	return filepath.Join(home, DefaultDirName), nil
}

// ContextInfo holds context metadata from a kubeconfig
type ContextInfo struct {
	Name      string
	Cluster   string
	User      string
	Namespace string
	Current   bool
}

// Store keeps imported kubeconfig files in one directory, one file per
// registered name, and records them in a Registry.
type Store struct {
	dir      string
	registry *Registry
}

// NewStore opens (creating if needed) the storage directory dir. Kubeconfig
// files found in the directory but missing from the index are registered
// under their file name stem.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, StorageError(fmt.Errorf("failed to create %s: %w", dir, err))
	}

	registry, err := OpenRegistry(filepath.Join(dir, IndexFileName))
	if err != nil {
		return nil, err
	}

	s := &Store{dir: dir, registry: registry}
	if err := s.adoptOrphans(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the storage directory
func (s *Store) Dir() string {
	return s.dir
}

// Registry returns the registry backing the store
func (s *Store) Registry() *Registry {
	return s.registry
}

// Import copies the kubeconfig at source into the storage directory and
// registers it under name.
func (s *Store) Import(name, source string) (Entry, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return Entry{}, IOError(source, err)
	}
	return s.ImportBytes(name, data)
}

// ImportBytes validates data as a kubeconfig, writes it to the storage
// directory and registers it under name. Re-importing a name overwrites it;
// a different name that sanitizes to the same file is refused.
func (s *Store) ImportBytes(name string, data []byte) (Entry, error) {
	if strings.TrimSpace(name) == "" {
		return Entry{}, InvalidContentError("", errors.New("name cannot be empty"))
	}
	if err := Validate(data); err != nil {
		return Entry{}, InvalidContentError(name, err)
	}

	path := filepath.Join(s.dir, Sanitize(name)+fileExt)
	owner, err := s.owner(path, name)
	if err != nil {
		return Entry{}, err
	}
	if owner != "" {
		return Entry{}, InvalidContentError(name, fmt.Errorf("%s is already stored as %s", owner, filepath.Base(path)))
	}

	previous, readErr := os.ReadFile(path)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return Entry{}, IOError(path, err)
	}

	if err := s.registry.Put(name, path); err != nil {
		// leave the directory as it was so the next open adopts nothing new
		if readErr == nil {
			_ = os.WriteFile(path, previous, 0o600)
		} else {
			_ = os.Remove(path)
		}
		return Entry{}, err
	}
	return Entry{Name: name, FilePath: path}, nil
}

// Delete unregisters name and removes its file when the file lives in the
// storage directory and no other name points at it. Files registered from
// elsewhere are left alone.
func (s *Store) Delete(name string) (bool, error) {
	path, ok, err := s.registry.Get(name)
	if err != nil || !ok {
		return false, err
	}

	removed, err := s.registry.Remove(name)
	if err != nil || !removed {
		return removed, err
	}

	if filepath.Dir(path) != filepath.Clean(s.dir) {
		return true, nil
	}
	if owner, err := s.owner(path, name); err != nil || owner != "" {
		return true, err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return true, IOError(path, err)
	}
	return true, nil
}

// owner returns the registered name other than except whose file is path
func (s *Store) owner(path, except string) (string, error) {
	entries, err := s.registry.Entries()
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.Name != except && filepath.Clean(e.FilePath) == filepath.Clean(path) {
			return e.Name, nil
		}
	}
	return "", nil
}

// Contexts lists the contexts inside the kubeconfig registered as name
func (s *Store) Contexts(name string) ([]*ContextInfo, error) {
	path, ok, err := s.registry.Get(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFoundError(name)
	}
	return Contexts(path)
}

// adoptOrphans registers *.yaml files that are not in the index yet
func (s *Store) adoptOrphans() error {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return StorageError(fmt.Errorf("failed to list %s: %w", s.dir, err))
	}

	entries, err := s.registry.Entries()
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		known[filepath.Clean(e.FilePath)] = true
	}

	for _, f := range files {
		if f.IsDir() || f.Name() == IndexFileName || filepath.Ext(f.Name()) != fileExt || strings.HasPrefix(f.Name(), ".") {
			continue
		}
		path := filepath.Join(s.dir, f.Name())
		if known[path] {
			continue
		}
		name := strings.TrimSuffix(f.Name(), fileExt)
		if _, taken, _ := s.registry.Get(name); taken {
			continue
		}
		if err := s.registry.Put(name, path); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that data decodes as a kubeconfig naming at least one
// cluster or context
func Validate(data []byte) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return errors.New("file is empty")
	}
	config, err := clientcmd.Load(data)
	if err != nil {
		return err
	}
	if len(config.Clusters) == 0 && len(config.Contexts) == 0 {
		return errors.New("no clusters or contexts defined")
	}
	return nil
}

// Contexts loads the kubeconfig at path and lists its contexts sorted by name
func Contexts(path string) ([]*ContextInfo, error) {
	config, err := clientcmd.LoadFromFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, FileNotFoundError(path)
		}
		return nil, InvalidContentError(path, err)
	}

	contexts := make([]*ContextInfo, 0, len(config.Contexts))
	for name, ctx := range config.Contexts {
		contexts = append(contexts, &ContextInfo{
			Name:      name,
			Cluster:   ctx.Cluster,
			User:      ctx.AuthInfo,
			Namespace: ctx.Namespace,
			Current:   name == config.CurrentContext,
		})
	}

	// Map iteration order is random; keep positions stable for the picker
	sort.Slice(contexts, func(i, j int) bool {
		return contexts[i].Name < contexts[j].Name
	})

	return contexts, nil
}
