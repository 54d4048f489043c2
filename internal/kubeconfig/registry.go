// Package kubeconfig owns the named kubeconfig sources an operator has
// imported: the name→path registry, the storage directory holding the
// imported files, and the error taxonomy shared with client construction.
package kubeconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"sigs.k8s.io/yaml"
)

// IndexFileName is the registry index kept inside the storage directory
const IndexFileName = "registry.yaml"

var errClosed = errors.New("registry is closed")

// Entry is one registered kubeconfig
type Entry struct {
	Name     string `json:"name"`
	FilePath string `json:"filePath"`
}

// index is the on-disk shape of the registry
type index struct {
	Entries []Entry `json:"entries"`
}

// Registry maps names to kubeconfig paths. Every operation holds the same
// mutex, so readers and writers never overlap. The lock is held for the map
// access and the index write only.
type Registry struct {
	mu        sync.Mutex
	entries   map[string]string
	indexPath string // empty keeps the registry in memory only
	closed    bool
}

// NewRegistry returns an empty in-memory registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]string)}
}

// OpenRegistry loads the registry persisted at indexPath. A missing file
// yields an empty registry that will be written on the first mutation.
func OpenRegistry(indexPath string) (*Registry, error) {
	r := &Registry{
		entries:   make(map[string]string),
		indexPath: indexPath,
	}

	data, err := os.ReadFile(indexPath)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, StorageError(fmt.Errorf("failed to read %s: %w", indexPath, err))
	}

	var idx index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, StorageError(fmt.Errorf("failed to parse %s: %w", indexPath, err))
	}
	for _, e := range idx.Entries {
		if e.Name == "" {
			continue
		}
		r.entries[e.Name] = e.FilePath
	}

	return r, nil
}

// Put registers path under name, replacing any previous path
func (r *Registry) Put(name, path string) error {
	if name == "" {
		return InvalidContentError("", errors.New("name cannot be empty"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return StorageError(errClosed)
	}

	previous, existed := r.entries[name]
	r.entries[name] = path

	if err := r.persist(); err != nil {
		if existed {
			r.entries[name] = previous
		} else {
			delete(r.entries, name)
		}
		return err
	}
	return nil
}

// Get returns the path registered under name
func (r *Registry) Get(name string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return "", false, StorageError(errClosed)
	}

	path, ok := r.entries[name]
	return path, ok, nil
}

// Remove unregisters name. Removing a missing name returns false, not an error.
func (r *Registry) Remove(name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, StorageError(errClosed)
	}

	previous, ok := r.entries[name]
	if !ok {
		return false, nil
	}
	delete(r.entries, name)

	if err := r.persist(); err != nil {
		r.entries[name] = previous
		return false, err
	}
	return true, nil
}

// ListNames returns the registered names in alphabetical order
func (r *Registry) ListNames() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, StorageError(errClosed)
	}

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Entries returns every entry sorted by name
func (r *Registry) Entries() ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, StorageError(errClosed)
	}
	return r.sortedEntries(), nil
}

// Close makes every later operation fail with a storage error
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// sortedEntries must be called with r.mu held
func (r *Registry) sortedEntries() []Entry {
	entries := make([]Entry, 0, len(r.entries))
	for name, path := range r.entries {
		entries = append(entries, Entry{Name: name, FilePath: path})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// persist writes the index atomically. Must be called with r.mu held.
func (r *Registry) persist() error {
	if r.indexPath == "" {
		return nil
	}

	data, err := yaml.Marshal(index{Entries: r.sortedEntries()})
	if err != nil {
		return StorageError(fmt.Errorf("failed to encode registry: %w", err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.indexPath), ".registry-*.yaml")
	if err != nil {
		return StorageError(fmt.Errorf("failed to create temp index: %w", err))
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return StorageError(fmt.Errorf("failed to write index: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return StorageError(fmt.Errorf("failed to write index: %w", err))
	}
	if err := os.Rename(tmp.Name(), r.indexPath); err != nil {
		return StorageError(fmt.Errorf("failed to replace index: %w", err))
	}
	return nil
}
