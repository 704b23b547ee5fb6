package registry

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/fsutil"
	"gopkg.in/yaml.v3"
)

// Store is a hierarchical key/value store. Node paths are slash separated.
type Store interface {
	Get(node, key string) (string, bool)
	Put(node, key, value string) error
	// Delete removes node and every node below it.
	Delete(node string) error
	// Children lists the names of the direct children of parent.
	Children(parent string) ([]string, error)
	Flush() error
}

// FileStore is a Store persisted as a single YAML document. A FileStore
// with an empty path lives in memory only.
type FileStore struct {
	path     string
	readOnly bool

	mu     sync.Mutex
	nodes  map[string]map[string]string
	loaded bool
	dirty  bool
}

type storeDocument struct {
	Nodes map[string]map[string]string `yaml:"nodes"`
}

// NewFileStore returns a store backed by path. The file is read on first use.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// NewReadOnlyFileStore returns a store backed by path that rejects writes.
func NewReadOnlyFileStore(path string) *FileStore {
	return &FileStore{path: path, readOnly: true}
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *FileStore {
	return &FileStore{nodes: make(map[string]map[string]string), loaded: true}
}

// Path returns the backing file, or "" for a memory store.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() error {
	if s.loaded {
		return nil
	}
	s.nodes = make(map[string]map[string]string)
	s.loaded = true

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read store %s", s.path)
	}

	var doc storeDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.Wrapf(err, "failed to parse store %s", s.path)
	}
	for node, values := range doc.Nodes {
		if values == nil {
			values = make(map[string]string)
		}
		s.nodes[cleanNode(node)] = values
	}
	return nil
}

func (s *FileStore) Get(node, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return "", false
	}
	v, ok := s.nodes[cleanNode(node)][key]
	return v, ok
}

func (s *FileStore) Put(node, key, value string) error {
	if s.readOnly {
		return errors.ErrStoreReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	node = cleanNode(node)
	values, ok := s.nodes[node]
	if !ok {
		values = make(map[string]string)
		s.nodes[node] = values
	}
	values[key] = value
	s.dirty = true
	return nil
}

func (s *FileStore) Delete(node string) error {
	if s.readOnly {
		return errors.ErrStoreReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	node = cleanNode(node)
	for path := range s.nodes {
		if path == node || strings.HasPrefix(path, node+"/") {
			delete(s.nodes, path)
			s.dirty = true
		}
	}
	return nil
}

func (s *FileStore) Children(parent string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}

	prefix := cleanNode(parent)
	if prefix != "" {
		prefix += "/"
	}
	var names []string
	for path := range s.nodes {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || rest == "" {
			continue
		}
		name, _, _ := strings.Cut(rest, "/")
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Flush writes pending changes to disk.
func (s *FileStore) Flush() error {
	if s.readOnly {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty || s.path == "" {
		s.dirty = false
		return nil
	}

	data, err := yaml.Marshal(storeDocument{Nodes: s.nodes})
	if err != nil {
		return errors.Wrap(err, "failed to encode store")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), fsutil.DirModeDefault); err != nil {
		return errors.Wrapf(err, "failed to create store directory for %s", s.path)
	}
	if err := fsutil.WriteFileAtomic(s.path, data, fsutil.FileModeDefault); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func cleanNode(node string) string {
	return strings.Trim(node, "/")
}

// Node is a view of one node of a Store with typed accessors.
type Node struct {
	store Store
	path  string
}

// NodeOf returns the node at path in store.
func NodeOf(store Store, path string) Node {
	return Node{store: store, path: cleanNode(path)}
}

// Path returns the node path.
func (n Node) Path() string { return n.path }

// Get returns the value of key, or def when unset.
func (n Node) Get(key, def string) string {
	if v, ok := n.store.Get(n.path, key); ok {
		return v
	}
	return def
}

// GetBool returns the boolean value of key, or def when unset or malformed.
func (n Node) GetBool(key string, def bool) bool {
	v, ok := n.store.Get(n.path, key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// GetInt64 returns the integer value of key, or def when unset or malformed.
func (n Node) GetInt64(key string, def int64) int64 {
	v, ok := n.store.Get(n.path, key)
	if !ok {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}

// Put stores value under key and flushes the store.
func (n Node) Put(key, value string) error {
	if err := n.store.Put(n.path, key, value); err != nil {
		return err
	}
	return n.store.Flush()
}

// PutBool stores a boolean.
func (n Node) PutBool(key string, value bool) error {
	return n.Put(key, strconv.FormatBool(value))
}

// PutInt64 stores an integer.
func (n Node) PutInt64(key string, value int64) error {
	return n.Put(key, strconv.FormatInt(value, 10))
}
