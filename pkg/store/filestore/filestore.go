// Package filestore keeps goalguard state in a single YAML document.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/goalguard/pkg/store"
)

// DefaultRelPath is the location of the state file below the XDG data home.
const DefaultRelPath = "goalguard/state.yaml"

// DefaultPath returns $XDG_DATA_HOME/goalguard/state.yaml, creating the
// parent directory if needed.
func DefaultPath() (string, error) {
	return xdg.DataFile(DefaultRelPath)
}

// Backend stores every key as a top-level entry of one YAML file.
// Writes replace the file atomically (temp file + rename).
type Backend struct {
	path string
	mu   sync.Mutex
}

// New creates a backend at path. The file is created on first write.
func New(path string) (*Backend, error) {
	if path == "" {
		return nil, errors.New("filestore: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("filestore: create directory: %w", err)
	}
	return &Backend{path: path}, nil
}

// Path returns the backing file.
func (b *Backend) Path() string {
	return b.path
}

// Load implements store.Backend.
func (b *Backend) Load(_ context.Context, key string, dst any) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.read()
	if err != nil {
		return false, err
	}
	node, ok := doc[key]
	if !ok || node == nil {
		return false, nil
	}
	if err := node.Decode(dst); err != nil {
		return true, fmt.Errorf("filestore: decode %s: %w", key, err)
	}
	return true, nil
}

// Save implements store.Backend.
func (b *Backend) Save(_ context.Context, key string, value any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.read()
	if err != nil {
		return err
	}

	node := &yaml.Node{}
	if err := node.Encode(value); err != nil {
		return fmt.Errorf("filestore: encode %s: %w", key, err)
	}
	doc[key] = node

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("filestore: marshal: %w", err)
	}
	return b.write(data)
}

// Close implements store.Backend.
func (b *Backend) Close() error { return nil }

// Name implements store.Backend.
func (b *Backend) Name() string { return "file" }

func (b *Backend) read() (map[string]*yaml.Node, error) {
	doc := make(map[string]*yaml.Node)

	data, err := os.ReadFile(b.path) //#nosec G304
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("filestore: parse %s: %w", b.path, err)
	}
	if doc == nil {
		doc = make(map[string]*yaml.Node)
	}
	return doc, nil
}

func (b *Backend) write(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("filestore: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filestore: write temp: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filestore: chmod temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filestore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("filestore: replace %s: %w", b.path, err)
	}
	return nil
}

var _ store.Backend = (*Backend)(nil)
