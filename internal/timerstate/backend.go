package timerstate

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Backend holds the single serialized blob all recipe timer states are
// multiplexed into. Implementations only ever see one opaque value; the
// recipe-id mapping lives inside it.
type Backend interface {
	// Load returns the stored blob, or ok=false when nothing has been
	// stored yet.
	Load() (data []byte, ok bool, err error)
	// Save replaces the stored blob.
	Save(data []byte) error
}

// FileBackend persists the blob as a single file on disk, the closest
// server-side analogue to a browser's local storage slot.
type FileBackend struct {
	path string
}

// NewFileBackend creates a file-backed blob store at path. The parent
// directory is created on first save.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (f *FileBackend) Load() ([]byte, bool, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read timer state file: %w", err)
	}
	return data, true, nil
}

func (f *FileBackend) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create timer state directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write timer state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace timer state file: %w", err)
	}
	return nil
}

// MemoryBackend keeps the blob in memory. Used by tests and by ephemeral
// sessions that should not outlive the process.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

func NewMemoryBackend() *MemoryBackend { return &MemoryBackend{} }

func (m *MemoryBackend) Load() ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, false, nil
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, true, nil
}

func (m *MemoryBackend) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make([]byte, len(data))
	copy(m.data, data)
	m.set = true
	return nil
}
