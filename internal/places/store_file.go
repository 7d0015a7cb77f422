package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore persists the cache as a JSON object of key to name, with null for
// coordinates that resolved to nothing.
type FileStore struct {
	*MemoryStore
	path string
}

// OpenFileStore loads path. A missing file yields an empty store; an unreadable
// or corrupt one yields a CacheIOError.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{MemoryStore: NewMemoryStore(), path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, &CacheIOError{Op: "open", Path: path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}

	var raw map[string]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &CacheIOError{Op: "load", Path: path, Err: err}
	}

	entries := make(map[string]string, len(raw))
	for key, name := range raw {
		if name == nil {
			entries[key] = ""
			continue
		}
		entries[key] = *name
	}
	s.load(entries)
	return s, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Flush rewrites the whole file atomically when anything changed.
func (s *FileStore) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &CacheIOError{Op: "flush", Path: s.path, Err: err}
	}
	written := s.pending()
	if len(written) == 0 {
		return nil
	}

	raw := make(map[string]*string, s.Len())
	for key, name := range s.All() {
		if name == "" {
			raw[key] = nil
			continue
		}
		n := name
		raw[key] = &n
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return &CacheIOError{Op: "flush", Path: s.path, Err: err}
	}

	if err := writeFileAtomic(s.path, buf.Bytes()); err != nil {
		return &CacheIOError{Op: "flush", Path: s.path, Err: err}
	}

	s.markClean(written)
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".places-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
