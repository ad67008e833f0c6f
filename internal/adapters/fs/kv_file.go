package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bft-labs/fishdiary/internal/ports"
)

const fileExt = ".json"

var _ ports.KVStore = (*KVFileStore)(nil)

// KVFileStore implements ports.KVStore with one file per key.
type KVFileStore struct {
	dir string
}

// NewKVFileStore creates a new KVFileStore rooted at dir.
func NewKVFileStore(dir string) *KVFileStore {
	return &KVFileStore{dir: dir}
}

// Get reads the file for key.
// Returns found=false and nil error if the file does not exist.
func (s *KVFileStore) Get(ctx context.Context, key string) (string, bool, error) {
	path, err := s.Path(key)
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Set persists value atomically.
// Uses atomic write (write to temp file, then rename) to prevent a torn blob.
func (s *KVFileStore) Set(ctx context.Context, key, value string) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o600); err != nil {
		return err
	}

	// Atomic rename
	return os.Rename(tmp, path)
}

// Path returns the full path of the file backing key.
func (s *KVFileStore) Path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid store key %q", key)
	}
	return filepath.Join(s.dir, key+fileExt), nil
}
