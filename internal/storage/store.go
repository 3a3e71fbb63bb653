// Package storage abstracts where document source bytes live.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/complytrack/compliance-tracker/internal/common"
)

// ErrFileNotFound reports that a document's stored file is gone.
var ErrFileNotFound = errors.New("document file not found")

// Store fetches the raw bytes of a stored document.
type Store interface {
	Fetch(ctx context.Context, storagePath string) ([]byte, error)
}

// LocalStore reads documents from a directory on the local filesystem.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	if root == "" {
		root = "./storage"
	}
	return &LocalStore{root: root}
}

// Fetch reads the file at root/storagePath. Path traversal outside the root
// is rejected as invalid input.
func (s *LocalStore) Fetch(_ context.Context, storagePath string) ([]byte, error) {
	clean := filepath.Clean(storagePath)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("%w: storage path %q", common.ErrInvalidInput, storagePath)
	}
	full := filepath.Join(s.root, clean)
	b, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, full)
		}
		return nil, fmt.Errorf("read %s: %w", full, err)
	}
	return b, nil
}
