package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// DiskStore stores artifacts under a local uploads directory. The hint (for
// example "PAN Card" or the original filename) becomes a slugged subdirectory
// plus the file extension when it carries one.
type DiskStore struct {
	root string
}

// NewDiskStore creates a disk-backed store rooted at dir
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &DiskStore{root: dir}, nil
}

// Save writes content to a new file and returns its path relative to the root
func (s *DiskStore) Save(ctx context.Context, content []byte, hint string) (string, error) {
	ext := filepath.Ext(hint)
	base := strings.TrimSuffix(hint, ext)
	if base == "" {
		base = "artifact"
	}

	dir := slug.Make(base)
	if err := os.MkdirAll(filepath.Join(s.root, dir), 0755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	ref := filepath.Join(dir, uuid.New().String()+ext)
	if err := os.WriteFile(filepath.Join(s.root, ref), content, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	return ref, nil
}

// Read returns the content previously saved under ref
func (s *DiskStore) Read(ctx context.Context, ref string) ([]byte, error) {
	clean := filepath.Clean(ref)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("invalid artifact reference: %s", ref)
	}

	content, err := os.ReadFile(filepath.Join(s.root, clean))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	return content, nil
}
