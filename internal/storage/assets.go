// Package storage persists face-image assets on the local filesystem and
// hands out the path references stored on operator records.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// AssetStore writes decoded image bytes under a base directory.
type AssetStore struct {
	dir string
}

// NewAssetStore creates the store and ensures the directory exists.
func NewAssetStore(dir string) (*AssetStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &AssetStore{dir: dir}, nil
}

// Dir returns the base directory, used to mount static file serving.
func (s *AssetStore) Dir() string {
	return s.dir
}

// Save writes data for the given operator and returns the stored path
// reference. File names carry a timestamp so a re-synced image replaces the
// reference without clobbering a file another reader may still hold open.
func (s *AssetStore) Save(operatorID string, data []byte) (string, error) {
	name := fmt.Sprintf("%s_%s.jpg", operatorID, time.Now().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write asset: %w", err)
	}
	return path, nil
}

// Load reads the asset bytes behind a stored path reference.
func (s *AssetStore) Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read asset: %w", err)
	}
	return data, nil
}
