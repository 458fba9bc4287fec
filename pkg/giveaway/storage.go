package giveaway

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// Storage persists the full giveaway list
type Storage interface {
	Load() ([]*Giveaway, error)
	Save(giveaways []*Giveaway) error
}

// FileStorage keeps the giveaways in one JSON file
type FileStorage struct {
	Path string
	mu   sync.Mutex
}

// NewFileStorage creates a storage backed by path
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{Path: path}
}

// Load reads the file. A missing file is an empty list.
func (s *FileStorage) Load() ([]*Giveaway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var giveaways []*Giveaway
	if err := json.Unmarshal(data, &giveaways); err != nil {
		return nil, err
	}
	return giveaways, nil
}

// Save replaces the file through a temporary one
func (s *FileStorage) Save(giveaways []*Giveaway) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if giveaways == nil {
		giveaways = []*Giveaway{}
	}
	data, err := json.MarshalIndent(giveaways, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}
