package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

// DefaultFileName is the file a FileStore writes inside its data directory.
const DefaultFileName = "state.json"

type fileStore struct {
	mu       sync.Mutex
	filePath string
}

// NewFileStore persists all keys as one JSON object in dataDir/filename.
func NewFileStore(dataDir, filename string) (Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dataDir, err)
	}
	if filename == "" {
		filename = DefaultFileName
	}
	return &fileStore{filePath: filepath.Join(dataDir, filename)}, nil
}

func (s *fileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *fileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

func (s *fileStore) read() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return values, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.filePath, err)
	}
	if len(data) == 0 {
		return values, nil
	}

	if err := json.Unmarshal(data, &values); err != nil {
		log.Warnf("⚠️ Ignoring unreadable state file %s: %v", s.filePath, err)
		return make(map[string]string), nil
	}
	return values, nil
}

// write replaces the file through a temp file and rename so readers never see a partial file.
func (s *fileStore) write(values map[string]string) error {
	tempFile := s.filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tempFile, err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(values); err != nil {
		file.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, s.filePath)
}
