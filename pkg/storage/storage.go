package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dtnitsch/vacancy-watch/models"
	"github.com/dtnitsch/vacancy-watch/pkg/logger"
)

// SeenFile keeps the seen set as a flat JSON array of strings.
type SeenFile struct {
	path string
	log  logger.Logger
}

func NewSeenFile(path string, log logger.Logger) *SeenFile {
	if log == nil {
		log = logger.NewNop()
	}
	return &SeenFile{path: path, log: log}
}

func (s *SeenFile) Path() string {
	return s.path
}

// Load returns the stored set. A missing, unreadable or malformed file
// yields an empty set.
func (s *SeenFile) Load(_ context.Context) models.SeenSet {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("seen file unreadable, starting empty", logger.String("path", s.path), logger.Error(err))
		}
		return models.NewSeenSet()
	}

	var links []string
	if err := json.Unmarshal(data, &links); err != nil {
		s.log.Warn("seen file malformed, starting empty", logger.String("path", s.path), logger.Error(err))
		return models.NewSeenSet()
	}
	return models.NewSeenSet(links...)
}

// Save overwrites the file with the sorted set.
func (s *SeenFile) Save(_ context.Context, set models.SeenSet) error {
	data, err := json.MarshalIndent(set.Sorted(), "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding seen set: %w", err)
	}
	data = append(data, '\n')
	return SaveFile(s.path, data)
}

// SaveFile writes content to a temp file next to filePath and renames it
// into place, so readers see either the old or the new file.
func SaveFile(filePath string, content []byte) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("error saving file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("error syncing file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error closing file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error setting file mode: %w", err)
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error replacing file: %w", err)
	}
	return nil
}

// HasFile reports whether something exists at path.
func HasFile(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}
