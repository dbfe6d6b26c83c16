package repositories

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/20uf/tidy-ur-spotify/internal/models"
)

// ProgressStore persists the classification session to a JSON file.
// Every decision and undo saves the whole session; the file is small and
// the atomic write keeps interrupted runs resumable.
type ProgressStore struct {
	path string
}

// NewProgressStore creates a store backed by the file at path.
func NewProgressStore(path string) *ProgressStore {
	return &ProgressStore{path: path}
}

// Save writes the session atomically.
func (s *ProgressStore) Save(session *models.ClassificationSession) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return writeFileAtomic(s.path, data)
}

// Load reads the saved session. Returns (nil, nil) when no file exists.
func (s *ProgressStore) Load() (*models.ClassificationSession, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}

	var session models.ClassificationSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse progress file: %w", err)
	}

	return &session, nil
}

// Exists reports whether a progress file is present.
func (s *ProgressStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Clear removes the progress file. Removing an absent file is not an error.
func (s *ProgressStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove progress file: %w", err)
	}
	return nil
}
