package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/20uf/tidy-ur-spotify/internal/models"
)

// suggestionFile is the on-disk shape of the suggestion cache.
type suggestionFile struct {
	Entries map[string][]models.Suggestion `json:"entries"`
}

// PersistentSuggestionCache stores LLM suggestions keyed by
// namespace:trackID:contentHash. Entries survive restarts; a key stays
// valid until the track's metadata or the classification context changes,
// at which point the key itself changes and the stale entry is simply
// never looked up again.
type PersistentSuggestionCache struct {
	path    string
	mu      sync.Mutex
	entries map[string][]models.Suggestion
}

// NewPersistentSuggestionCache loads the cache file at path. A missing or
// unreadable file yields an empty cache.
func NewPersistentSuggestionCache(path string) *PersistentSuggestionCache {
	c := &PersistentSuggestionCache{
		path:    path,
		entries: map[string][]models.Suggestion{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}

	var parsed suggestionFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return c
	}

	if parsed.Entries != nil {
		c.entries = parsed.Entries
	}
	return c
}

// Get returns the cached suggestions for a key.
func (c *PersistentSuggestionCache) Get(key string) ([]models.Suggestion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	suggestions, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return append([]models.Suggestion(nil), suggestions...), true
}

// PutMany stores a batch of results and persists the cache. Empty
// suggestion lists are kept in memory for the current process but not
// written to disk, so an empty LLM response is retried on the next run.
func (c *PersistentSuggestionCache) PutMany(batch map[string][]models.Suggestion) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, suggestions := range batch {
		c.entries[key] = suggestions
	}

	return c.save()
}

// Len reports the number of cached keys.
func (c *PersistentSuggestionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops all entries and removes the cache file.
func (c *PersistentSuggestionCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = map[string][]models.Suggestion{}

	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

// save writes the non-empty entries atomically. Caller holds the lock.
func (c *PersistentSuggestionCache) save() error {
	persisted := suggestionFile{Entries: map[string][]models.Suggestion{}}
	for key, suggestions := range c.entries {
		if len(suggestions) > 0 {
			persisted.Entries[key] = suggestions
		}
	}

	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal suggestion cache: %w", err)
	}

	return writeFileAtomic(c.path, data)
}
