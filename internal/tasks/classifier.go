package tasks

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/20uf/tidy-ur-spotify/internal/models"
	"github.com/20uf/tidy-ur-spotify/internal/services"
	"github.com/20uf/tidy-ur-spotify/internal/shared"
)

// systemPromptTemplate instructs the model to emit a bare JSON array.
// The template text participates in the cache namespace, so editing it
// invalidates every cached suggestion.
const systemPromptTemplate = `You are a music classification assistant. You classify songs into playlist themes based on their metadata.

Available themes:
%s

For each track, suggest the BEST matching theme. A track can match multiple themes.
Respond with valid JSON only - an array of objects with these fields:
- track_id: string
- suggested_theme: string (theme key)
- confidence: float (0.0-1.0)
- reasoning: string (brief explanation)

If a track could fit multiple themes, return one entry per theme for that track.`

// DefaultBatchSize is the number of tracks sent per LLM request.
const DefaultBatchSize = 10

// SuggestionStore is the persistence contract the classifier writes
// through. Satisfied by repositories.PersistentSuggestionCache.
type SuggestionStore interface {
	Get(key string) ([]models.Suggestion, bool)
	PutMany(batch map[string][]models.Suggestion) error
}

// Classifier turns batches of tracks into theme suggestions via an LLM
// provider, memoized at two levels: an in-memory map for the process
// lifetime and a content-addressed persistent store across runs.
type Classifier struct {
	provider  services.Provider
	themes    []models.Theme
	store     SuggestionStore
	namespace string
	batchSize int
	logger    *log.Logger

	mu    sync.Mutex
	cache map[string][]models.Suggestion // track id -> suggestions

	generation atomic.Int64
}

// NewClassifier creates a classifier for a fixed theme set. The store may
// be nil to disable cross-run caching.
func NewClassifier(provider services.Provider, themes []models.Theme, store SuggestionStore, batchSize int, logger *log.Logger) *Classifier {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Classifier{
		provider:  provider,
		themes:    themes,
		store:     store,
		namespace: Namespace(provider.ID(), provider.Model(), themes),
		batchSize: batchSize,
		logger:    shared.WithLogger(logger, "component", "classifier"),
		cache:     map[string][]models.Suggestion{},
	}
}

// sha1Hex hashes a string to its hex SHA-1 digest.
func sha1Hex(value string) string {
	sum := sha1.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}

// canonicalJSON serializes with sorted keys and no extra whitespace, the
// property that makes cache keys stable across processes.
func canonicalJSON(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(data)
}

// Namespace identifies one classification configuration. Changing the
// provider, model, any theme definition, or the prompt template produces
// a new namespace, orphaning all prior cache entries.
func Namespace(providerID, model string, themes []models.Theme) string {
	themeSet := map[string]map[string]string{}
	for _, theme := range themes {
		themeSet[theme.Key] = map[string]string{
			"name":        theme.Name,
			"description": theme.Description,
			"shortcut":    theme.Shortcut,
		}
	}

	payload := map[string]any{
		"provider":    providerID,
		"model":       model,
		"themes":      themeSet,
		"prompt_hash": sha1Hex(systemPromptTemplate),
	}

	return sha1Hex(canonicalJSON(payload))
}

// TrackCacheKey addresses one track's suggestions within a namespace.
// Every metadata field that influences classification participates, so a
// renamed or re-released track re-classifies while an untouched one hits
// the cache.
func TrackCacheKey(namespace string, track models.Track) string {
	var popularity any
	if track.Popularity != nil {
		popularity = *track.Popularity
	}

	metadata := map[string]any{
		"id":           track.ID,
		"name":         track.Name,
		"artist":       track.Artist,
		"album":        track.Album,
		"release_date": track.ReleaseDate,
		"duration_ms":  track.DurationMS,
		"explicit":     track.Explicit,
		"popularity":   popularity,
	}

	return fmt.Sprintf("%s:%s:%s", namespace, track.ID, sha1Hex(canonicalJSON(metadata)))
}

// BuildSystemPrompt renders the theme catalog into the prompt template.
func BuildSystemPrompt(themes []models.Theme) string {
	lines := make([]string, 0, len(themes))
	for _, theme := range themes {
		lines = append(lines, fmt.Sprintf("- %q: %s — %s", theme.Key, theme.Name, theme.Description))
	}
	return fmt.Sprintf(systemPromptTemplate, strings.Join(lines, "\n"))
}

// BuildTracksPrompt renders one metadata line per track.
func BuildTracksPrompt(tracks []models.Track) string {
	lines := []string{"Classify these tracks:\n"}
	for _, track := range tracks {
		popularity := "unknown"
		if track.Popularity != nil {
			popularity = fmt.Sprintf("%d", *track.Popularity)
		}

		releaseDate := track.ReleaseDate
		if releaseDate == "" {
			releaseDate = "unknown"
		}

		explicit := "no"
		if track.Explicit {
			explicit = "yes"
		}

		durationSec := int(math.Round(float64(track.DurationMS) / 1000))

		lines = append(lines, fmt.Sprintf(
			"- ID: %s, Title: %q, Artist: %q, Album: %q, Release Date: %s, Duration Sec: %d, Explicit: %s, Popularity: %s",
			track.ID, track.Name, track.Artist, track.Album, releaseDate, durationSec, explicit, popularity,
		))
	}
	return strings.Join(lines, "\n")
}

// suggestionWire is the response item shape the prompt asks for.
type suggestionWire struct {
	TrackID        string  `json:"track_id"`
	SuggestedTheme string  `json:"suggested_theme"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
}

// ParseSuggestions extracts suggestions from completion text. A leading
// markdown fence line and a trailing fence line are stripped first.
// Anything that still fails to parse as a JSON array yields an empty
// list; missing fields take their zero values.
func ParseSuggestions(text string) []models.Suggestion {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		lines := strings.Split(cleaned, "\n")
		lines = lines[1:]
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			lines = lines[:len(lines)-1]
		}
		cleaned = strings.Join(lines, "\n")
	}

	var items []suggestionWire
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return []models.Suggestion{}
	}

	suggestions := make([]models.Suggestion, 0, len(items))
	for _, item := range items {
		suggestions = append(suggestions, models.Suggestion{
			TrackID:    item.TrackID,
			ThemeKey:   item.SuggestedTheme,
			Confidence: item.Confidence,
			Reasoning:  item.Reasoning,
		})
	}
	return suggestions
}

// ClassifyBatch resolves suggestions for the given tracks. Known tracks
// come from the in-memory cache, then the persistent store; only the
// remainder goes to the provider in one batched prompt. Tracks the
// provider does not mention are cached with an empty list and never
// re-queried this process.
func (c *Classifier) ClassifyBatch(ctx context.Context, tracks []models.Track) ([]models.Suggestion, error) {
	if len(tracks) == 0 {
		return []models.Suggestion{}, nil
	}

	c.mu.Lock()
	var uncached []models.Track
	storeHits := 0
	for _, track := range tracks {
		if _, ok := c.cache[track.ID]; ok {
			continue
		}
		if c.store != nil {
			if persisted, ok := c.store.Get(TrackCacheKey(c.namespace, track)); ok && len(persisted) > 0 {
				c.cache[track.ID] = persisted
				storeHits++
				continue
			}
		}
		uncached = append(uncached, track)
	}
	c.mu.Unlock()

	if storeHits > 0 {
		c.logger.Info("persistent cache hits", "hits", storeHits, "misses", len(uncached))
	}

	if len(uncached) == 0 {
		return c.gather(tracks), nil
	}

	system := BuildSystemPrompt(c.themes)
	user := BuildTracksPrompt(uncached)

	c.logger.Info("classification request", "provider", c.provider.ID(), "model", c.provider.Model(), "tracks", len(uncached))

	text, err := c.provider.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("classification request failed: %w", err)
	}

	suggestions := ParseSuggestions(text)
	c.logger.Info("classification response", "suggestions", len(suggestions))

	grouped := make(map[string][]models.Suggestion, len(uncached))
	for _, track := range uncached {
		grouped[track.ID] = []models.Suggestion{}
	}
	for _, suggestion := range suggestions {
		if _, ok := grouped[suggestion.TrackID]; ok {
			grouped[suggestion.TrackID] = append(grouped[suggestion.TrackID], suggestion)
		}
	}

	c.mu.Lock()
	for id, list := range grouped {
		c.cache[id] = list
	}
	c.mu.Unlock()

	if c.store != nil {
		toPersist := map[string][]models.Suggestion{}
		for _, track := range uncached {
			if list := grouped[track.ID]; len(list) > 0 {
				toPersist[TrackCacheKey(c.namespace, track)] = list
			}
		}
		if len(toPersist) > 0 {
			if err := c.store.PutMany(toPersist); err != nil {
				c.logger.Warn("failed to persist suggestions", "error", err)
			}
		}
	}

	return c.gather(tracks), nil
}

// gather concatenates the cached suggestions for the given tracks in input
// order. Tracks without a cache entry contribute nothing.
func (c *Classifier) gather(tracks []models.Track) []models.Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()

	collected := []models.Suggestion{}
	for _, track := range tracks {
		collected = append(collected, c.cache[track.ID]...)
	}
	return collected
}

// GetSuggestions is a pure in-memory lookup; it never touches the network.
func (c *Classifier) GetSuggestions(trackID string) []models.Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()

	suggestions, ok := c.cache[trackID]
	if !ok {
		return nil
	}
	return append([]models.Suggestion(nil), suggestions...)
}

// Known reports whether a track has a cached result, including a cached
// empty one.
func (c *Classifier) Known(trackID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.cache[trackID]
	return ok
}

// Preload warms the cache for a look-ahead window, one batch at a time.
// Each call supersedes any prior preload: the generation counter is
// re-checked at every batch boundary and a stale job stops silently.
// Intended to run on its own goroutine.
func (c *Classifier) Preload(ctx context.Context, tracks []models.Track) error {
	generation := c.generation.Add(1)

	for start := 0; start < len(tracks); start += c.batchSize {
		if c.generation.Load() != generation {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		end := start + c.batchSize
		if end > len(tracks) {
			end = len(tracks)
		}

		if _, err := c.ClassifyBatch(ctx, tracks[start:end]); err != nil {
			if c.generation.Load() != generation {
				return nil
			}
			return err
		}
	}

	return nil
}
