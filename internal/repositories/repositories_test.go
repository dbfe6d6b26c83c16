package repositories

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/20uf/tidy-ur-spotify/internal/models"
	"github.com/20uf/tidy-ur-spotify/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func sampleTracks() []models.Track {
	popularity := 63
	return []models.Track{
		{ID: "t1", Name: "First", Artist: "A, B", Album: "Alpha", Popularity: &popularity, DurationMS: 201000, ReleaseDate: "2020-01-01", Explicit: false, CoverURL: "http://img/1"},
		{ID: "t2", Name: "Second", Artist: "B", Album: "Beta", DurationMS: 180000, ReleaseDate: "2019-06-15", Explicit: true},
		{ID: "t3", Name: "Third", Artist: "C", Album: "Gamma", DurationMS: 100000, ReleaseDate: "2021-03-03"},
	}
}

func TestTrackRepository(t *testing.T) {
	t.Run("ReplaceAll And ListByPosition", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))

		if err := repo.ReplaceAll(sampleTracks()); err != nil {
			t.Fatalf("failed to store snapshot: %v", err)
		}

		tracks, err := repo.ListByPosition()
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}

		if len(tracks) != 3 {
			t.Fatalf("expected 3 tracks, got %d", len(tracks))
		}
		if tracks[0].ID != "t1" || tracks[1].ID != "t2" || tracks[2].ID != "t3" {
			t.Errorf("expected fetch order preserved, got %v", []string{tracks[0].ID, tracks[1].ID, tracks[2].ID})
		}

		if tracks[0].Popularity == nil || *tracks[0].Popularity != 63 {
			t.Error("expected popularity round-trip")
		}
		if tracks[1].Popularity != nil {
			t.Error("expected nil popularity to stay nil")
		}
		if !tracks[1].Explicit {
			t.Error("expected explicit flag round-trip")
		}
	})

	t.Run("ReplaceAll Replaces Previous Snapshot", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))

		if err := repo.ReplaceAll(sampleTracks()); err != nil {
			t.Fatalf("failed to store snapshot: %v", err)
		}

		if err := repo.ReplaceAll(sampleTracks()[:1]); err != nil {
			t.Fatalf("failed to replace snapshot: %v", err)
		}

		count, err := repo.Count()
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 track after replace, got %d", count)
		}
	})

	t.Run("FetchedAt", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))

		fetchedAt, err := repo.FetchedAt()
		if err != nil {
			t.Fatalf("failed to query fetch time: %v", err)
		}
		if !fetchedAt.IsZero() {
			t.Error("expected zero time for empty cache")
		}

		if err := repo.ReplaceAll(sampleTracks()); err != nil {
			t.Fatalf("failed to store snapshot: %v", err)
		}

		fetchedAt, err = repo.FetchedAt()
		if err != nil {
			t.Fatalf("failed to query fetch time: %v", err)
		}
		if fetchedAt.IsZero() {
			t.Error("expected fetch time after snapshot")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))

		if err := repo.ReplaceAll(sampleTracks()); err != nil {
			t.Fatalf("failed to store snapshot: %v", err)
		}
		if err := repo.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}

		count, err := repo.Count()
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if count != 0 {
			t.Errorf("expected empty cache, got %d tracks", count)
		}
	})
}

func TestPersistentSuggestionCache(t *testing.T) {
	t.Run("Round Trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "suggestions.json")

		cache := NewPersistentSuggestionCache(path)
		batch := map[string][]models.Suggestion{
			"ns:t1:h1": {{TrackID: "t1", ThemeKey: "ambiance", Confidence: 0.9, Reasoning: "calm"}},
		}
		if err := cache.PutMany(batch); err != nil {
			t.Fatalf("failed to store batch: %v", err)
		}

		reloaded := NewPersistentSuggestionCache(path)
		suggestions, ok := reloaded.Get("ns:t1:h1")
		if !ok {
			t.Fatal("expected key to survive reload")
		}
		if len(suggestions) != 1 || suggestions[0].ThemeKey != "ambiance" {
			t.Errorf("unexpected suggestions %+v", suggestions)
		}
	})

	t.Run("Missing Key", func(t *testing.T) {
		cache := NewPersistentSuggestionCache(filepath.Join(t.TempDir(), "suggestions.json"))

		if _, ok := cache.Get("absent"); ok {
			t.Error("expected miss for unknown key")
		}
	})

	t.Run("Empty Lists Not Persisted", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "suggestions.json")

		cache := NewPersistentSuggestionCache(path)
		if err := cache.PutMany(map[string][]models.Suggestion{"ns:t1:h1": {}}); err != nil {
			t.Fatalf("failed to store batch: %v", err)
		}

		if _, ok := cache.Get("ns:t1:h1"); !ok {
			t.Error("expected empty list to be visible in-process")
		}

		reloaded := NewPersistentSuggestionCache(path)
		if _, ok := reloaded.Get("ns:t1:h1"); ok {
			t.Error("expected empty list to be dropped on reload")
		}
	})

	t.Run("Corrupt File Treated As Empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "suggestions.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatalf("failed to write corrupt file: %v", err)
		}

		cache := NewPersistentSuggestionCache(path)
		if cache.Len() != 0 {
			t.Errorf("expected empty cache, got %d keys", cache.Len())
		}

		// a write replaces the corrupt file
		if err := cache.PutMany(map[string][]models.Suggestion{
			"ns:t1:h1": {{TrackID: "t1", ThemeKey: "lets_dance", Confidence: 0.7}},
		}); err != nil {
			t.Fatalf("failed to store batch: %v", err)
		}

		content := string(mustRead(t, path))
		if !strings.Contains(content, `"entries"`) {
			t.Errorf("expected entries envelope, got %s", content)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "suggestions.json")

		cache := NewPersistentSuggestionCache(path)
		if err := cache.PutMany(map[string][]models.Suggestion{
			"ns:t1:h1": {{TrackID: "t1", ThemeKey: "ambiance", Confidence: 0.5}},
		}); err != nil {
			t.Fatalf("failed to store batch: %v", err)
		}

		if err := cache.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}

		if cache.Len() != 0 {
			t.Error("expected empty cache after clear")
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("expected cache file to be removed")
		}

		// clearing twice is fine
		if err := cache.Clear(); err != nil {
			t.Errorf("expected second clear to succeed, got %v", err)
		}
	})
}

func TestProgressStore(t *testing.T) {
	sampleSession := func() *models.ClassificationSession {
		return &models.ClassificationSession{
			CurrentIndex: 2,
			TrackIDs:     []string{"t1", "t2", "t3"},
			Decisions: []models.Decision{
				{TrackID: "t1", TrackName: "First", Artist: "A", Themes: []string{"ambiance"}},
				{TrackID: "t2", TrackName: "Second", Artist: "B", Skipped: true},
			},
		}
	}

	t.Run("Save And Load", func(t *testing.T) {
		store := NewProgressStore(filepath.Join(t.TempDir(), "progress.json"))

		if err := store.Save(sampleSession()); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		loaded, err := store.Load()
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if loaded == nil {
			t.Fatal("expected session")
		}

		if loaded.CurrentIndex != 2 || len(loaded.TrackIDs) != 3 || len(loaded.Decisions) != 2 {
			t.Errorf("unexpected session %+v", loaded)
		}
		if !loaded.Decisions[1].Skipped {
			t.Error("expected skip flag round-trip")
		}
	})

	t.Run("Load Missing File", func(t *testing.T) {
		store := NewProgressStore(filepath.Join(t.TempDir(), "progress.json"))

		session, err := store.Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if session != nil {
			t.Errorf("expected nil session, got %+v", session)
		}
	})

	t.Run("Load Corrupt File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "progress.json")
		if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
			t.Fatalf("failed to write corrupt file: %v", err)
		}

		if _, err := NewProgressStore(path).Load(); err == nil {
			t.Error("expected error for corrupt progress file")
		}
	})

	t.Run("Exists And Clear", func(t *testing.T) {
		store := NewProgressStore(filepath.Join(t.TempDir(), "progress.json"))

		if store.Exists() {
			t.Error("expected no progress file initially")
		}

		if err := store.Save(sampleSession()); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if !store.Exists() {
			t.Error("expected progress file after save")
		}

		if err := store.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if store.Exists() {
			t.Error("expected progress file to be removed")
		}

		if err := store.Clear(); err != nil {
			t.Errorf("expected second clear to succeed, got %v", err)
		}
	})
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return data
}
