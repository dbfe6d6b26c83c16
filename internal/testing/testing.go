// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/20uf/tidy-ur-spotify/internal/models"
)

// MockPlaylistAPI is a test double for [services.PlaylistAPI]. It records
// every mutation so tests can assert on playlist side effects.
type MockPlaylistAPI struct {
	mu        sync.Mutex
	playlists map[string]string   // name -> id
	members   map[string][]string // playlist id -> track ids
	nextID    int

	CreateErr error
	AddErr    error
	RemoveErr error
}

func NewMockPlaylistAPI() *MockPlaylistAPI {
	return &MockPlaylistAPI{
		playlists: map[string]string{},
		members:   map[string][]string{},
	}
}

func (m *MockPlaylistAPI) FindPlaylistByName(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.playlists[name]; ok {
		return id, nil
	}
	return "", nil
}

func (m *MockPlaylistAPI) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.nextID++
	id := "pl_" + name
	m.playlists[name] = id
	m.members[id] = nil
	return id, nil
}

func (m *MockPlaylistAPI) PlaylistContainsTrack(ctx context.Context, playlistID, trackID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.members[playlistID] {
		if id == trackID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockPlaylistAPI) AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddErr != nil {
		return m.AddErr
	}
	m.members[playlistID] = append(m.members[playlistID], trackID)
	return nil
}

func (m *MockPlaylistAPI) RemoveTrackFromPlaylist(ctx context.Context, playlistID, trackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	kept := m.members[playlistID][:0]
	for _, id := range m.members[playlistID] {
		if id != trackID {
			kept = append(kept, id)
		}
	}
	m.members[playlistID] = kept
	return nil
}

// Members returns a copy of the playlist membership for assertions.
func (m *MockPlaylistAPI) Members(playlistID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.members[playlistID]...)
}

// PlaylistID returns the id created for a playlist name, or "".
func (m *MockPlaylistAPI) PlaylistID(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playlists[name]
}

// MockTrackSource is a test double for [services.TrackSource].
type MockTrackSource struct {
	Tracks []models.Track
	Err    error
}

func (m *MockTrackSource) FetchAll(ctx context.Context) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Tracks, nil
}

// MockProvider is a test double for [services.Provider]. Responses are
// consumed in order; when exhausted Complete returns the last one.
type MockProvider struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Calls     []string // user prompts, in call order
	idx       int
}

func (m *MockProvider) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, user)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "[]", nil
	}
	resp := m.Responses[m.idx]
	if m.idx < len(m.Responses)-1 {
		m.idx++
	}
	return resp, nil
}

func (m *MockProvider) ID() string    { return "mock" }
func (m *MockProvider) Model() string { return "mock-model" }

// CallCount returns how many times Complete was invoked.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// RoundTripFunc routes requests to a handler, for mocks that need to vary
// the response by path or call count.
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
