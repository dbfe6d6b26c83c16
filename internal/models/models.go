// package models defines the data model for the liked-songs classification workflow
package models

// Track is an immutable snapshot of a liked song's metadata as fetched from Spotify.
type Track struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Popularity  *int   `json:"popularity,omitempty"`
	DurationMS  int    `json:"duration_ms"`
	ReleaseDate string `json:"release_date"`
	Explicit    bool   `json:"explicit"`
	CoverURL    string `json:"cover_url,omitempty"`
	PreviewURL  string `json:"preview_url,omitempty"`
}

// Theme is a named destination category and its target playlist.
// The theme set is fixed per run and loaded from configuration.
type Theme struct {
	Key         string `toml:"key" json:"key"`
	Name        string `toml:"name" json:"name"`
	Description string `toml:"description" json:"description"`
	Shortcut    string `toml:"shortcut" json:"shortcut"`
}

// Suggestion is an LLM-proposed theme for a track. A track may carry zero,
// one, or several suggestions (one per matching theme).
type Suggestion struct {
	TrackID    string  `json:"track_id"`
	ThemeKey   string  `json:"theme_key"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Decision records the outcome for one track: the theme keys it was assigned
// to, or Skipped with no themes.
type Decision struct {
	TrackID   string   `json:"track_id"`
	TrackName string   `json:"track_name"`
	Artist    string   `json:"artist"`
	Themes    []string `json:"themes"`
	Skipped   bool     `json:"skipped"`
}

// SessionState is derived from the cursor position, never stored.
type SessionState int

const (
	NotStarted SessionState = iota
	InProgress
	Complete
)

func (s SessionState) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

// ClassificationSession is the ordered, resumable classification run over a
// fixed track list. TrackIDs snapshots the fetch order and is the ordering
// contract for the whole run. Decisions are kept in resolution order, which
// is not necessarily track order once undo has popped entries.
//
// Invariant: CurrentIndex == len(Decisions). Each decision advances the
// cursor by exactly one and undo retracts both by one.
type ClassificationSession struct {
	CurrentIndex int        `json:"current_index"`
	TrackIDs     []string   `json:"track_ids"`
	Decisions    []Decision `json:"decisions"`
}

// NewSession constructs a fresh session over the given fetch order.
func NewSession(trackIDs []string) *ClassificationSession {
	ids := make([]string, len(trackIDs))
	copy(ids, trackIDs)
	return &ClassificationSession{TrackIDs: ids, Decisions: []Decision{}}
}

// State derives the lifecycle state from the cursor.
func (s *ClassificationSession) State() SessionState {
	switch {
	case len(s.TrackIDs) > 0 && s.CurrentIndex >= len(s.TrackIDs):
		return Complete
	case s.CurrentIndex == 0:
		return NotStarted
	default:
		return InProgress
	}
}

// DecidedCount returns the number of resolved tracks.
func (s *ClassificationSession) DecidedCount() int {
	return len(s.Decisions)
}

// DecisionFor returns the decision recorded for a track, or nil.
func (s *ClassificationSession) DecisionFor(trackID string) *Decision {
	for i := range s.Decisions {
		if s.Decisions[i].TrackID == trackID {
			return &s.Decisions[i]
		}
	}
	return nil
}

// AddDecision appends a decision and advances the cursor.
func (s *ClassificationSession) AddDecision(d Decision) {
	s.Decisions = append(s.Decisions, d)
	s.CurrentIndex++
}

// UndoLast pops the most recent decision and retracts the cursor.
// Returns nil when there is nothing to undo.
func (s *ClassificationSession) UndoLast() *Decision {
	if len(s.Decisions) == 0 || s.CurrentIndex <= 0 {
		return nil
	}
	last := s.Decisions[len(s.Decisions)-1]
	s.Decisions = s.Decisions[:len(s.Decisions)-1]
	s.CurrentIndex--
	return &last
}
