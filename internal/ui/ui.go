package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/20uf/tidy-ur-spotify/internal/models"
	"github.com/20uf/tidy-ur-spotify/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	ClassifyView
	DoneView
)

// TrackLoader produces the track list the session runs over. The classify
// command injects either the live Spotify fetch or the offline snapshot.
type TrackLoader func(ctx context.Context) ([]models.Track, error)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	loader     TrackLoader
	engine     *tasks.Engine
	classifier *tasks.Classifier
	worker     *tasks.SyncWorker
	themes     []models.Theme
	byShortcut map[string]models.Theme
	lookahead  int

	session   *models.ClassificationSession
	trackByID map[string]models.Track

	syncFailed map[string]error

	width    int
	height   int
	spinner  spinner.Model
	help     help.Model
	showHelp bool
	keys     keyMap
	err      error
}

type sessionReadyMsg struct {
	session *models.ClassificationSession
	tracks  []models.Track
	err     error
}

type preloadDoneMsg struct {
	err error
}

type syncResultMsg tasks.SyncResult

// NewModel creates a new classify model with the provided dependencies.
// worker may be nil when syncing runs in dry-run mode without a queue.
func NewModel(ctx context.Context, loader TrackLoader, engine *tasks.Engine, classifier *tasks.Classifier, worker *tasks.SyncWorker, themes []models.Theme, lookahead int) *Model {
	byShortcut := make(map[string]models.Theme, len(themes))
	for _, th := range themes {
		byShortcut[th.Shortcut] = th
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.tag))
	if lookahead <= 0 {
		lookahead = tasks.DefaultBatchSize
	}
	return &Model{
		ctx:        ctx,
		view:       LoadingView,
		loader:     loader,
		engine:     engine,
		classifier: classifier,
		worker:     worker,
		themes:     themes,
		byShortcut: byShortcut,
		lookahead:  lookahead,
		trackByID:  map[string]models.Track{},
		syncFailed: map[string]error{},
		spinner:    sp,
		help:       help.New(),
		keys:       newKeyMap(themes),
	}
}

// Init starts the spinner, loads the track list, and begins draining sync results.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadSession(), m.waitForSync())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case ClassifyView:
			return m.handleClassifyKeys(msg)
		case DoneView:
			return m.handleDoneKeys(msg)
		default:
			if msg.String() == "q" || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		}

	case sessionReadyMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.session = msg.session
		for _, track := range msg.tracks {
			m.trackByID[track.ID] = track
		}
		if m.session.State() == models.Complete {
			m.view = DoneView
			return m, nil
		}
		m.view = ClassifyView
		return m, m.preload()

	case preloadDoneMsg:
		// Superseded or failed preloads fall back to on-demand classification;
		// the view simply re-renders with whatever the cache now holds.
		return m, nil

	case syncResultMsg:
		if msg.Err != nil {
			m.syncFailed[msg.Job.TrackID] = msg.Err
		} else if msg.Job.Action == tasks.SyncAdd {
			delete(m.syncFailed, msg.Job.TrackID)
		}
		return m, m.waitForSync()
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LoadingView:
		return fmt.Sprintf("%s Loading liked songs...", m.spinner.View())
	case ClassifyView:
		return m.renderClassify()
	case DoneView:
		return m.renderDone()
	default:
		return ""
	}
}

// Err reports the fatal error the model quit with, if any.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) handleClassifyKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	track, ok := m.currentTrack()
	if !ok {
		m.view = DoneView
		return m, nil
	}

	pressed := msg.String()
	if theme, found := m.byShortcut[pressed]; found {
		if _, err := m.engine.Decide(m.session, track, theme.Key); err != nil {
			m.err = err
			return m, tea.Quit
		}
		if m.session.State() == models.Complete {
			m.view = DoneView
			return m, nil
		}
		return m, m.preload()
	}

	switch pressed {
	case "s":
		if _, err := m.engine.Skip(m.session, track); err != nil {
			m.err = err
			return m, tea.Quit
		}
		if m.session.State() == models.Complete {
			m.view = DoneView
			return m, nil
		}
		return m, m.preload()
	case "u":
		if _, err := m.engine.Undo(m.session); err != nil {
			m.err = err
			return m, tea.Quit
		}
		return m, nil
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleDoneKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "u":
		if _, err := m.engine.Undo(m.session); err != nil {
			m.err = err
			return m, tea.Quit
		}
		if m.session.State() != models.Complete {
			m.view = ClassifyView
		}
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// currentTrack resolves the track under the cursor.
func (m *Model) currentTrack() (models.Track, bool) {
	if m.session == nil || m.session.CurrentIndex >= len(m.session.TrackIDs) {
		return models.Track{}, false
	}
	track, ok := m.trackByID[m.session.TrackIDs[m.session.CurrentIndex]]
	return track, ok
}

// lookaheadTracks returns the tracks from the cursor forward, capped to the
// configured preload window.
func (m *Model) lookaheadTracks() []models.Track {
	if m.session == nil {
		return nil
	}
	end := m.session.CurrentIndex + m.lookahead
	if end > len(m.session.TrackIDs) {
		end = len(m.session.TrackIDs)
	}
	window := make([]models.Track, 0, m.lookahead)
	for _, id := range m.session.TrackIDs[m.session.CurrentIndex:end] {
		if track, ok := m.trackByID[id]; ok {
			window = append(window, track)
		}
	}
	return window
}

func (m *Model) loadSession() tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.loader(m.ctx)
		if err != nil {
			return sessionReadyMsg{err: err}
		}
		session, err := m.engine.ResumeOrStart(tracks)
		return sessionReadyMsg{session: session, tracks: tracks, err: err}
	}
}

func (m *Model) preload() tea.Cmd {
	window := m.lookaheadTracks()
	return func() tea.Msg {
		return preloadDoneMsg{err: m.classifier.Preload(m.ctx, window)}
	}
}

func (m *Model) waitForSync() tea.Cmd {
	if m.worker == nil {
		return nil
	}
	return func() tea.Msg {
		result, ok := <-m.worker.Results()
		if !ok {
			return nil
		}
		return syncResultMsg(result)
	}
}

func (m *Model) renderClassify() string {
	track, ok := m.currentTrack()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Liked Songs  %d/%d", m.session.CurrentIndex+1, len(m.session.TrackIDs))))
	b.WriteString("\n\n")
	b.WriteString(m.renderTrackCard(track))
	b.WriteString("\n")
	b.WriteString(m.renderSuggestions(track))
	b.WriteString("\n")
	b.WriteString(m.renderHistory())

	if len(m.syncFailed) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render(fmt.Sprintf("⚠ %d playlist update(s) failed", len(m.syncFailed))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return b.String()
}

func (m *Model) renderTrackCard(track models.Track) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", styles.ok.Render(track.Name))
	fmt.Fprintf(&b, "%s", track.Artist)
	if track.Album != "" {
		fmt.Fprintf(&b, " • %s", track.Album)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s", styles.help.Render(formatDuration(track.DurationMS)))
	if track.ReleaseDate != "" {
		fmt.Fprintf(&b, "%s", styles.help.Render(" • "+track.ReleaseDate))
	}
	if track.Explicit {
		fmt.Fprintf(&b, " %s", styles.warn.Render("[E]"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderSuggestions(track models.Track) string {
	if !m.classifier.Known(track.ID) {
		return fmt.Sprintf("%s %s\n", m.spinner.View(), styles.help.Render("analyzing..."))
	}

	suggestions := m.classifier.GetSuggestions(track.ID)
	if len(suggestions) == 0 {
		return styles.help.Render("no suggestion") + "\n"
	}

	var b strings.Builder
	for _, s := range suggestions {
		name := s.ThemeKey
		for _, th := range m.themes {
			if th.Key == s.ThemeKey {
				name = th.Name
				break
			}
		}
		fmt.Fprintf(&b, "%s %s", styles.tag.Render("→ "+name), styles.help.Render(fmt.Sprintf("(%.0f%%)", s.Confidence*100)))
		if s.Reasoning != "" {
			fmt.Fprintf(&b, " %s", styles.help.Render(s.Reasoning))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderHistory shows the last few decisions with their sync status.
func (m *Model) renderHistory() string {
	const window = 3
	decisions := m.session.Decisions
	if len(decisions) == 0 {
		return ""
	}
	start := len(decisions) - window
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	for _, d := range decisions[start:] {
		b.WriteString(m.renderDecisionLine(d))
	}
	return b.String()
}

func (m *Model) renderDecisionLine(d models.Decision) string {
	mark := styles.ok.Render("✓")
	if err, failed := m.syncFailed[d.TrackID]; failed {
		mark = styles.err.Render("⚠ " + err.Error())
	}
	label := styles.help.Render("skipped")
	if !d.Skipped {
		names := make([]string, 0, len(d.Themes))
		for _, key := range d.Themes {
			name := key
			for _, th := range m.themes {
				if th.Key == key {
					name = th.Name
					break
				}
			}
			names = append(names, name)
		}
		label = styles.tag.Render(strings.Join(names, ", "))
	}
	return fmt.Sprintf("%s %s %s\n", mark, d.TrackName, label)
}

func (m *Model) renderDone() string {
	var b strings.Builder
	b.WriteString(styles.ok.Render("✓ All tracks classified!"))
	b.WriteString("\n\n")

	decided, skipped := 0, 0
	for _, d := range m.session.Decisions {
		if d.Skipped {
			skipped++
		} else {
			decided++
		}
	}
	fmt.Fprintf(&b, "Classified: %d\nSkipped: %d\n", decided, skipped)

	if len(m.syncFailed) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render(fmt.Sprintf("⚠ %d track(s) failed to sync:", len(m.syncFailed))))
		b.WriteString("\n")
		for id, err := range m.syncFailed {
			name := id
			if track, ok := m.trackByID[id]; ok {
				name = track.Name
			}
			fmt.Fprintf(&b, "  • %s: %v\n", name, err)
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.undo, m.keys.quit}))
	return b.String()
}

func formatDuration(ms int) string {
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
