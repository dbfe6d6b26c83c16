package tasks

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/20uf/tidy-ur-spotify/internal/models"
	"github.com/20uf/tidy-ur-spotify/internal/shared"
)

// ProgressStore is the session persistence contract. Satisfied by
// repositories.ProgressStore.
type ProgressStore interface {
	Save(session *models.ClassificationSession) error
	Load() (*models.ClassificationSession, error)
	Clear() error
	Exists() bool
}

// Exporter writes decisions to a tabular file. Satisfied by
// formatter.CSVExporter.
type Exporter interface {
	ExportDecisions(decisions []models.Decision, path string) (string, error)
}

// Engine drives the classification session: a deterministic, resumable
// cursor over an ordered track list. Decide and skip advance, undo
// retreats, and every mutation persists before returning.
//
// Mutations must not run concurrently for the same session; the TUI event
// loop is the serialization point.
type Engine struct {
	progress   ProgressStore
	worker     *SyncWorker
	exporter   Exporter
	exportPath string
	logger     *log.Logger

	exported bool
}

// NewEngine wires the session engine. exporter may be nil to disable the
// automatic completion export.
func NewEngine(progress ProgressStore, worker *SyncWorker, exporter Exporter, exportPath string, logger *log.Logger) *Engine {
	return &Engine{
		progress:   progress,
		worker:     worker,
		exporter:   exporter,
		exportPath: exportPath,
		logger:     shared.WithLogger(logger, "component", "session"),
	}
}

// ResumeOrStart loads the persisted session or starts a fresh one over
// the fetched tracks.
//
// A resumed session is reconciled against the fresh library by track id:
// decided ids keep their decision order (their remote side effects
// already happened, even for tracks no longer liked), and undecided
// fresh ids follow in fetch order. The cursor lands on the first
// undecided track, preserving current_index == len(decisions).
func (e *Engine) ResumeOrStart(tracks []models.Track) (*models.ClassificationSession, error) {
	existing, err := e.progress.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if existing == nil {
		ids := make([]string, 0, len(tracks))
		for _, track := range tracks {
			ids = append(ids, track.ID)
		}
		session := models.NewSession(ids)

		if err := e.progress.Save(session); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}

		e.logger.Info("session started", "tracks", len(ids))
		return session, nil
	}

	decided := make(map[string]bool, len(existing.Decisions))
	ids := make([]string, 0, len(tracks)+len(existing.Decisions))
	for _, decision := range existing.Decisions {
		decided[decision.TrackID] = true
		ids = append(ids, decision.TrackID)
	}
	for _, track := range tracks {
		if !decided[track.ID] {
			ids = append(ids, track.ID)
		}
	}

	existing.TrackIDs = ids
	existing.CurrentIndex = len(existing.Decisions)

	if err := e.progress.Save(existing); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	e.logger.Info("session resumed", "decided", existing.DecidedCount(), "tracks", len(ids))
	return existing, nil
}

// Decide assigns a theme to a track. A first decision appends and
// advances the cursor; re-deciding an already-decided track only extends
// its theme set, with set semantics so repeating a key changes nothing.
// The playlist add runs on the background worker either way.
func (e *Engine) Decide(session *models.ClassificationSession, track models.Track, themeKey string) (models.Decision, error) {
	existing := session.DecisionFor(track.ID)
	if existing != nil {
		present := false
		for _, key := range existing.Themes {
			if key == themeKey {
				present = true
				break
			}
		}
		if !present {
			existing.Themes = append(existing.Themes, themeKey)
		}
	} else {
		session.AddDecision(models.Decision{
			TrackID:   track.ID,
			TrackName: track.Name,
			Artist:    track.Artist,
			Themes:    []string{themeKey},
		})
		existing = session.DecisionFor(track.ID)
	}

	if e.worker != nil {
		e.worker.Enqueue(SyncJob{Action: SyncAdd, ThemeKey: themeKey, TrackID: track.ID})
	}

	if err := e.progress.Save(session); err != nil {
		return models.Decision{}, fmt.Errorf("failed to save session: %w", err)
	}

	e.maybeExport(session)
	return *existing, nil
}

// Skip records a skipped track with no playlist side effect.
func (e *Engine) Skip(session *models.ClassificationSession, track models.Track) (models.Decision, error) {
	decision := models.Decision{
		TrackID:   track.ID,
		TrackName: track.Name,
		Artist:    track.Artist,
		Skipped:   true,
	}
	session.AddDecision(decision)

	if err := e.progress.Save(session); err != nil {
		return models.Decision{}, fmt.Errorf("failed to save session: %w", err)
	}

	e.maybeExport(session)
	return decision, nil
}

// Undo retracts the most recent decision, queuing a playlist remove for
// each assigned theme. Undoing an empty history returns nil, nil.
func (e *Engine) Undo(session *models.ClassificationSession) (*models.Decision, error) {
	last := session.UndoLast()
	if last == nil {
		return nil, nil
	}

	if e.worker != nil {
		for _, themeKey := range last.Themes {
			e.worker.Enqueue(SyncJob{Action: SyncRemove, ThemeKey: themeKey, TrackID: last.TrackID})
		}
	}

	if err := e.progress.Save(session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return last, nil
}

// Clear discards the persisted session.
func (e *Engine) Clear() error {
	if err := e.progress.Clear(); err != nil {
		return err
	}
	e.exported = false
	e.logger.Info("session cleared")
	return nil
}

// maybeExport writes the CSV once, the first time the cursor reaches the
// end. Export failure is logged, not fatal; the user can re-export.
func (e *Engine) maybeExport(session *models.ClassificationSession) {
	if e.exporter == nil || e.exported || session.State() != models.Complete {
		return
	}
	e.exported = true

	path, err := e.exporter.ExportDecisions(session.Decisions, e.exportPath)
	if err != nil {
		e.logger.Warn("automatic export failed", "error", err)
		return
	}
	e.logger.Info("session complete, exported", "path", path)
}
