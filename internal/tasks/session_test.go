package tasks

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/20uf/tidy-ur-spotify/internal/formatter"
	"github.com/20uf/tidy-ur-spotify/internal/models"
	"github.com/20uf/tidy-ur-spotify/internal/repositories"
	"github.com/20uf/tidy-ur-spotify/internal/shared"
	tu "github.com/20uf/tidy-ur-spotify/internal/testing"
)

func testTracks() []models.Track {
	return []models.Track{
		{ID: "t1", Name: "First", Artist: "A"},
		{ID: "t2", Name: "Second", Artist: "B"},
		{ID: "t3", Name: "Third", Artist: "C"},
	}
}

// testEngine wires an engine over a temp progress file and a synchronous
// dry-run syncer so playlist side effects can be asserted deterministically.
type engineFixture struct {
	engine   *Engine
	syncer   *DryRunSyncer
	worker   *SyncWorker
	progress *repositories.ProgressStore
	export   string
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	dir := t.TempDir()
	logger := shared.NewLogger(io.Discard)
	syncer := NewDryRunSyncer()
	worker := NewSyncWorker(syncer, 16, logger)
	worker.Start(context.Background())
	t.Cleanup(worker.Close)

	progress := repositories.NewProgressStore(filepath.Join(dir, "progress.json"))
	export := filepath.Join(dir, "export.csv")

	return &engineFixture{
		engine:   NewEngine(progress, worker, formatter.CSVExporter{}, export, logger),
		syncer:   syncer,
		worker:   worker,
		progress: progress,
		export:   export,
	}
}

// drainWorker waits until the expected number of sync results arrived.
func (f *engineFixture) drainWorker(t *testing.T, expected int) []SyncResult {
	t.Helper()

	var results []SyncResult
	timeout := time.After(2 * time.Second)
	for len(results) < expected {
		select {
		case result := <-f.worker.Results():
			results = append(results, result)
		case <-timeout:
			t.Fatalf("timed out waiting for sync results, got %d of %d", len(results), expected)
		}
	}
	return results
}

func TestEngineResumeOrStart(t *testing.T) {
	t.Run("Fresh Session", func(t *testing.T) {
		f := newEngineFixture(t)

		session, err := f.engine.ResumeOrStart(testTracks())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if session.CurrentIndex != 0 || len(session.TrackIDs) != 3 || len(session.Decisions) != 0 {
			t.Errorf("unexpected fresh session %+v", session)
		}
		if session.State() != models.NotStarted {
			t.Errorf("expected not_started, got %s", session.State())
		}
		if !f.progress.Exists() {
			t.Error("expected fresh session to be persisted")
		}
	})

	t.Run("Resume Keeps Decisions", func(t *testing.T) {
		f := newEngineFixture(t)

		session, err := f.engine.ResumeOrStart(testTracks())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := f.engine.Decide(session, testTracks()[0], "ambiance"); err != nil {
			t.Fatalf("decide failed: %v", err)
		}

		resumed, err := f.engine.ResumeOrStart(testTracks())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if resumed.CurrentIndex != 1 || len(resumed.Decisions) != 1 {
			t.Errorf("expected cursor after decided track, got %+v", resumed)
		}
		if resumed.TrackIDs[0] != "t1" {
			t.Errorf("expected decided id first, got %v", resumed.TrackIDs)
		}
	})

	t.Run("Resume Reconciles Library Drift", func(t *testing.T) {
		f := newEngineFixture(t)

		session, err := f.engine.ResumeOrStart(testTracks())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := f.engine.Decide(session, testTracks()[0], "ambiance"); err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if _, err := f.engine.Skip(session, testTracks()[1]); err != nil {
			t.Fatalf("skip failed: %v", err)
		}

		// t2 was unliked, t0 is newly liked
		fresh := []models.Track{
			{ID: "t0", Name: "Newest", Artist: "Z"},
			{ID: "t1", Name: "First", Artist: "A"},
			{ID: "t3", Name: "Third", Artist: "C"},
		}

		resumed, err := f.engine.ResumeOrStart(fresh)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []string{"t1", "t2", "t0", "t3"}
		if len(resumed.TrackIDs) != len(want) {
			t.Fatalf("expected %v, got %v", want, resumed.TrackIDs)
		}
		for i, id := range want {
			if resumed.TrackIDs[i] != id {
				t.Errorf("expected %v, got %v", want, resumed.TrackIDs)
				break
			}
		}

		if resumed.CurrentIndex != 2 {
			t.Errorf("expected cursor at first undecided track, got %d", resumed.CurrentIndex)
		}
		if resumed.TrackIDs[resumed.CurrentIndex] != "t0" {
			t.Errorf("expected cursor pointing at t0, got %s", resumed.TrackIDs[resumed.CurrentIndex])
		}
	})
}

func TestEngineDecideSkipUndo(t *testing.T) {
	t.Run("Cursor Invariant", func(t *testing.T) {
		f := newEngineFixture(t)
		tracks := testTracks()
		session, _ := f.engine.ResumeOrStart(tracks)

		if _, err := f.engine.Decide(session, tracks[0], "ambiance"); err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if _, err := f.engine.Skip(session, tracks[1]); err != nil {
			t.Fatalf("skip failed: %v", err)
		}

		if session.CurrentIndex != 2 || len(session.Decisions) != 2 {
			t.Errorf("expected current_index == len(decisions) == 2, got %d/%d", session.CurrentIndex, len(session.Decisions))
		}
	})

	t.Run("Decide Queues Playlist Add", func(t *testing.T) {
		f := newEngineFixture(t)
		tracks := testTracks()
		session, _ := f.engine.ResumeOrStart(tracks)

		if _, err := f.engine.Decide(session, tracks[0], "ambiance"); err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		f.drainWorker(t, 1)

		added := f.syncer.Added()
		if len(added) != 1 || added[0] != (SyncOp{ThemeKey: "ambiance", TrackID: "t1"}) {
			t.Errorf("expected one recorded add, got %v", added)
		}
	})

	t.Run("Redecide Uses Set Semantics", func(t *testing.T) {
		f := newEngineFixture(t)
		tracks := testTracks()
		session, _ := f.engine.ResumeOrStart(tracks)

		if _, err := f.engine.Decide(session, tracks[0], "ambiance"); err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if _, err := f.engine.Decide(session, tracks[0], "ambiance"); err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		decision, err := f.engine.Decide(session, tracks[0], "lets_dance")
		if err != nil {
			t.Fatalf("decide failed: %v", err)
		}

		if len(decision.Themes) != 2 || decision.Themes[0] != "ambiance" || decision.Themes[1] != "lets_dance" {
			t.Errorf("expected deduplicated theme set, got %v", decision.Themes)
		}
		if session.CurrentIndex != 1 {
			t.Errorf("expected re-decide not to advance cursor, got %d", session.CurrentIndex)
		}
	})

	t.Run("Skip Has No Playlist Side Effect", func(t *testing.T) {
		f := newEngineFixture(t)
		tracks := testTracks()
		session, _ := f.engine.ResumeOrStart(tracks)

		if _, err := f.engine.Skip(session, tracks[0]); err != nil {
			t.Fatalf("skip failed: %v", err)
		}
		if undone, err := f.engine.Undo(session); err != nil || undone == nil {
			t.Fatalf("undo failed: %v", err)
		}

		if len(f.syncer.Added()) != 0 || len(f.syncer.Removed()) != 0 {
			t.Errorf("expected no sync ops for skip/undo, got %v / %v", f.syncer.Added(), f.syncer.Removed())
		}
	})

	t.Run("Undo Reverses Decide", func(t *testing.T) {
		f := newEngineFixture(t)
		tracks := testTracks()
		session, _ := f.engine.ResumeOrStart(tracks)

		if _, err := f.engine.Decide(session, tracks[0], "ambiance"); err != nil {
			t.Fatalf("decide failed: %v", err)
		}

		undone, err := f.engine.Undo(session)
		if err != nil {
			t.Fatalf("undo failed: %v", err)
		}
		if undone == nil || undone.TrackID != "t1" {
			t.Fatalf("expected undone decision for t1, got %+v", undone)
		}
		if session.CurrentIndex != 0 || len(session.Decisions) != 0 {
			t.Errorf("expected cursor restored, got %d/%d", session.CurrentIndex, len(session.Decisions))
		}

		f.drainWorker(t, 2)
		if len(f.syncer.Removed()) != 1 {
			t.Errorf("expected one recorded remove, got %v", f.syncer.Removed())
		}
	})

	t.Run("Undo On Fresh Session", func(t *testing.T) {
		f := newEngineFixture(t)
		session, _ := f.engine.ResumeOrStart(testTracks())

		undone, err := f.engine.Undo(session)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if undone != nil {
			t.Errorf("expected nil result, got %+v", undone)
		}
		if session.CurrentIndex != 0 || len(session.Decisions) != 0 {
			t.Error("expected state unchanged")
		}
	})

	t.Run("Persistence Round Trip", func(t *testing.T) {
		f := newEngineFixture(t)
		tracks := testTracks()
		session, _ := f.engine.ResumeOrStart(tracks)

		if _, err := f.engine.Decide(session, tracks[0], "ambiance"); err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if _, err := f.engine.Decide(session, tracks[0], "lets_dance"); err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if _, err := f.engine.Skip(session, tracks[1]); err != nil {
			t.Fatalf("skip failed: %v", err)
		}

		loaded, err := f.progress.Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}

		if loaded.CurrentIndex != session.CurrentIndex {
			t.Errorf("cursor mismatch: %d vs %d", loaded.CurrentIndex, session.CurrentIndex)
		}
		if len(loaded.Decisions) != 2 {
			t.Fatalf("expected 2 decisions, got %d", len(loaded.Decisions))
		}
		if len(loaded.Decisions[0].Themes) != 2 {
			t.Errorf("expected multi-theme decision to round-trip, got %v", loaded.Decisions[0].Themes)
		}
		if !loaded.Decisions[1].Skipped {
			t.Error("expected skip flag to round-trip")
		}
	})
}

// Exercises the full scenario: classify, undo, skip, classify, with the
// automatic export firing once at completion.
func TestEngineFullRun(t *testing.T) {
	f := newEngineFixture(t)
	tracks := testTracks()
	session, err := f.engine.ResumeOrStart(tracks)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := f.engine.Decide(session, tracks[0], "ambiance"); err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if _, err := f.engine.Decide(session, tracks[1], "lets_dance"); err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if _, err := f.engine.Undo(session); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if _, err := f.engine.Skip(session, tracks[1]); err != nil {
		t.Fatalf("skip failed: %v", err)
	}
	if _, err := f.engine.Decide(session, tracks[2], "lets_dance"); err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	if session.CurrentIndex != 3 {
		t.Errorf("expected current_index 3, got %d", session.CurrentIndex)
	}
	if session.State() != models.Complete {
		t.Errorf("expected complete state, got %s", session.State())
	}

	decisions := session.Decisions
	if len(decisions) != 3 {
		t.Fatalf("expected 3 decisions, got %d", len(decisions))
	}
	if decisions[0].TrackID != "t1" || decisions[0].Themes[0] != "ambiance" {
		t.Errorf("unexpected first decision %+v", decisions[0])
	}
	if decisions[1].TrackID != "t2" || !decisions[1].Skipped || len(decisions[1].Themes) != 0 {
		t.Errorf("unexpected second decision %+v", decisions[1])
	}
	if decisions[2].TrackID != "t3" || decisions[2].Themes[0] != "lets_dance" {
		t.Errorf("unexpected third decision %+v", decisions[2])
	}

	tu.AssertFileExists(t, f.export)
	lines := strings.Split(strings.TrimSpace(tu.MustReadFile(t, f.export)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(lines))
	}
	if !strings.Contains(lines[1], "ambiance") {
		t.Errorf("unexpected row %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], ",true") {
		t.Errorf("expected skipped row, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "lets_dance") {
		t.Errorf("unexpected row %q", lines[3])
	}

	// completing again after undo + redo must not re-export
	if _, err := f.engine.Undo(session); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if err := os.Remove(f.export); err != nil {
		t.Fatalf("failed to remove export: %v", err)
	}
	if _, err := f.engine.Decide(session, tracks[2], "ambiance"); err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if fileExists(f.export) {
		t.Error("expected export to fire only once per engine lifetime")
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
