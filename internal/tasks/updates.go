package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/20uf/tidy-ur-spotify/internal/shared"
)

// SyncAction enumerates the playlist mutations a job can carry.
type SyncAction int

const (
	SyncAdd SyncAction = iota
	SyncRemove
)

func (a SyncAction) String() string {
	switch a {
	case SyncAdd:
		return "add"
	case SyncRemove:
		return "remove"
	default:
		return ""
	}
}

// SyncJob is one queued playlist mutation.
type SyncJob struct {
	Action   SyncAction
	ThemeKey string
	TrackID  string
}

// SyncResult reports one completed or failed job. The UI keys failures by
// track id to show a per-track sync indicator.
type SyncResult struct {
	Job SyncJob
	Err error
}

// SyncWorker executes playlist mutations on a single background goroutine
// fed by a bounded queue. The session engine enqueues without blocking;
// every outcome, including a full queue, is published on the results
// channel so a failed write is never silent.
type SyncWorker struct {
	syncer  Syncer
	jobs    chan SyncJob
	results chan SyncResult
	logger  *log.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

// NewSyncWorker creates a worker over the given syncer. queueSize bounds
// the number of pending mutations.
func NewSyncWorker(syncer Syncer, queueSize int, logger *log.Logger) *SyncWorker {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &SyncWorker{
		syncer:  syncer,
		jobs:    make(chan SyncJob, queueSize),
		results: make(chan SyncResult, queueSize),
		logger:  shared.WithLogger(logger, "component", "sync_worker"),
		done:    make(chan struct{}),
	}
}

// Start launches the worker goroutine. Subsequent calls are no-ops.
func (w *SyncWorker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		go w.run(ctx)
	})
}

func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.jobs:
			if !ok {
				return
			}

			var err error
			switch job.Action {
			case SyncAdd:
				err = w.syncer.AddTrack(ctx, job.ThemeKey, job.TrackID)
			case SyncRemove:
				err = w.syncer.RemoveTrack(ctx, job.ThemeKey, job.TrackID)
			}

			if err != nil {
				w.logger.Warn("sync job failed", "action", job.Action, "theme", job.ThemeKey, "track", job.TrackID, "error", err)
			}

			w.publish(SyncResult{Job: job, Err: err})
		}
	}
}

// Enqueue submits a job without blocking. When the queue is full the job
// is dropped and reported as a failed result instead.
func (w *SyncWorker) Enqueue(job SyncJob) {
	select {
	case w.jobs <- job:
	default:
		w.logger.Warn("sync queue full, dropping job", "action", job.Action, "track", job.TrackID)
		w.publish(SyncResult{Job: job, Err: fmt.Errorf("%w: sync queue full", shared.ErrServiceUnavailable)})
	}
}

// publish never blocks; a slow or absent consumer loses old results
// rather than stalling the worker.
func (w *SyncWorker) publish(result SyncResult) {
	select {
	case w.results <- result:
	default:
	}
}

// Results is the stream of job outcomes.
func (w *SyncWorker) Results() <-chan SyncResult {
	return w.results
}

// Close stops accepting jobs and waits for in-flight work to finish.
func (w *SyncWorker) Close() {
	w.stopOnce.Do(func() {
		close(w.jobs)
		<-w.done
	})
}
