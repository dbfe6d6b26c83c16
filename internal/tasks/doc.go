// Package tasks holds the classification workflow core: the session
// engine, the LLM classifier gateway, and the playlist synchronizer.
//
// # Session Engine
//
// [Engine] drives an ordered, resumable cursor over the liked-songs list:
//
//  1. [Engine.ResumeOrStart] : load the persisted session or start fresh,
//     reconciling a resumed session against the current library by track id
//  2. [Engine.Decide] / [Engine.Skip] : resolve the current track and
//     advance the cursor
//  3. [Engine.Undo] : retract the last decision and queue the inverse
//     playlist mutations
//
// The invariant current_index == len(decisions) holds after every
// mutation, and every mutation persists before returning. When the cursor
// first reaches the end of the list the engine exports the decision CSV
// exactly once.
//
// # Classifier Gateway
//
// [Classifier] batches tracks into one LLM prompt and memoizes results at
// two levels: an in-memory map for the process and a content-addressed
// persistent store across runs. [Namespace] and [TrackCacheKey] address
// entries by classification configuration and track metadata, so any
// drift in provider, model, themes, or track fields re-classifies
// transparently. [Classifier.Preload] warms a look-ahead window on a
// background goroutine; each call supersedes the previous one via a
// generation counter checked at batch boundaries.
//
// # Playlist Synchronizer
//
// [Syncer] maps theme keys to remote playlists and maintains membership.
// [SpotifySyncer] resolves or creates playlists by exact name, pre-checks
// membership so adds are idempotent, and rate-limits remote calls.
// [DryRunSyncer] records the same operations in memory for audit runs.
// [SyncWorker] executes mutations on a single background goroutine with a
// bounded queue and publishes every outcome on a results channel, so the
// UI can flag tracks whose remote state diverged.
package tasks
