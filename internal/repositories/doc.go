// Package repositories implements local persistence for the classification
// workflow.
//
// Three stores, three durability levels:
//   - [TrackRepository] : SQLite snapshot of the liked-songs library,
//     keyed by fetch position so sessions replay the exact library order.
//   - [PersistentSuggestionCache] : JSON file of LLM suggestions keyed by
//     namespace and track content hash, so a drifted track re-classifies
//     while untouched tracks never hit the provider twice.
//   - [ProgressStore] : JSON file holding the resumable session cursor,
//     track order, and decisions.
//
// Both JSON stores write through a temp file and rename, so a crash
// mid-write leaves the previous file intact. An unreadable file is treated
// as empty rather than fatal: losing a cache costs API calls, not data.
package repositories
