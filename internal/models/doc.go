// Package models defines domain entities for the liked-songs classification workflow.
//
// The package contains two categories of types:
//
// 1. Immutable value records fetched or configured once per run:
//   - [Track] : Liked-song metadata snapshot from Spotify
//   - [Theme] : A destination category with its keyboard shortcut
//   - [Suggestion] : One LLM-proposed theme for a track, with confidence and rationale
//
// 2. Session state mutated by the classification engine:
//   - [Decision] : The recorded outcome (theme keys, or skipped) for one track
//   - [ClassificationSession] : The ordered, resumable cursor over the track list
//
// [ClassificationSession] maintains the invariant CurrentIndex == len(Decisions):
// decide and skip advance both by one, undo retracts both by one. Lifecycle state
// ([SessionState]) is always derived from the cursor, never stored.
package models
