// Package ui implements the interactive classification interface using
// bubbletea's Elm architecture.
//
// The TUI walks through three views:
//  1. [LoadingView] : Fetch liked songs and resume or start the session
//  2. [ClassifyView] : One track at a time; theme shortcuts decide, s skips, u undoes
//  3. [DoneView] : Summary with per-track sync failures and a final undo escape hatch
//
// The [Model] implements the standard Init/Update/View pattern. Each cursor
// advance re-triggers the classifier preload over the look-ahead window, so
// suggestions for upcoming tracks are usually cached before they are shown;
// until then the suggestion panel displays a spinner. Playlist sync outcomes
// arrive asynchronously on the worker's result channel and surface as
// per-track failure markers without blocking the session.
package ui
