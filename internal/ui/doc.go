// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for batch image analysis:
//  1. [MediaListView] : Browse the media library and toggle items for analysis
//  2. [ConfirmView] : Confirm the batch before submitting
//  3. [AnalyzeView] : Monitor real-time progress updates
//  4. [ResultView] : Display the succeeded/failed tally and per-item errors
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the batch engine, providing non-blocking status reporting during runs.
//
// Keyboard navigation uses vim-style bindings (j/k, space, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
