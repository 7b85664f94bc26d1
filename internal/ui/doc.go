// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing enrollment data:
//  1. [YearListView] : Pick a school year within provider bounds
//  2. [FetchView] : Monitor the fetch with real-time progress updates
//  3. [DistrictListView] : Browse districts with total enrollment
//  4. [SchoolListView] : Drill into one district's schools
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via typed msg structs.
// Progress updates flow through a channel from the EnrollmentEngine, providing non-blocking status reporting during fetches.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
