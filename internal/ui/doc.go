// Package ui implements an interactive terminal interface for the login flow using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [LoginView] : Output of the running login task, streamed into a scrollable viewport
//  2. [ResultView] : Outcome of the run (exit status, line count, journal id)
//  3. [HistoryView] : Recent runs from the journal, when one is configured
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Output lines flow through a channel fed by the [tasks.LoginBridge] sink; phase changes arrive on a
// separate non-blocking progress channel.
//
// Keyboard navigation uses vim-style bindings (j/k, esc, h, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
