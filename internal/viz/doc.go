// Package viz renders simulation results in the terminal.
//
//   - [Player]: Bubble Tea playback of a finished trajectory
//   - [Plot]: multi-series asciigraph chart of compartment activity
//   - [Summary]: lipgloss panel with final activities and metrics
//   - [Canvas]: Braille pixel canvas used by the player and SVG export
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	R     - Rewind to t=0
//	[ ]   - Scrub backward/forward
//	+ -   - Playback speed
//	Tab   - Cycle compartment
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
