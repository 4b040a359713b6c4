// Package ui implements the interactive review queue as a bubbletea
// application. The queue view lists pending assets, single-key decisions
// (keep, reject, clear) go through the workflow controller, and the batch
// view drives a queued move with a visible undo countdown.
package ui
