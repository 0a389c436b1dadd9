// Package render schedules a progressive raymarch renderer inside a fixed
// per-frame time budget.
//
// A frame is split into partial passes. Each pass renders one cell of a
// Repeat grid at reduced resolution into a sample surface, and the passes are
// accumulated into full-resolution surfaces:
//
//	Plan → Sequencer (sample pass → composite/upsample) → Present.
//
// The first pass of every frame is mandatory and always presented. Later
// passes are opportunistic: a Session pulls them one at a time through a
// Scheduler, checks elapsed time after each one, and either keeps refining,
// shows what it has, or restarts with fresh camera state.
//
// The package never touches a graphics API directly. Surfaces are opaque
// handles created and drawn by a Backend, and the cooperative timeline is
// provided by a Scheduler with two distinct yield points: Defer for
// micro-yields between steps and OnFrame for display-synchronized waits.
// Everything in this package runs on the scheduler's goroutine; nothing
// locks.
package render
