// Package session owns the single tutor session and is the only code that
// mutates it.
//
// The Coordinator routes every user action (practical selection, editor
// edits, overlay gestures, tutor paging, runs, keyboard chords) through a
// named operation. Each operation updates state under one mutex, bumps the
// state version and publishes events on the session Bus. Front ends read
// state only through Snapshot and react to events; they never mutate it.
//
// The execution round trip is the one operation that suspends. The
// Coordinator does not hold its lock across it, and the single-flight
// Pipeline underneath refuses overlapping runs.
package session
