// Package overlay tracks the five overlay surfaces of the tutor UI
// (shortcuts modal, sidebar drawer, tutor modal, explain panel, fullscreen
// editor) and resolves the Escape gesture to exactly one dismissal.
//
// Surfaces may overlap. DismissTopmost always closes the first open surface in
// the fixed order Shortcuts, Sidebar, Tutor, Explain, Fullscreen.
package overlay
