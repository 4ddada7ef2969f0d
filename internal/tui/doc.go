// Package tui is the terminal front end for the tutor session.
//
// The Model renders a practical sidebar, a code editor, the output panes
// and the explain panel, with the shortcuts and tutor dialogs drawn as
// centered overlays. Every gesture goes through the session coordinator;
// the model only mirrors what session events report.
package tui
