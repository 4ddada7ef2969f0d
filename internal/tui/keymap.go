package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/GriffinCanCode/labmat/internal/domain/keys"
)

// Terminals cannot deliver ctrl+enter or ctrl+shift+delete, so these
// chords stand in for them.
var terminalAliases = []keys.Binding{
	{Chord: keys.MustParse("mod+r"), Action: keys.Run, Description: "Run code"},
	{Chord: keys.MustParse("mod+x"), Action: keys.ClearEditor, Description: "Clear editor"},
}

// Bindings returns the standard bindings plus the terminal aliases.
func Bindings() *keys.Registry {
	r := keys.Default()
	for _, b := range terminalAliases {
		if err := r.Register(b); err != nil {
			panic(err)
		}
	}
	return r
}

// chordFromKey translates a bubbletea key into a chord. Alt counts as the
// platform modifier.
func chordFromKey(msg tea.KeyMsg) (keys.Chord, bool) {
	s := msg.String()
	if s == "" || (msg.Type == tea.KeyRunes && len(msg.Runes) > 1) {
		return keys.Chord{}, false
	}
	s = strings.Replace(s, "alt+", "mod+", 1)
	if s == "+" {
		return keys.Chord{Key: "+"}, true
	}
	c, err := keys.ParseChord(s)
	if err != nil {
		return keys.Chord{}, false
	}
	return c, true
}
