// Package keys maps keyboard chords onto session actions.
//
// Chords are written as "+"-joined tokens, for example "mod+enter" or
// "mod+shift+delete". "mod" matches either Control or Command, so one
// registry serves every platform.
package keys

import (
	"fmt"
	"slices"
	"strings"
)

// Action is what a chord asks the session to do.
type Action uint8

const (
	NoAction Action = iota
	Run
	ToggleSidebar
	OpenShortcuts
	ClearEditor
	Dismiss
)

var actionNames = [...]string{
	NoAction:      "none",
	Run:           "run",
	ToggleSidebar: "toggle_sidebar",
	OpenShortcuts: "open_shortcuts",
	ClearEditor:   "clear_editor",
	Dismiss:       "dismiss",
}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Chord is a normalized key press.
type Chord struct {
	Key   string `json:"key"`
	Mod   bool   `json:"mod"`
	Shift bool   `json:"shift"`
}

var keyAliases = map[string]string{
	"escape": "esc",
	"return": "enter",
	"del":    "delete",
}

func normalizeKey(k string) string {
	lower := strings.ToLower(k)
	if alias, ok := keyAliases[lower]; ok {
		return alias
	}
	return lower
}

// FromEvent builds a chord from raw browser or terminal key state.
func FromEvent(key string, ctrl, meta, shift bool) Chord {
	return Chord{Key: normalizeKey(key), Mod: ctrl || meta, Shift: shift}
}

// ParseChord parses "mod+shift+key" notation. "ctrl", "cmd" and "meta" are
// accepted as synonyms for "mod".
func ParseChord(s string) (Chord, error) {
	if strings.TrimSpace(s) == "" {
		return Chord{}, fmt.Errorf("empty chord")
	}
	parts := strings.Split(s, "+")

	var c Chord
	for i, p := range parts {
		tok := strings.ToLower(strings.TrimSpace(p))
		last := i == len(parts)-1
		switch {
		case !last && (tok == "mod" || tok == "ctrl" || tok == "cmd" || tok == "meta"):
			c.Mod = true
		case !last && tok == "shift":
			c.Shift = true
		case last && tok != "":
			c.Key = normalizeKey(tok)
		default:
			return Chord{}, fmt.Errorf("invalid chord %q", s)
		}
	}
	return c, nil
}

// MustParse is ParseChord for static tables.
func MustParse(s string) Chord {
	c, err := ParseChord(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Chord) String() string {
	var b strings.Builder
	if c.Mod {
		b.WriteString("mod+")
	}
	if c.Shift {
		b.WriteString("shift+")
	}
	b.WriteString(c.Key)
	return b.String()
}

// Binding ties a chord to an action. A binding without Shift matches
// whether or not Shift is held, so "?" works on layouts where it is a
// shifted key.
type Binding struct {
	Chord       Chord  `json:"chord"`
	Action      Action `json:"action"`
	Description string `json:"description"`
	// RequiresBlurredEditor suppresses the binding while the editor has focus,
	// so typing the key inserts it instead.
	RequiresBlurredEditor bool `json:"requiresBlurredEditor,omitempty"`
}

func (b Binding) matches(c Chord) bool {
	return b.Chord.Key == c.Key && b.Chord.Mod == c.Mod && (!b.Chord.Shift || c.Shift)
}

// Registry resolves chords to actions.
type Registry struct {
	bindings []Binding
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Default returns the standard tutor bindings.
func Default() *Registry {
	r := NewRegistry()
	for _, b := range []Binding{
		{Chord: MustParse("mod+enter"), Action: Run, Description: "Run code"},
		{Chord: MustParse("mod+b"), Action: ToggleSidebar, Description: "Toggle sidebar"},
		{Chord: MustParse("?"), Action: OpenShortcuts, Description: "Show shortcuts", RequiresBlurredEditor: true},
		{Chord: MustParse("mod+shift+delete"), Action: ClearEditor, Description: "Clear editor"},
		{Chord: MustParse("esc"), Action: Dismiss, Description: "Close topmost panel"},
	} {
		if err := r.Register(b); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a binding. Registering the same chord twice is an error.
func (r *Registry) Register(b Binding) error {
	if b.Chord.Key == "" {
		return fmt.Errorf("binding for %s has no key", b.Action)
	}
	if b.Action == NoAction {
		return fmt.Errorf("binding %s has no action", b.Chord)
	}
	for _, existing := range r.bindings {
		if existing.Chord == b.Chord {
			return fmt.Errorf("chord %s already bound to %s", b.Chord, existing.Action)
		}
	}
	r.bindings = append(r.bindings, b)
	// Shift-qualified bindings are tried first so they win over their
	// shift-agnostic twins.
	slices.SortStableFunc(r.bindings, func(a, b Binding) int {
		switch {
		case a.Chord.Shift == b.Chord.Shift:
			return 0
		case a.Chord.Shift:
			return -1
		default:
			return 1
		}
	})
	return nil
}

// Resolve returns the action bound to c, honoring editor focus.
func (r *Registry) Resolve(c Chord, editorFocused bool) (Action, bool) {
	for _, b := range r.bindings {
		if !b.matches(c) {
			continue
		}
		if b.RequiresBlurredEditor && editorFocused {
			return NoAction, false
		}
		return b.Action, true
	}
	return NoAction, false
}

// Bindings lists the registered bindings.
func (r *Registry) Bindings() []Binding {
	return slices.Clone(r.bindings)
}
