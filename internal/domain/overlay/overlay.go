package overlay

import (
	"fmt"
	"strings"
)

// Surface identifies one overlay presentation region.
type Surface uint8

const (
	Shortcuts Surface = iota + 1
	Sidebar
	Tutor
	Explain
	Fullscreen
)

// None is returned by DismissTopmost when nothing was open.
const None Surface = 0

// priority is the dismissal order for the cancellation gesture.
var priority = [...]Surface{Shortcuts, Sidebar, Tutor, Explain, Fullscreen}

var surfaceNames = map[Surface]string{
	Shortcuts:  "shortcuts",
	Sidebar:    "sidebar",
	Tutor:      "tutor",
	Explain:    "explain",
	Fullscreen: "fullscreen",
}

// String returns the lower-case surface name.
func (s Surface) String() string {
	if name, ok := surfaceNames[s]; ok {
		return name
	}
	return "none"
}

// MarshalText implements encoding.TextMarshaler.
func (s Surface) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Surface) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Modal reports whether the surface is a modal dialog.
func (s Surface) Modal() bool {
	return s == Shortcuts || s == Tutor
}

// Parse resolves a surface name, case-insensitively.
func Parse(name string) (Surface, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range surfaceNames {
		if n == name {
			return s, nil
		}
	}
	return None, fmt.Errorf("unknown overlay surface %q", name)
}

// All returns every surface in dismissal priority order.
func All() []Surface {
	out := make([]Surface, len(priority))
	copy(out, priority[:])
	return out
}

// Coordinator tracks which overlay surfaces are visible.
// It is not safe for concurrent use; the session coordinator serializes access.
type Coordinator struct {
	open uint8
}

// NewCoordinator returns a coordinator with the given surfaces open.
func NewCoordinator(initial ...Surface) *Coordinator {
	c := &Coordinator{}
	for _, s := range initial {
		c.Open(s)
	}
	return c
}

func bit(s Surface) uint8 {
	if s == None || s > Fullscreen {
		return 0
	}
	return 1 << (s - 1)
}

// Open makes the surface visible.
func (c *Coordinator) Open(s Surface) {
	c.open |= bit(s)
}

// Close hides the surface.
func (c *Coordinator) Close(s Surface) {
	c.open &^= bit(s)
}

// Toggle flips the surface and returns its new visibility.
func (c *Coordinator) Toggle(s Surface) bool {
	c.open ^= bit(s)
	return c.IsOpen(s)
}

// IsOpen reports whether the surface is visible.
func (c *Coordinator) IsOpen(s Surface) bool {
	b := bit(s)
	return b != 0 && c.open&b != 0
}

// OpenSurfaces lists visible surfaces in priority order.
func (c *Coordinator) OpenSurfaces() []Surface {
	var out []Surface
	for _, s := range priority {
		if c.IsOpen(s) {
			out = append(out, s)
		}
	}
	return out
}

// DismissTopmost closes the highest-priority open surface and returns it.
// Priority, not recency, decides: Shortcuts, Sidebar, Tutor, Explain, Fullscreen.
// It returns None when nothing is open.
func (c *Coordinator) DismissTopmost() Surface {
	for _, s := range priority {
		if c.IsOpen(s) {
			c.Close(s)
			return s
		}
	}
	return None
}
