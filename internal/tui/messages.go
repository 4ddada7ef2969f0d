package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/GriffinCanCode/labmat/internal/domain/session"
)

// statusTTL is how long a notification stays in the footer.
const statusTTL = 4 * time.Second

// sessionEventMsg wraps a session event for delivery through the update loop.
type sessionEventMsg struct {
	event session.Event
}

// runFinishedMsg reports the end of a run started from the terminal.
type runFinishedMsg struct {
	err error
}

type clearStatusMsg struct {
	seq int
}

// listenForSessionEvent blocks until an event arrives on channel. A closed
// channel yields nil, which ends the listen loop.
func listenForSessionEvent(channel <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-channel
		if !ok {
			return nil
		}
		return sessionEventMsg{event: event}
	}
}

func runCmd(s *session.Coordinator) tea.Cmd {
	return func() tea.Msg {
		_, err := s.Run(context.Background())
		return runFinishedMsg{err: err}
	}
}

func clearStatusAfter(seq int) tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}
