package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/GriffinCanCode/labmat/internal/domain/content"
	"github.com/GriffinCanCode/labmat/internal/domain/keys"
	"github.com/GriffinCanCode/labmat/internal/domain/overlay"
	"github.com/GriffinCanCode/labmat/internal/domain/session"
)

const (
	sidebarWidth = 34
	minWidth     = 60
	minHeight    = 16
)

// sidebarItem is a practical or a quick-reference snippet.
type sidebarItem struct {
	practical *content.Summary
	snippet   *content.QuickRef
}

// Model is the bubbletea model for the tutor.
type Model struct {
	session *session.Coordinator
	events  <-chan session.Event
	cancel  func()

	editor  textarea.Model
	output  viewport.Model
	spinner spinner.Model

	items  []sidebarItem
	cursor int

	snap      session.Snapshot
	status    *session.Notification
	statusSeq int

	width  int
	height int
}

// New creates a model over coordinator. The caller owns the coordinator; the
// model only subscribes to it.
func New(coordinator *session.Coordinator) Model {
	editor := textarea.New()
	editor.CharLimit = 0
	editor.Prompt = ""
	editor.ShowLineNumbers = true
	editor.Placeholder = "% Select a practical or start typing MATLAB code..."
	editor.SetWidth(60)
	editor.SetHeight(16)
	editor.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = badgeStyle

	store := coordinator.Store()
	var items []sidebarItem
	for _, p := range store.Practicals() {
		items = append(items, sidebarItem{practical: &p})
	}
	for _, q := range store.QuickRef() {
		items = append(items, sidebarItem{snippet: &q})
	}

	events, cancel := coordinator.Subscribe(64)
	m := Model{
		session: coordinator,
		events:  events,
		cancel:  cancel,
		editor:  editor,
		output:  viewport.New(60, 16),
		spinner: spin,
		items:   items,
		width:   120,
		height:  36,
	}
	m.snap = coordinator.Snapshot()
	m.editor.SetValue(m.snap.EditorText)
	m.layout()
	m.refreshOutput()
	return m
}

// Close releases the event subscription.
func (m Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, listenForSessionEvent(m.events))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refreshOutput()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionEventMsg:
		cmd := m.applyEvent(msg.event)
		return m, tea.Batch(cmd, listenForSessionEvent(m.events))

	case runFinishedMsg:
		// The outcome arrives through session events.
		return m, nil

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = nil
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *Model) applyEvent(e session.Event) tea.Cmd {
	switch e.Kind {
	case session.EventNotification:
		if e.Notification == nil {
			return nil
		}
		n := *e.Notification
		m.status = &n
		m.statusSeq++
		return clearStatusAfter(m.statusSeq)
	default:
		m.sync()
		return nil
	}
}

// sync pulls a fresh snapshot and mirrors it into the widgets.
func (m *Model) sync() {
	m.snap = m.session.Snapshot()
	if m.snap.EditorText != m.editor.Value() {
		m.editor.SetValue(m.snap.EditorText)
	}
	m.layout()
	m.refreshOutput()
}

func (m *Model) editorFocused() bool {
	return m.editor.Focused()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		m.Close()
		return m, tea.Quit
	}

	// Modal dialogs swallow keys other than their own.
	switch {
	case m.snap.IsOpen(overlay.Tutor):
		return m.handleTutorKey(msg)
	case m.snap.IsOpen(overlay.Shortcuts):
		switch msg.String() {
		case "esc", "?", "enter", "q":
			m.session.Dismiss()
			m.sync()
		}
		return m, nil
	}

	if chord, ok := chordFromKey(msg); ok {
		if action, ok := m.session.Keys().Resolve(chord, m.editorFocused()); ok {
			if action == keys.Run {
				return m, runCmd(m.session)
			}
			_, _ = m.session.HandleKey(context.Background(), chord, m.editorFocused())
			m.sync()
			return m, nil
		}
	}

	switch msg.String() {
	case "tab":
		m.toggleFocus()
		return m, nil
	case "ctrl+t":
		m.session.OpenTutor()
		m.sync()
		return m, nil
	case "ctrl+e":
		m.session.SetExplainMode(!m.snap.ExplainModeEnabled)
		m.sync()
		return m, nil
	case "ctrl+y":
		m.session.CopyCode()
		return m, nil
	case "ctrl+f":
		m.session.ToggleSurface(overlay.Fullscreen)
		m.sync()
		return m, nil
	}

	if !m.editorFocused() {
		return m.handleNavigationKey(msg)
	}

	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if after := m.editor.Value(); after != before {
		m.session.SetEditorText(after)
		m.snap = m.session.Snapshot()
		if m.snap.ExplainModeEnabled {
			m.refreshOutput()
		}
	}
	return m, cmd
}

func (m Model) handleTutorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.session.Dismiss()
	case "right", "l", "n", "pgdown":
		m.session.TutorStep(1)
	case "left", "h", "p", "pgup":
		m.session.TutorStep(-1)
	case "home", "g":
		m.session.TutorGoto(0)
	case "end", "G":
		m.session.TutorGoto(m.session.Store().TopicCount() - 1)
	default:
		return m, nil
	}
	m.sync()
	return m, nil
}

func (m Model) handleNavigationKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter":
		m.activate()
	case "1":
		m.session.SwitchTab(session.TabTheory)
	case "2":
		m.session.SwitchTab(session.TabPlots)
	case "3":
		m.session.SwitchTab(session.TabConsole)
	case "pgdown":
		m.output.ViewDown()
	case "pgup":
		m.output.ViewUp()
	case "q":
		m.Close()
		return m, tea.Quit
	default:
		return m, nil
	}
	m.sync()
	return m, nil
}

// activate selects the practical or inserts the snippet under the cursor.
func (m *Model) activate() {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return
	}
	item := m.items[m.cursor]
	switch {
	case item.practical != nil:
		_ = m.session.SelectPractical(item.practical.ID)
	case item.snippet != nil:
		_ = m.session.InsertSnippet(item.snippet.Command)
	}
	m.editor.Focus()
}

func (m *Model) toggleFocus() {
	if m.editor.Focused() {
		m.editor.Blur()
		if !m.snap.IsOpen(overlay.Sidebar) {
			m.session.OpenSurface(overlay.Sidebar)
			m.sync()
		}
		return
	}
	m.editor.Focus()
}

// layout sizes the widgets for the terminal and the open surfaces.
func (m *Model) layout() {
	width := max(m.width, minWidth)
	height := max(m.height, minHeight)

	bodyHeight := height - 6
	available := width - 4
	if m.snap.IsOpen(overlay.Sidebar) && !m.snap.IsOpen(overlay.Fullscreen) {
		available -= sidebarWidth + 2
	}

	editorWidth := available / 2
	if m.snap.IsOpen(overlay.Fullscreen) {
		editorWidth = available
	}
	m.editor.SetWidth(max(editorWidth-4, 20))
	m.editor.SetHeight(max(bodyHeight-2, 4))

	m.output.Width = max(available-editorWidth-4, 20)
	m.output.Height = max(bodyHeight-3, 4)
}
