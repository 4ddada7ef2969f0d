package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/GriffinCanCode/labmat/internal/domain/content"
	"github.com/GriffinCanCode/labmat/internal/domain/overlay"
	"github.com/GriffinCanCode/labmat/internal/domain/session"
)

const helpLine = "ctrl+r run • ctrl+b sidebar • tab focus • ctrl+t tutor • ctrl+e explain • ? shortcuts • ctrl+c quit"

// View implements tea.Model.
func (m Model) View() string {
	switch {
	case m.snap.IsOpen(overlay.Shortcuts):
		return m.place(m.renderShortcuts())
	case m.snap.IsOpen(overlay.Tutor):
		return m.place(m.renderTutor())
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderBody(),
		m.renderFooter(),
	)
}

func (m Model) place(modal string) string {
	return lipgloss.Place(max(m.width, minWidth), max(m.height, minHeight),
		lipgloss.Center, lipgloss.Center, modal)
}

func (m Model) renderHeader() string {
	title := headerStyle.Render("MATLAB Lab Tutor")
	practical := mutedStyle.Render("no practical selected")
	if p := m.snap.Practical; p != nil {
		practical = badgeStyle.Render(fmt.Sprintf("Practical %d: %s", p.ID, p.Title))
	}
	parts := []string{title, practical}
	if m.snap.ExplainModeEnabled {
		parts = append(parts, successStyle.Render("[explain]"))
	}
	if m.snap.Loading {
		parts = append(parts, m.spinner.View()+" running")
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderBody() string {
	var columns []string
	fullscreen := m.snap.IsOpen(overlay.Fullscreen)
	if m.snap.IsOpen(overlay.Sidebar) && !fullscreen {
		columns = append(columns, m.renderSidebar())
	}
	columns = append(columns, m.renderEditor())
	if !fullscreen {
		columns = append(columns, m.renderOutput())
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, columns...)
	if m.snap.IsOpen(overlay.Explain) {
		body = lipgloss.JoinVertical(lipgloss.Left, body, m.renderExplain())
	}
	return body
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Practicals"))
	b.WriteString("\n")
	headed := false
	for i, item := range m.items {
		var label string
		switch {
		case item.practical != nil:
			label = fmt.Sprintf("%d. %s", item.practical.ID, item.practical.Title)
			if id := m.snap.SelectedPracticalID; id != nil && *id == item.practical.ID {
				label = "● " + label
			}
		case item.snippet != nil:
			if !headed {
				b.WriteString("\n")
				b.WriteString(panelTitleStyle.Render("Quick reference"))
				b.WriteString("\n")
				headed = true
			}
			label = fmt.Sprintf("%s  %s", item.snippet.Command, mutedStyle.Render(item.snippet.Label))
		}
		label = truncate(label, sidebarWidth-2)
		if i == m.cursor && !m.editorFocused() {
			label = selectedStyle.Render("> " + label)
		} else {
			label = "  " + label
		}
		b.WriteString(label)
		b.WriteString("\n")
	}

	style := panelStyle
	if !m.editorFocused() {
		style = focusedPanelStyle
	}
	return style.Width(sidebarWidth).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderEditor() string {
	style := panelStyle
	if m.editorFocused() {
		style = focusedPanelStyle
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left,
		panelTitleStyle.Render("Editor"),
		m.editor.View(),
	))
}

func (m Model) renderOutput() string {
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		m.output.View(),
	))
}

func (m Model) renderTabs() string {
	tabs := []struct {
		tab   session.Tab
		label string
	}{
		{session.TabTheory, "1 Theory"},
		{session.TabPlots, "2 Plots"},
		{session.TabConsole, "3 Console"},
	}
	out := make([]string, 0, len(tabs))
	for _, t := range tabs {
		if t.tab == m.snap.ActiveTab {
			out = append(out, activeTabStyle.Render(t.label))
		} else {
			out = append(out, tabStyle.Render(t.label))
		}
	}
	return strings.Join(out, "  ")
}

// refreshOutput renders the active tab into the viewport.
func (m *Model) refreshOutput() {
	var text string
	switch m.snap.ActiveTab {
	case session.TabPlots:
		text = m.plotsText()
	case session.TabConsole:
		text = m.consoleText()
	default:
		text = m.theoryText()
	}
	m.output.SetContent(text)
	m.output.GotoTop()
}

func (m Model) theoryText() string {
	view, err := m.session.Theory()
	if err != nil {
		return mutedStyle.Render("Select a practical to view its theory.")
	}
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render(view.Title))
	b.WriteString("\n")
	if view.Objective != "" {
		b.WriteString(badgeStyle.Render("Objective: "))
		b.WriteString(view.Objective)
		b.WriteString("\n\n")
	}
	b.WriteString(wrap(content.PlainText(view.Theory), m.output.Width))
	return b.String()
}

func (m Model) plotsText() string {
	switch m.snap.Plots.State {
	case session.PlotsError:
		return errorStyle.Render("Plot generation failed. See the console for details.")
	case session.PlotsShown:
		var b strings.Builder
		for i, p := range m.snap.Plots.Plots {
			data, mime, err := p.Decode()
			if err != nil {
				fmt.Fprintf(&b, "%s\n", errorStyle.Render(fmt.Sprintf("Plot %d: unreadable image", i+1)))
				continue
			}
			fmt.Fprintf(&b, "Plot %d  %s  %s\n", i+1, mime, mutedStyle.Render(fmt.Sprintf("%d bytes", len(data))))
		}
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Images are served at /session/plots/{n} by the HTTP server."))
		return b.String()
	default:
		return mutedStyle.Render("Plots will appear here after running code.")
	}
}

func (m Model) consoleText() string {
	text := wrap(m.snap.Console.Text, m.output.Width)
	switch m.snap.Console.Style {
	case session.ConsoleSuccess:
		return successStyle.Render(text)
	case session.ConsoleError:
		return errorStyle.Render(text)
	default:
		return text
	}
}

func (m Model) renderExplain() string {
	entries := m.session.Explanations()
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Explanations"))
	if len(entries) == 0 {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Nothing to explain yet."))
	}
	for _, e := range entries {
		b.WriteString("\n")
		b.WriteString(badgeStyle.Render(truncate(e.Line, 40)))
		b.WriteString("  ")
		b.WriteString(e.Explanation)
	}
	return panelStyle.Width(max(m.width, minWidth) - 4).Render(b.String())
}

func (m Model) renderFooter() string {
	if m.status != nil {
		msg := m.status.Message
		switch m.status.Level {
		case session.LevelSuccess:
			return successStyle.Render("✓ " + msg)
		case session.LevelError:
			return errorStyle.Render("✗ " + msg)
		default:
			return badgeStyle.Render("• " + msg)
		}
	}
	return mutedStyle.Render(helpLine)
}

func (m Model) renderShortcuts() string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Keyboard shortcuts"))
	b.WriteString("\n\n")
	for _, binding := range m.session.Keys().Bindings() {
		fmt.Fprintf(&b, "%-20s %s\n", binding.Chord.String(), binding.Description)
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("mod is ctrl or alt in the terminal • esc to close"))
	return modalStyle.Render(b.String())
}

func (m Model) renderTutor() string {
	p := m.snap.Tutor
	width := min(max(m.width, minWidth)-10, 80)

	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("MATLAB Tutor"))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(p.Label()))
	b.WriteString("\n")
	b.WriteString(progressBar(p.Percent, width-4))
	b.WriteString("\n\n")
	b.WriteString(badgeStyle.Render(p.Topic.Title))
	b.WriteString("\n\n")
	b.WriteString(wrap(content.PlainText(p.Topic.Content), width-4))
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("← prev • → next • esc close"))
	return modalStyle.Width(width).Render(b.String())
}

func progressBar(percent float64, width int) string {
	width = max(width, 10)
	filled := int(percent / 100 * float64(width))
	filled = min(max(filled, 0), width)
	return progressFill.Render(strings.Repeat("█", filled)) +
		progressEmpty.Render(strings.Repeat("░", width-filled))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}
