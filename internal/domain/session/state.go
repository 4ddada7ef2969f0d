package session

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/labmat/internal/domain/content"
	"github.com/GriffinCanCode/labmat/internal/domain/execution"
	"github.com/GriffinCanCode/labmat/internal/domain/explain"
	"github.com/GriffinCanCode/labmat/internal/domain/overlay"
)

// Tab is an output pane.
type Tab string

const (
	TabTheory  Tab = "theory"
	TabPlots   Tab = "plots"
	TabConsole Tab = "console"
)

// ParseTab validates a tab name.
func ParseTab(s string) (Tab, error) {
	switch t := Tab(strings.ToLower(strings.TrimSpace(s))); t {
	case TabTheory, TabPlots, TabConsole:
		return t, nil
	default:
		return "", fmt.Errorf("unknown tab %q", s)
	}
}

// ConsoleStyle colours the console pane.
type ConsoleStyle string

const (
	ConsoleNormal  ConsoleStyle = "normal"
	ConsoleSuccess ConsoleStyle = "success"
	ConsoleError   ConsoleStyle = "error"
)

// ReadyText is the idle console text.
const ReadyText = "Ready to execute code..."

// ConsoleView is what the console pane shows.
type ConsoleView struct {
	Text  string       `json:"text"`
	Style ConsoleStyle `json:"style"`
}

// PlotState selects the plot pane content.
type PlotState string

const (
	PlotsEmpty PlotState = "empty"
	PlotsShown PlotState = "plots"
	PlotsError PlotState = "error"
)

// PlotView is what the plot pane shows.
type PlotView struct {
	State PlotState        `json:"state"`
	Plots []execution.Plot `json:"plots,omitempty"`
}

// TutorProgress describes the tutor page for display.
type TutorProgress struct {
	Index     int                `json:"index"`
	Page      int                `json:"page"`
	Total     int                `json:"total"`
	Percent   float64            `json:"percent"`
	Completed []int              `json:"completed"`
	Topic     content.TutorTopic `json:"topic"`
}

// Label renders "n / N".
func (p TutorProgress) Label() string {
	return fmt.Sprintf("%d / %d", p.Page, p.Total)
}

// TheoryView is the theory pane for the selected practical.
type TheoryView struct {
	PracticalID  int                `json:"practicalId"`
	Title        string             `json:"title"`
	Objective    string             `json:"objective"`
	Theory       string             `json:"theory"`
	Explanations explain.Dictionary `json:"explanations"`
}

// state is the session data. Only the Coordinator touches it.
type state struct {
	selectedPracticalID *int
	tutorPageIndex      int
	explainModeEnabled  bool
	overlays            *overlay.Coordinator
	editorText          string
	lastRunOutcome      *execution.Outcome

	activeTab Tab
	console   ConsoleView
	plots     PlotView
	loading   bool
}

func newState(sidebarOpen bool) state {
	var initial []overlay.Surface
	if sidebarOpen {
		initial = append(initial, overlay.Sidebar)
	}
	return state{
		overlays:  overlay.NewCoordinator(initial...),
		activeTab: TabTheory,
		console:   ConsoleView{Text: ReadyText, Style: ConsoleNormal},
		plots:     PlotView{State: PlotsEmpty},
	}
}

// Snapshot is an immutable copy of session state.
type Snapshot struct {
	Version             uint64             `json:"version"`
	SelectedPracticalID *int               `json:"selectedPracticalId"`
	Practical           *content.Summary   `json:"practical,omitempty"`
	Tutor               TutorProgress      `json:"tutor"`
	ExplainModeEnabled  bool               `json:"explainModeEnabled"`
	Overlays            []overlay.Surface  `json:"overlays"`
	EditorText          string             `json:"editorText"`
	LastRunOutcome      *execution.Outcome `json:"lastRunOutcome"`
	ActiveTab           Tab                `json:"activeTab"`
	Console             ConsoleView        `json:"console"`
	Plots               PlotView           `json:"plots"`
	Loading             bool               `json:"loading"`
}

// IsOpen reports whether s was open when the snapshot was taken.
func (s Snapshot) IsOpen(surface overlay.Surface) bool {
	for _, o := range s.Overlays {
		if o == surface {
			return true
		}
	}
	return false
}
