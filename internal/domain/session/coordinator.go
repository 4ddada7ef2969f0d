package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/labmat/internal/domain/content"
	"github.com/GriffinCanCode/labmat/internal/domain/execution"
	"github.com/GriffinCanCode/labmat/internal/domain/explain"
	"github.com/GriffinCanCode/labmat/internal/domain/keys"
	"github.com/GriffinCanCode/labmat/internal/domain/overlay"
)

// Observer receives session activity for metrics.
type Observer interface {
	execution.Recorder
	RecordNotification(level string)
	RecordDismissal(surface string)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// WithKeys replaces the default key bindings.
func WithKeys(r *keys.Registry) Option {
	return func(c *Coordinator) { c.keys = r }
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// WithSidebarOpen opens the sidebar on start.
func WithSidebarOpen(open bool) Option {
	return func(c *Coordinator) { c.sidebarOpen = open }
}

// WithServiceHint names the execution service in connection errors.
func WithServiceHint(url string) Option {
	return func(c *Coordinator) { c.serviceHint = url }
}

// Coordinator owns the session state and is its only mutator.
type Coordinator struct {
	store       *content.Store
	pipeline    *execution.Pipeline
	keys        *keys.Registry
	bus         *Bus
	log         *zap.Logger
	observer    Observer
	sidebarOpen bool
	serviceHint string

	mu      sync.Mutex
	st      state
	version uint64
}

// New creates a coordinator over store that runs code through executor.
func New(store *content.Store, executor execution.Executor, opts ...Option) *Coordinator {
	c := &Coordinator{
		store: store,
		keys:  keys.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	c.log = c.log.Named("session")
	c.bus = NewBus(c.log)
	c.st = newState(c.sidebarOpen)

	pipelineOpts := []execution.Option{execution.WithLoadingHook(c.setLoading)}
	if c.observer != nil {
		pipelineOpts = append(pipelineOpts, execution.WithRecorder(c.observer))
	}
	c.pipeline = execution.NewPipeline(executor, c.log, pipelineOpts...)
	return c
}

// Store returns the content store the session reads from.
func (c *Coordinator) Store() *content.Store { return c.store }

// Keys returns the active key bindings.
func (c *Coordinator) Keys() *keys.Registry { return c.keys }

// Subscribe streams state and notification events.
func (c *Coordinator) Subscribe(buffer int) (<-chan Event, func()) {
	return c.bus.Subscribe(buffer)
}

// update applies fn under the lock, bumps the version and publishes a
// state event followed by any notifications fn returned.
func (c *Coordinator) update(fn func(st *state) []Notification) uint64 {
	c.mu.Lock()
	notes := fn(&c.st)
	c.version++
	v := c.version
	c.mu.Unlock()

	c.bus.Publish(Event{Kind: EventState, Version: v})
	for _, n := range notes {
		c.publishNotification(v, n)
	}
	return v
}

func (c *Coordinator) notify(level Level, format string, args ...any) {
	c.mu.Lock()
	v := c.version
	c.mu.Unlock()
	c.publishNotification(v, Notification{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (c *Coordinator) publishNotification(v uint64, n Notification) {
	c.log.Debug("notification", zap.String("level", string(n.Level)), zap.String("message", n.Message))
	if c.observer != nil {
		c.observer.RecordNotification(string(n.Level))
	}
	c.bus.Publish(Event{Kind: EventNotification, Version: v, Notification: &n})
}

func note(level Level, format string, args ...any) []Notification {
	return []Notification{{Level: level, Message: fmt.Sprintf(format, args...)}}
}

func (c *Coordinator) setLoading(loading bool) {
	c.update(func(st *state) []Notification {
		st.loading = loading
		return nil
	})
}

// SelectPractical loads practical id into the editor and shows its theory.
// An unknown id leaves the session untouched and returns an error matching
// content.ErrContentNotFound.
func (c *Coordinator) SelectPractical(id int) error {
	p, err := c.store.Practical(id)
	if err != nil {
		c.log.Warn("practical lookup failed", zap.Int("practical_id", id), zap.Error(err))
		c.notify(LevelError, "Practical %d not found", id)
		return err
	}

	c.update(func(st *state) []Notification {
		selected := p.ID
		st.selectedPracticalID = &selected
		st.editorText = p.Code
		st.activeTab = TabTheory
		st.overlays.Close(overlay.Sidebar)
		return note(LevelSuccess, "Loaded Practical %d", p.ID)
	})
	c.log.Info("practical selected", zap.Int("practical_id", p.ID))
	return nil
}

// SetEditorText replaces the editor contents.
func (c *Coordinator) SetEditorText(text string) {
	c.update(func(st *state) []Notification {
		st.editorText = text
		return nil
	})
}

// ClearEditor empties the editor and resets the output panes.
func (c *Coordinator) ClearEditor() {
	c.update(func(st *state) []Notification {
		st.editorText = ""
		st.console = ConsoleView{Text: ReadyText, Style: ConsoleNormal}
		st.plots = PlotView{State: PlotsEmpty}
		return note(LevelSuccess, "Editor cleared")
	})
}

// InsertSnippet appends "cmd;" on its own line and closes the sidebar.
func (c *Coordinator) InsertSnippet(cmd string) error {
	cmd = strings.TrimSuffix(strings.TrimSpace(cmd), explain.Terminator)
	if cmd == "" {
		return errors.New("snippet is empty")
	}
	c.update(func(st *state) []Notification {
		if st.editorText != "" {
			st.editorText += "\n"
		}
		st.editorText += cmd + explain.Terminator
		st.overlays.Close(overlay.Sidebar)
		return nil
	})
	return nil
}

// CopyCode returns the editor text for the clipboard.
func (c *Coordinator) CopyCode() string {
	c.mu.Lock()
	text := c.st.editorText
	c.mu.Unlock()
	c.notify(LevelSuccess, "Code copied to clipboard")
	return text
}

// SetExplainMode turns explain mode on or off. The Explain surface follows.
func (c *Coordinator) SetExplainMode(on bool) {
	c.update(func(st *state) []Notification {
		setExplain(st, on)
		return nil
	})
}

func setExplain(st *state, on bool) {
	st.explainModeEnabled = on
	if on {
		st.overlays.Open(overlay.Explain)
	} else {
		st.overlays.Close(overlay.Explain)
	}
}

// Explanations explains the current editor text against the selected
// practical's dictionary, or the keyword rules alone when none is selected.
func (c *Coordinator) Explanations() []explain.Entry {
	c.mu.Lock()
	source := c.st.editorText
	var selected int
	if c.st.selectedPracticalID != nil {
		selected = *c.st.selectedPracticalID
	}
	c.mu.Unlock()

	var dict explain.Dictionary
	if selected != 0 {
		if p, err := c.store.Practical(selected); err == nil {
			dict = p.Explanations
		}
	}
	return explain.Collect(source, dict)
}

// OpenSurface opens s.
func (c *Coordinator) OpenSurface(s overlay.Surface) {
	c.setSurface(s, true)
}

// CloseSurface closes s.
func (c *Coordinator) CloseSurface(s overlay.Surface) {
	c.setSurface(s, false)
}

func (c *Coordinator) setSurface(s overlay.Surface, open bool) {
	c.update(func(st *state) []Notification {
		if s == overlay.Explain {
			setExplain(st, open)
			return nil
		}
		if open {
			st.overlays.Open(s)
		} else {
			st.overlays.Close(s)
		}
		return nil
	})
}

// ToggleSurface flips s and reports whether it is now open.
func (c *Coordinator) ToggleSurface(s overlay.Surface) bool {
	var open bool
	c.update(func(st *state) []Notification {
		open = st.overlays.Toggle(s)
		if s == overlay.Explain {
			st.explainModeEnabled = open
		}
		return nil
	})
	return open
}

// Dismiss closes the topmost open surface and returns it, or overlay.None.
func (c *Coordinator) Dismiss() overlay.Surface {
	c.mu.Lock()
	closed := c.st.overlays.DismissTopmost()
	if closed == overlay.Explain {
		c.st.explainModeEnabled = false
	}
	if closed == overlay.None {
		c.mu.Unlock()
		return closed
	}
	c.version++
	v := c.version
	c.mu.Unlock()

	c.bus.Publish(Event{Kind: EventState, Version: v})
	if c.observer != nil {
		c.observer.RecordDismissal(closed.String())
	}
	return closed
}

// OpenTutor shows the tutor at its current page and closes the sidebar.
func (c *Coordinator) OpenTutor() TutorProgress {
	var progress TutorProgress
	c.update(func(st *state) []Notification {
		st.overlays.Open(overlay.Tutor)
		st.overlays.Close(overlay.Sidebar)
		progress = c.progress(st.tutorPageIndex)
		return nil
	})
	return progress
}

// TutorGoto moves to page index, clamped into range.
func (c *Coordinator) TutorGoto(index int) TutorProgress {
	var progress TutorProgress
	c.update(func(st *state) []Notification {
		st.tutorPageIndex = c.clampPage(index)
		progress = c.progress(st.tutorPageIndex)
		return nil
	})
	return progress
}

// TutorStep moves delta pages, clamped into range. Huge deltas saturate
// at the first or last page.
func (c *Coordinator) TutorStep(delta int) TutorProgress {
	var progress TutorProgress
	c.update(func(st *state) []Notification {
		st.tutorPageIndex = c.clampPage(saturatingAdd(st.tutorPageIndex, delta))
		progress = c.progress(st.tutorPageIndex)
		return nil
	})
	return progress
}

func saturatingAdd(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}

func (c *Coordinator) clampPage(index int) int {
	return max(0, min(index, c.store.TopicCount()-1))
}

func (c *Coordinator) progress(index int) TutorProgress {
	total := c.store.TopicCount()
	topic, _ := c.store.Topic(index)
	completed := make([]int, index)
	for i := range index {
		completed[i] = i
	}
	return TutorProgress{
		Index:     index,
		Page:      index + 1,
		Total:     total,
		Percent:   float64(index+1) / float64(total) * 100,
		Completed: completed,
		Topic:     topic,
	}
}

// SwitchTab selects the visible output pane.
func (c *Coordinator) SwitchTab(tab Tab) {
	c.update(func(st *state) []Notification {
		st.activeTab = tab
		return nil
	})
}

// Theory returns the theory pane for the selected practical.
func (c *Coordinator) Theory() (TheoryView, error) {
	c.mu.Lock()
	selected := c.st.selectedPracticalID
	c.mu.Unlock()
	if selected == nil {
		return TheoryView{}, &content.ContentNotFoundError{Kind: "practical", ID: 0}
	}
	p, err := c.store.Practical(*selected)
	if err != nil {
		return TheoryView{}, err
	}
	return TheoryView{
		PracticalID:  p.ID,
		Title:        p.Title,
		Objective:    p.Objective,
		Theory:       p.Theory,
		Explanations: p.Explanations,
	}, nil
}

// Plot returns plot index of the plot pane.
func (c *Coordinator) Plot(index int) (execution.Plot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.plots.State != PlotsShown || index < 0 || index >= len(c.st.plots.Plots) {
		return execution.Plot{}, false
	}
	return c.st.plots.Plots[index], true
}

// Snapshot copies the session state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := &c.st
	snap := Snapshot{
		Version:            c.version,
		Tutor:              c.progress(st.tutorPageIndex),
		ExplainModeEnabled: st.explainModeEnabled,
		Overlays:           st.overlays.OpenSurfaces(),
		EditorText:         st.editorText,
		ActiveTab:          st.activeTab,
		Console:            st.console,
		Plots:              PlotView{State: st.plots.State, Plots: append([]execution.Plot(nil), st.plots.Plots...)},
		Loading:            st.loading,
	}
	if st.selectedPracticalID != nil {
		selected := *st.selectedPracticalID
		snap.SelectedPracticalID = &selected
		if p, err := c.store.Practical(selected); err == nil {
			summary := content.Summary{ID: p.ID, Title: p.Title, Objective: p.Objective}
			snap.Practical = &summary
		}
	}
	if st.lastRunOutcome != nil {
		out := *st.lastRunOutcome
		out.Plots = append([]execution.Plot(nil), out.Plots...)
		snap.LastRunOutcome = &out
	}
	return snap
}

// InFlight reports whether a run is outstanding.
func (c *Coordinator) InFlight() bool {
	return c.pipeline.InFlight()
}

// Run submits the editor text. Empty and busy rejections are returned as
// execution.ErrEmptyInput and execution.ErrBusy; every accepted run yields
// an Outcome that is also applied to the output panes.
func (c *Coordinator) Run(ctx context.Context) (*execution.Outcome, error) {
	c.mu.Lock()
	source := c.st.editorText
	c.mu.Unlock()

	// The outcome is applied before the pipeline admits another run, so
	// outcomes land in submission order.
	out, err := c.pipeline.RunThen(ctx, source, func(out *execution.Outcome) {
		c.update(func(st *state) []Notification {
			st.lastRunOutcome = out
			return c.apply(st, out)
		})
	})
	switch {
	case errors.Is(err, execution.ErrEmptyInput):
		c.notify(LevelError, "Please enter some code first")
		return nil, err
	case errors.Is(err, execution.ErrBusy):
		c.notify(LevelInfo, "A run is already in progress")
		return nil, err
	case err != nil:
		return nil, err
	}
	return out, nil
}

// apply renders an outcome into the output panes.
func (c *Coordinator) apply(st *state, out *execution.Outcome) []Notification {
	switch out.Kind {
	case execution.Success:
		text := out.Console
		if text == "" {
			text = "Code executed successfully!"
		}
		st.console = ConsoleView{Text: text, Style: ConsoleSuccess}
		if len(out.Plots) > 0 {
			st.plots = PlotView{State: PlotsShown, Plots: out.Plots}
			st.activeTab = TabPlots
		}
		return note(LevelSuccess, "Code executed successfully!")

	case execution.LogicalFailure:
		reason := out.Error
		if reason == "" {
			reason = "Unknown error"
		}
		st.console = ConsoleView{
			Text:  fmt.Sprintf("Error:\n%s\n\n%s", reason, out.Console),
			Style: ConsoleError,
		}
		st.plots = PlotView{State: PlotsError}
		st.activeTab = TabConsole
		return note(LevelError, "Error executing code")

	default:
		text := "Connection Error: " + out.Message
		if c.serviceHint != "" {
			text += "\n\nMake sure the execution service is running at " + c.serviceHint + "."
		}
		st.console = ConsoleView{Text: text, Style: ConsoleError}
		st.activeTab = TabConsole
		return note(LevelError, "Failed to connect to server")
	}
}

// HandleKey resolves a chord and performs its action. It reports the action
// taken, or keys.NoAction when the chord is unbound or suppressed.
func (c *Coordinator) HandleKey(ctx context.Context, chord keys.Chord, editorFocused bool) (keys.Action, error) {
	action, ok := c.keys.Resolve(chord, editorFocused)
	if !ok {
		return keys.NoAction, nil
	}

	var err error
	switch action {
	case keys.Run:
		_, err = c.Run(ctx)
	case keys.ToggleSidebar:
		c.ToggleSurface(overlay.Sidebar)
	case keys.OpenShortcuts:
		c.OpenSurface(overlay.Shortcuts)
	case keys.ClearEditor:
		c.ClearEditor()
	case keys.Dismiss:
		c.Dismiss()
	}
	c.log.Debug("key handled", zap.Stringer("chord", chord), zap.Stringer("action", action))
	return action, err
}
