package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/labmat/internal/domain/content"
	"github.com/GriffinCanCode/labmat/internal/domain/execution"
	"github.com/GriffinCanCode/labmat/internal/domain/explain"
	"github.com/GriffinCanCode/labmat/internal/domain/keys"
	"github.com/GriffinCanCode/labmat/internal/domain/overlay"
)

type fakeExecutor struct {
	mu      sync.Mutex
	calls   int
	sources []string
	resp    *execution.Response
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeExecutor) Execute(ctx context.Context, source string) (*execution.Response, error) {
	f.mu.Lock()
	f.calls++
	f.sources = append(f.sources, source)
	gate, entered := f.gate, f.entered
	resp, err := f.resp, f.err
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return resp, err
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeObserver struct {
	mu            sync.Mutex
	completed     []execution.Kind
	rejected      []string
	notifications []string
	dismissals    []string
}

func (o *fakeObserver) RunCompleted(kind execution.Kind, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, kind)
}

func (o *fakeObserver) RunRejected(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected = append(o.rejected, reason)
}

func (o *fakeObserver) RecordNotification(level string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notifications = append(o.notifications, level)
}

func (o *fakeObserver) RecordDismissal(surface string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dismissals = append(o.dismissals, surface)
}

// reentrantObserver starts a second run from inside the first run's
// success notification.
type reentrantObserver struct {
	fakeObserver
	c         *Coordinator
	tried     bool
	nestedErr error
}

func (o *reentrantObserver) RecordNotification(level string) {
	o.fakeObserver.RecordNotification(level)
	if level != string(LevelSuccess) || o.tried {
		return
	}
	o.tried = true
	_, o.nestedErr = o.c.Run(context.Background())
}

func testStore(t *testing.T) *content.Store {
	t.Helper()
	store, err := content.NewStore(
		[]content.Practical{
			{
				ID:        1,
				Title:     "Transfer Function",
				Objective: "Build a transfer function",
				Theory:    "<p>Theory one</p>",
				Code:      "num = [1];\nden = [1 2 1];\nG = tf(num, den)",
				Explanations: explain.Dictionary{
					{Key: "G = tf(num, den)", Value: "Creates G"},
				},
			},
			{
				ID:        2,
				Title:     "Step Response",
				Objective: "Plot a step response",
				Theory:    "<p>Theory two</p>",
				Code:      "step(G)",
			},
		},
		[]content.TutorTopic{
			{ID: 1, Title: "Intro", Content: "<p>a</p>"},
			{ID: 2, Title: "Poles", Content: "<p>b</p>"},
			{ID: 3, Title: "Bode", Content: "<p>c</p>"},
			{ID: 4, Title: "PID", Content: "<p>d</p>"},
		},
		[]content.QuickRef{{Command: "step(G)", Label: "Step"}},
	)
	require.NoError(t, err)
	return store
}

func newTestCoordinator(t *testing.T, exec *fakeExecutor, opts ...Option) *Coordinator {
	t.Helper()
	return New(testStore(t), exec, opts...)
}

// drain collects notifications already published on events.
func drain(events <-chan Event) []Notification {
	var out []Notification
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return out
			}
			if e.Kind == EventNotification {
				out = append(out, *e.Notification)
			}
		default:
			return out
		}
	}
}

func TestInitialState(t *testing.T) {
	c := newTestCoordinator(t, &fakeExecutor{}, WithSidebarOpen(true))
	snap := c.Snapshot()

	assert.Nil(t, snap.SelectedPracticalID)
	assert.Equal(t, TabTheory, snap.ActiveTab)
	assert.Equal(t, ConsoleView{Text: ReadyText, Style: ConsoleNormal}, snap.Console)
	assert.Equal(t, PlotsEmpty, snap.Plots.State)
	assert.True(t, snap.IsOpen(overlay.Sidebar))
	assert.False(t, snap.Loading)
	assert.Equal(t, "1 / 4", snap.Tutor.Label())

	closed := newTestCoordinator(t, &fakeExecutor{})
	assert.Empty(t, closed.Snapshot().Overlays)
}

func TestSelectPractical(t *testing.T) {
	c := newTestCoordinator(t, &fakeExecutor{}, WithSidebarOpen(true))
	events, cancel := c.Subscribe(16)
	defer cancel()

	c.SwitchTab(TabConsole)
	require.NoError(t, c.SelectPractical(2))

	snap := c.Snapshot()
	require.NotNil(t, snap.SelectedPracticalID)
	assert.Equal(t, 2, *snap.SelectedPracticalID)
	assert.Equal(t, "step(G)", snap.EditorText)
	assert.Equal(t, TabTheory, snap.ActiveTab)
	assert.False(t, snap.IsOpen(overlay.Sidebar))
	require.NotNil(t, snap.Practical)
	assert.Equal(t, "Step Response", snap.Practical.Title)

	assert.Equal(t, []Notification{{Level: LevelSuccess, Message: "Loaded Practical 2"}}, drain(events))
}

func TestSelectPracticalNotFound(t *testing.T) {
	c := newTestCoordinator(t, &fakeExecutor{})
	require.NoError(t, c.SelectPractical(1))
	c.SetEditorText("my edits")
	before := c.Snapshot()

	events, cancel := c.Subscribe(16)
	defer cancel()

	err := c.SelectPractical(42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, content.ErrContentNotFound))

	after := c.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, []Notification{{Level: LevelError, Message: "Practical 42 not found"}}, drain(events))
}

func TestRunEmptyInput(t *testing.T) {
	exec := &fakeExecutor{}
	obs := &fakeObserver{}
	c := newTestCoordinator(t, exec, WithObserver(obs))
	events, cancel := c.Subscribe(16)
	defer cancel()

	c.SetEditorText("   \n\t ")
	out, err := c.Run(context.Background())

	assert.Nil(t, out)
	assert.ErrorIs(t, err, execution.ErrEmptyInput)
	assert.Zero(t, exec.callCount())
	assert.Equal(t, []string{"empty"}, obs.rejected)
	assert.Equal(t, []Notification{{Level: LevelError, Message: "Please enter some code first"}}, drain(events))
}

func TestRunSuccessWithPlots(t *testing.T) {
	exec := &fakeExecutor{resp: &execution.Response{
		Success: true,
		Console: "G = 1/(s+1)",
		Plots:   []execution.Plot{{ID: "a", Image: "AAAA"}, {ID: "b", Image: "BBBB"}},
	}}
	c := newTestCoordinator(t, exec)
	require.NoError(t, c.SelectPractical(2))

	out, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, execution.Success, out.Kind)
	assert.Equal(t, []string{"step(G)"}, exec.sources)

	snap := c.Snapshot()
	assert.Equal(t, TabPlots, snap.ActiveTab)
	assert.Equal(t, PlotsShown, snap.Plots.State)
	require.Len(t, snap.Plots.Plots, 2)
	assert.Equal(t, "a", snap.Plots.Plots[0].ID)
	assert.Equal(t, ConsoleView{Text: "G = 1/(s+1)", Style: ConsoleSuccess}, snap.Console)
	require.NotNil(t, snap.LastRunOutcome)
	assert.Equal(t, execution.Success, snap.LastRunOutcome.Kind)

	plot, ok := c.Plot(1)
	assert.True(t, ok)
	assert.Equal(t, "b", plot.ID)
	_, ok = c.Plot(2)
	assert.False(t, ok)
}

func TestRunAppliesOutcomeBeforeReleasing(t *testing.T) {
	exec := &fakeExecutor{resp: &execution.Response{Success: true, Console: "ok"}}
	c := newTestCoordinator(t, exec)
	c.SetEditorText("x = 1")

	events, cancel := c.Subscribe(16)
	defer cancel()

	_, err := c.Run(context.Background())
	require.NoError(t, err)

	var kinds []EventKind
	for len(events) > 0 {
		e := <-events
		kinds = append(kinds, e.Kind)
	}
	// loading on, outcome, its notification, loading off
	assert.Equal(t, []EventKind{EventState, EventState, EventNotification, EventState}, kinds)

	snap := c.Snapshot()
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.LastRunOutcome)
	assert.Equal(t, "ok", snap.LastRunOutcome.Console)
	assert.False(t, c.InFlight())
}

func TestSecondRunDuringApplyIsBusy(t *testing.T) {
	exec := &fakeExecutor{resp: &execution.Response{Success: true, Console: "first"}}
	obs := &reentrantObserver{}
	c := newTestCoordinator(t, exec, WithObserver(obs))
	obs.c = c
	c.SetEditorText("x = 1")

	out, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", out.Console)

	// The success notification is published while the first run still
	// holds the slot, so the nested run is refused.
	assert.ErrorIs(t, obs.nestedErr, execution.ErrBusy)
	assert.Equal(t, 1, exec.callCount())
	assert.Equal(t, "first", c.Snapshot().LastRunOutcome.Console)
}

func TestRunSuccessWithoutPlotsKeepsTab(t *testing.T) {
	exec := &fakeExecutor{resp: &execution.Response{Success: true}}
	c := newTestCoordinator(t, exec)
	c.SetEditorText("x = 1")
	c.SwitchTab(TabTheory)

	events, cancel := c.Subscribe(16)
	defer cancel()

	_, err := c.Run(context.Background())
	require.NoError(t, err)

	snap := c.Snapshot()
	assert.Equal(t, TabTheory, snap.ActiveTab)
	assert.Equal(t, PlotsEmpty, snap.Plots.State)
	assert.Equal(t, "Code executed successfully!", snap.Console.Text)
	assert.Equal(t, []Notification{{Level: LevelSuccess, Message: "Code executed successfully!"}}, drain(events))
}

func TestRunLogicalFailure(t *testing.T) {
	exec := &fakeExecutor{resp: &execution.Response{Success: false, Error: "boom", Console: "partial"}}
	c := newTestCoordinator(t, exec)
	c.SetEditorText("bad(")

	events, cancel := c.Subscribe(16)
	defer cancel()

	out, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, execution.LogicalFailure, out.Kind)

	snap := c.Snapshot()
	assert.Equal(t, TabConsole, snap.ActiveTab)
	assert.Equal(t, PlotsError, snap.Plots.State)
	assert.Equal(t, ConsoleView{Text: "Error:\nboom\n\npartial", Style: ConsoleError}, snap.Console)
	assert.Equal(t, []Notification{{Level: LevelError, Message: "Error executing code"}}, drain(events))
}

func TestRunLogicalFailureWithoutMessage(t *testing.T) {
	exec := &fakeExecutor{resp: &execution.Response{Success: false}}
	c := newTestCoordinator(t, exec)
	c.SetEditorText("bad(")

	_, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Error:\nUnknown error\n\n", c.Snapshot().Console.Text)
}

func TestRunTransportFailure(t *testing.T) {
	exec := &fakeExecutor{resp: &execution.Response{
		Success: true,
		Plots:   []execution.Plot{{ID: "keep", Image: "AAAA"}},
	}}
	c := newTestCoordinator(t, exec, WithServiceHint("http://localhost:5000/api/run"))
	c.SetEditorText("step(G)")
	_, err := c.Run(context.Background())
	require.NoError(t, err)

	exec.mu.Lock()
	exec.resp, exec.err = nil, &execution.TransportError{Message: "connection refused"}
	exec.mu.Unlock()

	events, cancel := c.Subscribe(16)
	defer cancel()

	out, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, execution.TransportFailure, out.Kind)

	snap := c.Snapshot()
	assert.Equal(t, TabConsole, snap.ActiveTab)
	assert.Equal(t, ConsoleError, snap.Console.Style)
	assert.Equal(t,
		"Connection Error: connection refused\n\nMake sure the execution service is running at http://localhost:5000/api/run.",
		snap.Console.Text)
	// Plots from the previous run stay visible.
	assert.Equal(t, PlotsShown, snap.Plots.State)
	assert.Equal(t, "keep", snap.Plots.Plots[0].ID)
	assert.Equal(t, []Notification{{Level: LevelError, Message: "Failed to connect to server"}}, drain(events))
}

func TestRunBusy(t *testing.T) {
	exec := &fakeExecutor{
		resp:    &execution.Response{Success: true},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	c := newTestCoordinator(t, exec)
	c.SetEditorText("step(G)")

	done := make(chan error, 1)
	go func() {
		_, err := c.Run(context.Background())
		done <- err
	}()
	<-exec.entered

	assert.True(t, c.InFlight())
	assert.True(t, c.Snapshot().Loading)

	events, cancel := c.Subscribe(16)
	defer cancel()

	_, err := c.Run(context.Background())
	assert.ErrorIs(t, err, execution.ErrBusy)
	assert.Equal(t, []Notification{{Level: LevelInfo, Message: "A run is already in progress"}}, drain(events))

	close(exec.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, exec.callCount())
	assert.False(t, c.InFlight())
	assert.False(t, c.Snapshot().Loading)
}

func TestClearEditor(t *testing.T) {
	exec := &fakeExecutor{resp: &execution.Response{Success: false, Error: "boom"}}
	c := newTestCoordinator(t, exec)
	c.SetEditorText("bad(")
	_, err := c.Run(context.Background())
	require.NoError(t, err)

	events, cancel := c.Subscribe(16)
	defer cancel()
	c.ClearEditor()

	snap := c.Snapshot()
	assert.Empty(t, snap.EditorText)
	assert.Equal(t, ConsoleView{Text: ReadyText, Style: ConsoleNormal}, snap.Console)
	assert.Equal(t, PlotView{State: PlotsEmpty}, snap.Plots)
	assert.Equal(t, []Notification{{Level: LevelSuccess, Message: "Editor cleared"}}, drain(events))
}

func TestInsertSnippet(t *testing.T) {
	c := newTestCoordinator(t, &fakeExecutor{}, WithSidebarOpen(true))

	require.NoError(t, c.InsertSnippet("grid on"))
	assert.Equal(t, "grid on;", c.Snapshot().EditorText)
	assert.False(t, c.Snapshot().IsOpen(overlay.Sidebar))

	require.NoError(t, c.InsertSnippet("step(G);"))
	assert.Equal(t, "grid on;\nstep(G);", c.Snapshot().EditorText)

	assert.Error(t, c.InsertSnippet("  "))
}

func TestCopyCode(t *testing.T) {
	c := newTestCoordinator(t, &fakeExecutor{})
	c.SetEditorText("bode(G)")
	events, cancel := c.Subscribe(16)
	defer cancel()

	assert.Equal(t, "bode(G)", c.CopyCode())
	assert.Equal(t, []Notification{{Level: LevelSuccess, Message: "Code copied to clipboard"}}, drain(events))
}

func TestExplainModeFollowsSurface(t *testing.T) {
	c := newTestCoordinator(t, &fakeExecutor{})

	c.SetExplainMode(true)
	snap := c.Snapshot()
	assert.True(t, snap.ExplainModeEnabled)
	assert.True(t, snap.IsOpen(overlay.Explain))

	c.CloseSurface(overlay.Explain)
	assert.False(t, c.Snapshot().ExplainModeEnabled)

	assert.True(t, c.ToggleSurface(overlay.Explain))
	assert.True(t, c.Snapshot().ExplainModeEnabled)

	assert.Equal(t, overlay.Explain, c.Dismiss())
	snap = c.Snapshot()
	assert.False(t, snap.ExplainModeEnabled)
	assert.False(t, snap.IsOpen(overlay.Explain))
}

func TestDismissPriority(t *testing.T) {
	obs := &fakeObserver{}
	c := newTestCoordinator(t, &fakeExecutor{}, WithObserver(obs))

	c.OpenSurface(overlay.Fullscreen)
	c.OpenSurface(overlay.Tutor)
	c.OpenSurface(overlay.Shortcuts)
	c.OpenSurface(overlay.Sidebar)

	assert.Equal(t, overlay.Shortcuts, c.Dismiss())
	assert.Equal(t, overlay.Sidebar, c.Dismiss())
	assert.Equal(t, overlay.Tutor, c.Dismiss())
	assert.Equal(t, overlay.Fullscreen, c.Dismiss())

	version := c.Snapshot().Version
	assert.Equal(t, overlay.None, c.Dismiss())
	assert.Equal(t, version, c.Snapshot().Version)
	assert.Equal(t, []string{"shortcuts", "sidebar", "tutor", "fullscreen"}, obs.dismissals)
}

func TestTutorPaging(t *testing.T) {
	c := newTestCoordinator(t, &fakeExecutor{}, WithSidebarOpen(true))

	p := c.OpenTutor()
	assert.Equal(t, 0, p.Index)
	snap := c.Snapshot()
	assert.True(t, snap.IsOpen(overlay.Tutor))
	assert.False(t, snap.IsOpen(overlay.Sidebar))

	tests := []struct {
		name  string
		apply func() TutorProgress
		index int
	}{
		{"goto middle", func() TutorProgress { return c.TutorGoto(2) }, 2},
		{"goto past end", func() TutorProgress { return c.TutorGoto(99) }, 3},
		{"step past end", func() TutorProgress { return c.TutorStep(1) }, 3},
		{"step back", func() TutorProgress { return c.TutorStep(-2) }, 1},
		{"step before start", func() TutorProgress { return c.TutorStep(-5) }, 0},
		{"goto negative", func() TutorProgress { return c.TutorGoto(-1) }, 0},
		{"max step forward", func() TutorProgress { return c.TutorStep(math.MaxInt) }, 3},
		{"max step from last page", func() TutorProgress { return c.TutorStep(math.MaxInt) }, 3},
		{"min step back", func() TutorProgress { return c.TutorStep(math.MinInt) }, 0},
		{"min step from first page", func() TutorProgress { return c.TutorStep(math.MinInt) }, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.apply()
			assert.Equal(t, tt.index, got.Index)
			assert.Equal(t, tt.index, c.Snapshot().Tutor.Index)
		})
	}

	p = c.TutorGoto(2)
	assert.Equal(t, "3 / 4", p.Label())
	assert.InDelta(t, 75.0, p.Percent, 1e-9)
	assert.Equal(t, []int{0, 1}, p.Completed)
	assert.Equal(t, "Bode", p.Topic.Title)

	// Reopening keeps the page.
	c.CloseSurface(overlay.Tutor)
	assert.Equal(t, 2, c.OpenTutor().Index)
}

func TestSaturatingAdd(t *testing.T) {
	tests := []struct {
		a, b, want int
	}{
		{1, 2, 3},
		{3, math.MaxInt, math.MaxInt},
		{-1, math.MinInt, math.MinInt},
		{0, math.MinInt, math.MinInt},
		{math.MaxInt, -1, math.MaxInt - 1},
		{-3, 5, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, saturatingAdd(tt.a, tt.b), "%d + %d", tt.a, tt.b)
	}
}

func TestExplanations(t *testing.T) {
	c := newTestCoordinator(t, &fakeExecutor{})
	require.NoError(t, c.SelectPractical(1))

	entries := c.Explanations()
	require.Len(t, entries, 3)
	assert.Equal(t, "G = tf(num, den)", entries[2].Line)
	assert.Equal(t, "Creates G", entries[2].Explanation)
	assert.Equal(t, explain.DictionaryRule, entries[2].Source)

	c.SetEditorText("% comment\nbode(G);")
	entries = c.Explanations()
	require.Len(t, entries, 1)
	assert.Equal(t, "bode(G)", entries[0].Line)
}

func TestTheory(t *testing.T) {
	c := newTestCoordinator(t, &fakeExecutor{})
	_, err := c.Theory()
	assert.ErrorIs(t, err, content.ErrContentNotFound)

	require.NoError(t, c.SelectPractical(1))
	view, err := c.Theory()
	require.NoError(t, err)
	assert.Equal(t, 1, view.PracticalID)
	assert.Equal(t, "Build a transfer function", view.Objective)
	assert.Equal(t, "<p>Theory one</p>", view.Theory)
	assert.Len(t, view.Explanations, 1)
}

func TestHandleKey(t *testing.T) {
	exec := &fakeExecutor{resp: &execution.Response{Success: true}}
	c := newTestCoordinator(t, exec)
	ctx := context.Background()

	action, err := c.HandleKey(ctx, keys.MustParse("?"), true)
	require.NoError(t, err)
	assert.Equal(t, keys.NoAction, action)
	assert.False(t, c.Snapshot().IsOpen(overlay.Shortcuts))

	action, err = c.HandleKey(ctx, keys.MustParse("?"), false)
	require.NoError(t, err)
	assert.Equal(t, keys.OpenShortcuts, action)
	assert.True(t, c.Snapshot().IsOpen(overlay.Shortcuts))

	action, _ = c.HandleKey(ctx, keys.MustParse("esc"), true)
	assert.Equal(t, keys.Dismiss, action)
	assert.False(t, c.Snapshot().IsOpen(overlay.Shortcuts))

	action, _ = c.HandleKey(ctx, keys.MustParse("mod+b"), true)
	assert.Equal(t, keys.ToggleSidebar, action)
	assert.True(t, c.Snapshot().IsOpen(overlay.Sidebar))

	action, err = c.HandleKey(ctx, keys.MustParse("mod+enter"), true)
	assert.Equal(t, keys.Run, action)
	assert.ErrorIs(t, err, execution.ErrEmptyInput)
	assert.Zero(t, exec.callCount())

	c.SetEditorText("step(G)")
	action, err = c.HandleKey(ctx, keys.MustParse("mod+enter"), true)
	require.NoError(t, err)
	assert.Equal(t, keys.Run, action)
	assert.Equal(t, 1, exec.callCount())

	action, _ = c.HandleKey(ctx, keys.MustParse("mod+shift+delete"), true)
	assert.Equal(t, keys.ClearEditor, action)
	assert.Empty(t, c.Snapshot().EditorText)

	action, _ = c.HandleKey(ctx, keys.MustParse("mod+q"), false)
	assert.Equal(t, keys.NoAction, action)
}

func TestObserverSeesRuns(t *testing.T) {
	obs := &fakeObserver{}
	exec := &fakeExecutor{resp: &execution.Response{Success: true}}
	c := newTestCoordinator(t, exec, WithObserver(obs))
	c.SetEditorText("step(G)")

	_, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []execution.Kind{execution.Success}, obs.completed)
	assert.Equal(t, []string{"success"}, obs.notifications)
}

func TestVersionAdvances(t *testing.T) {
	c := newTestCoordinator(t, &fakeExecutor{})
	v := c.Snapshot().Version
	c.SetEditorText("a")
	c.SwitchTab(TabPlots)
	assert.Equal(t, v+2, c.Snapshot().Version)
}
