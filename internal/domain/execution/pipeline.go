package execution

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/labmat/internal/shared/id"
)

// Executor performs one round trip to the execution service. A non-nil
// error is always a transport failure.
type Executor interface {
	Execute(ctx context.Context, source string) (*Response, error)
}

// Recorder observes pipeline activity for metrics.
type Recorder interface {
	RunRejected(reason string)
	RunCompleted(kind Kind, d time.Duration)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLoadingHook sets a hook called with true when a run is accepted and
// with false when it finishes, whichever way it finishes.
func WithLoadingHook(fn func(loading bool)) Option {
	return func(p *Pipeline) { p.onLoading = fn }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithRunIDs overrides run id generation.
func WithRunIDs(fn func() string) Option {
	return func(p *Pipeline) { p.newRunID = fn }
}

// Pipeline is the single-flight gateway to the execution service.
type Pipeline struct {
	executor  Executor
	log       *zap.Logger
	onLoading func(bool)
	recorder  Recorder
	newRunID  func() string

	mu       sync.Mutex
	inFlight bool
}

// NewPipeline creates a pipeline over executor.
func NewPipeline(executor Executor, log *zap.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{
		executor: executor,
		log:      log,
		newRunID: func() string { return id.NewRunID().String() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// InFlight reports whether a round trip is outstanding.
func (p *Pipeline) InFlight() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

// Run submits trimmed source. It returns ErrEmptyInput or ErrBusy without
// contacting the executor; otherwise it makes exactly one call and returns
// the classified Outcome.
func (p *Pipeline) Run(ctx context.Context, source string) (*Outcome, error) {
	return p.RunThen(ctx, source, nil)
}

// RunThen is Run with apply called on the Outcome while the run still holds
// the in-flight slot. A concurrent Run during apply gets ErrBusy.
func (p *Pipeline) RunThen(ctx context.Context, source string, apply func(*Outcome)) (*Outcome, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		p.reject("empty")
		return nil, ErrEmptyInput
	}

	if !p.acquire() {
		p.reject("busy")
		return nil, ErrBusy
	}
	defer p.release()

	runID := p.newRunID()
	log := p.log.With(zap.String("run_id", runID))
	log.Debug("run accepted", zap.Int("bytes", len(source)))

	start := time.Now()
	resp, err := p.executor.Execute(ctx, source)
	out := Classify(resp, err)
	out.RunID = runID
	out.Duration = time.Since(start)

	if p.recorder != nil {
		p.recorder.RunCompleted(out.Kind, out.Duration)
	}

	switch out.Kind {
	case TransportFailure:
		log.Warn("run transport failure", zap.String("message", out.Message), zap.Duration("duration", out.Duration))
	case LogicalFailure:
		log.Info("run logical failure", zap.String("error", out.Error), zap.Duration("duration", out.Duration))
	default:
		log.Info("run succeeded", zap.Int("plots", len(out.Plots)), zap.Duration("duration", out.Duration))
	}
	if apply != nil {
		apply(out)
	}
	return out, nil
}

func (p *Pipeline) acquire() bool {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return false
	}
	p.inFlight = true
	p.mu.Unlock()

	if p.onLoading != nil {
		p.onLoading(true)
	}
	return true
}

// release clears the loading hook before admitting the next run so hook
// calls never interleave across runs.
func (p *Pipeline) release() {
	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
	}()

	if p.onLoading != nil {
		p.onLoading(false)
	}
}

func (p *Pipeline) reject(reason string) {
	p.log.Debug("run rejected", zap.String("reason", reason))
	if p.recorder != nil {
		p.recorder.RunRejected(reason)
	}
}
