package executor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/labmat/internal/domain/execution"
	"github.com/GriffinCanCode/labmat/internal/infrastructure/config"
	"github.com/GriffinCanCode/labmat/internal/infrastructure/resilience"
)

const userAgent = "labmat-executor/1.0"

// request is the body sent to the execution service.
type request struct {
	Code string `json:"code"`
}

// Client calls the execution service. Safe for concurrent use.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	url     string
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	breaker       resilience.Settings
	onStateChange func(name string, from, to resilience.State)
}

// WithBreakerSettings replaces the default breaker settings.
func WithBreakerSettings(s resilience.Settings) Option {
	return func(o *clientOptions) { o.breaker = s }
}

// WithBreakerObserver is called on every breaker state change.
func WithBreakerObserver(fn func(name string, from, to resilience.State)) Option {
	return func(o *clientOptions) { o.onStateChange = fn }
}

// DefaultBreakerSettings trips after five consecutive transport failures and
// probes again after thirty seconds.
func DefaultBreakerSettings() resilience.Settings {
	return resilience.Settings{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
}

// New creates a client from executor configuration.
func New(cfg config.ExecutorConfig, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}

	o := clientOptions{breaker: DefaultBreakerSettings()}
	for _, opt := range opts {
		opt(&o)
	}

	settings := o.breaker
	settings.IsSuccessful = func(err error) bool {
		// The caller giving up says nothing about the service.
		return err == nil || errors.Is(err, context.Canceled)
	}
	userHook := o.onStateChange
	settings.OnStateChange = func(name string, from, to resilience.State) {
		log.Warn("executor breaker state changed",
			zap.String("breaker", name),
			zap.Stringer("from", from),
			zap.Stringer("to", to))
		if userHook != nil {
			userHook(name, from, to)
		}
	}

	// The pooled transport from retryablehttp is reused; retries stay off.
	pooled := retryablehttp.NewClient()
	pooled.RetryMax = 0
	pooled.Logger = nil

	r := resty.New().
		SetTransport(pooled.HTTPClient.Transport).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", userAgent).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		resty:   r,
		limiter: limiter,
		breaker: resilience.New("executor", settings),
		url:     cfg.URL,
		log:     log,
	}
}

// URL is the execution endpoint.
func (c *Client) URL() string {
	return c.url
}

// BreakerState reports the breaker state.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// Breaker reports the breaker state and counts.
func (c *Client) Breaker() resilience.Snapshot {
	return c.breaker.Snapshot()
}

// Execute sends source for execution. Every returned error is an
// *execution.TransportError.
func (c *Client) Execute(ctx context.Context, source string) (*execution.Response, error) {
	resp, err := resilience.Execute(c.breaker, func() (*execution.Response, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
		return c.post(ctx, source)
	})
	if err == nil {
		return resp, nil
	}

	var te *execution.TransportError
	switch {
	case errors.As(err, &te):
		return nil, te
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		c.log.Debug("executor call skipped", zap.Error(err))
		return nil, &execution.TransportError{Message: "execution service unavailable", Err: err}
	default:
		return nil, &execution.TransportError{Err: err}
	}
}

func (c *Client) post(ctx context.Context, source string) (*execution.Response, error) {
	start := time.Now()
	res, err := c.resty.R().
		SetContext(ctx).
		SetBody(request{Code: source}).
		Post(c.url)
	if err != nil {
		return nil, &execution.TransportError{Err: err}
	}

	c.log.Debug("executor replied",
		zap.Int("status", res.StatusCode()),
		zap.Int("bytes", len(res.Body())),
		zap.Duration("duration", time.Since(start)))

	if res.StatusCode() < http.StatusOK || res.StatusCode() >= http.StatusMultipleChoices {
		return nil, &execution.TransportError{Message: fmt.Sprintf("executor returned %s", res.Status())}
	}
	return decode(res.Body())
}

// decode accepts only a JSON object body.
func decode(body []byte) (*execution.Response, error) {
	var probe any
	if err := sonic.Unmarshal(body, &probe); err != nil {
		return nil, &execution.TransportError{Message: "executor reply is not JSON", Err: err}
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, &execution.TransportError{Message: "executor reply is not a JSON object"}
	}

	var out execution.Response
	if err := sonic.Unmarshal(body, &out); err != nil {
		return nil, &execution.TransportError{Message: "executor reply has unexpected shape", Err: err}
	}
	return &out, nil
}
