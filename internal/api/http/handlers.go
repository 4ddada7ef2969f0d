package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/labmat/internal/domain/session"
	"github.com/GriffinCanCode/labmat/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/labmat/internal/infrastructure/resilience"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "labmat"

// ExecutorStatus describes the execution service connection.
type ExecutorStatus interface {
	URL() string
	Breaker() resilience.Snapshot
}

// Option configures Handlers.
type Option func(*Handlers)

// WithExecutorStatus reports the executor in /health and /stats.
func WithExecutorStatus(s ExecutorStatus) Option {
	return func(h *Handlers) { h.executor = s }
}

// WithMetrics enables /stats.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(h *Handlers) { h.metrics = m }
}

// Handlers contains all HTTP handlers
type Handlers struct {
	session  *session.Coordinator
	executor ExecutorStatus
	metrics  *monitoring.Metrics
}

// NewHandlers creates a new handler set
func NewHandlers(coordinator *session.Coordinator, opts ...Option) *Handlers {
	h := &Handlers{session: coordinator}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts every route on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/stats", h.Stats)

	r.GET("/practicals", h.ListPracticals)
	r.GET("/practicals/:id", h.GetPractical)
	r.GET("/tutor", h.ListTopics)
	r.GET("/quickref", h.ListQuickRef)

	s := r.Group("/session")
	s.GET("", h.GetSession)
	s.POST("/practical/:id", h.SelectPractical)
	s.GET("/theory", h.GetTheory)
	s.PUT("/editor", h.SetEditor)
	s.DELETE("/editor", h.ClearEditor)
	s.POST("/editor/snippet", h.InsertSnippet)
	s.GET("/editor/copy", h.CopyCode)
	s.POST("/explain", h.SetExplainMode)
	s.GET("/explanations", h.Explanations)
	s.POST("/overlays/:surface/:op", h.Overlay)
	s.POST("/dismiss", h.Dismiss)
	s.POST("/tutor/open", h.OpenTutor)
	s.POST("/tutor/goto", h.TutorGoto)
	s.POST("/tutor/step", h.TutorStep)
	s.POST("/tab/:tab", h.SwitchTab)
	s.POST("/run", h.Run)
	s.GET("/plots/:index", h.Plot)
	s.POST("/keys", h.HandleKey)
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	store := h.session.Store()
	body := gin.H{
		"status":     "healthy",
		"service":    ServiceName,
		"practicals": len(store.Practicals()),
		"topics":     store.TopicCount(),
		"running":    h.session.InFlight(),
	}
	if h.executor != nil {
		body["executor"] = gin.H{
			"url":     h.executor.URL(),
			"breaker": h.executor.Breaker().State,
		}
	}
	c.JSON(http.StatusOK, body)
}

// ListPracticals returns the catalog summary.
func (h *Handlers) ListPracticals(c *gin.Context) {
	practicals := h.session.Store().Practicals()
	c.JSON(http.StatusOK, gin.H{
		"practicals": practicals,
		"count":      len(practicals),
	})
}

// GetPractical returns one practical with sanitized theory.
func (h *Handlers) GetPractical(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.session.Store().Practical(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListTopics returns the tutor topics in paging order.
func (h *Handlers) ListTopics(c *gin.Context) {
	topics := h.session.Store().Topics()
	c.JSON(http.StatusOK, gin.H{
		"topics": topics,
		"count":  len(topics),
	})
}

// ListQuickRef returns the insertable command snippets.
func (h *Handlers) ListQuickRef(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"commands": h.session.Store().QuickRef()})
}

func intParam(c *gin.Context, name string) (int, error) {
	raw := c.Param(name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}
