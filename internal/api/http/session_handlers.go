package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/labmat/internal/domain/execution"
	"github.com/GriffinCanCode/labmat/internal/domain/keys"
	"github.com/GriffinCanCode/labmat/internal/domain/overlay"
	"github.com/GriffinCanCode/labmat/internal/domain/session"
)

type editorRequest struct {
	Text *string `json:"text" binding:"required"`
}

type snippetRequest struct {
	Command string `json:"command" binding:"required"`
}

type explainRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type gotoRequest struct {
	Index *int `json:"index" binding:"required"`
}

type stepRequest struct {
	Delta *int `json:"delta" binding:"required"`
}

type keyRequest struct {
	Key           string `json:"key" binding:"required"`
	Ctrl          bool   `json:"ctrl"`
	Meta          bool   `json:"meta"`
	Shift         bool   `json:"shift"`
	EditorFocused bool   `json:"editorFocused"`
}

// GetSession returns the session snapshot.
func (h *Handlers) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Snapshot())
}

// SelectPractical loads a practical into the editor.
func (h *Handlers) SelectPractical(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := h.session.SelectPractical(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.session.Snapshot())
}

// GetTheory returns the theory pane of the selected practical.
func (h *Handlers) GetTheory(c *gin.Context) {
	view, err := h.session.Theory()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetEditor replaces the editor text.
func (h *Handlers) SetEditor(c *gin.Context) {
	var req editorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.session.SetEditorText(*req.Text)
	c.JSON(http.StatusOK, h.session.Snapshot())
}

// ClearEditor empties the editor and resets the output panes.
func (h *Handlers) ClearEditor(c *gin.Context) {
	h.session.ClearEditor()
	c.JSON(http.StatusOK, h.session.Snapshot())
}

// InsertSnippet appends a quick-reference command.
func (h *Handlers) InsertSnippet(c *gin.Context) {
	var req snippetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.session.InsertSnippet(req.Command); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.session.Snapshot())
}

// CopyCode returns the editor text for the clipboard.
func (h *Handlers) CopyCode(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": h.session.CopyCode()})
}

// SetExplainMode toggles the explanation panel.
func (h *Handlers) SetExplainMode(c *gin.Context) {
	var req explainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.session.SetExplainMode(*req.Enabled)
	c.JSON(http.StatusOK, h.session.Snapshot())
}

// Explanations explains the editor text line by line.
func (h *Handlers) Explanations(c *gin.Context) {
	entries := h.session.Explanations()
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// Overlay opens, closes or toggles one surface.
func (h *Handlers) Overlay(c *gin.Context) {
	surface, err := overlay.Parse(c.Param("surface"))
	if err != nil {
		badRequest(c, err)
		return
	}

	switch op := c.Param("op"); op {
	case "open":
		h.session.OpenSurface(surface)
	case "close":
		h.session.CloseSurface(surface)
	case "toggle":
		h.session.ToggleSurface(surface)
	default:
		badRequest(c, fmt.Errorf("unknown overlay operation %q", op))
		return
	}
	c.JSON(http.StatusOK, h.session.Snapshot())
}

// Dismiss closes the topmost surface.
func (h *Handlers) Dismiss(c *gin.Context) {
	closed := h.session.Dismiss()
	body := gin.H{"session": h.session.Snapshot(), "dismissed": nil}
	if closed != overlay.None {
		body["dismissed"] = closed
	}
	c.JSON(http.StatusOK, body)
}

// OpenTutor opens the tutor at its current page.
func (h *Handlers) OpenTutor(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.OpenTutor())
}

// TutorGoto jumps to a tutor page.
func (h *Handlers) TutorGoto(c *gin.Context) {
	var req gotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.session.TutorGoto(*req.Index))
}

// TutorStep pages the tutor forwards or backwards.
func (h *Handlers) TutorStep(c *gin.Context) {
	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.session.TutorStep(*req.Delta))
}

// SwitchTab selects the visible output pane.
func (h *Handlers) SwitchTab(c *gin.Context) {
	tab, err := session.ParseTab(c.Param("tab"))
	if err != nil {
		badRequest(c, err)
		return
	}
	h.session.SwitchTab(tab)
	c.JSON(http.StatusOK, h.session.Snapshot())
}

// Run submits the editor text to the execution service. Accepted runs
// answer 200 whatever their outcome; rejections answer 422 or 409.
func (h *Handlers) Run(c *gin.Context) {
	out, err := h.session.Run(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"kind":    out.Kind,
		"outcome": out,
		"session": h.session.Snapshot(),
	})
}

// Plot serves one decoded plot image.
func (h *Handlers) Plot(c *gin.Context) {
	index, err := intParam(c, "index")
	if err != nil {
		badRequest(c, err)
		return
	}
	plot, ok := h.session.Plot(index)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("plot %d not found", index),
			"kind":  KindContentNotFound,
		})
		return
	}
	data, mime, err := plot.Decode()
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "kind": KindPlotInvalid})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, mime, data)
}

// HandleKey applies a keyboard chord.
func (h *Handlers) HandleKey(c *gin.Context) {
	var req keyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	chord := keys.FromEvent(req.Key, req.Ctrl, req.Meta, req.Shift)
	action, err := h.session.HandleKey(c.Request.Context(), chord, req.EditorFocused)
	body := gin.H{
		"chord":   chord.String(),
		"action":  action,
		"handled": action != keys.NoAction,
		"session": h.session.Snapshot(),
	}
	if err != nil {
		_, kind := classify(err)
		body["error"] = err.Error()
		body["kind"] = kind
		if !errors.Is(err, execution.ErrEmptyInput) && !errors.Is(err, execution.ErrBusy) {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, body)
}
