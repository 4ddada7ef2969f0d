package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/labmat/internal/domain/content"
	"github.com/GriffinCanCode/labmat/internal/domain/execution"
)

// Error kinds reported in response bodies.
const (
	KindBadRequest      = "bad_request"
	KindContentNotFound = "content_not_found"
	KindEmptyInput      = "empty_input"
	KindBusy            = "busy"
	KindPlotInvalid     = "plot_invalid"
	KindInternal        = "internal"
)

// classify maps a domain error onto a status and kind.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, content.ErrContentNotFound):
		return http.StatusNotFound, KindContentNotFound
	case errors.Is(err, execution.ErrEmptyInput):
		return http.StatusUnprocessableEntity, KindEmptyInput
	case errors.Is(err, execution.ErrBusy):
		return http.StatusConflict, KindBusy
	default:
		return http.StatusInternalServerError, KindInternal
	}
}

func respondError(c *gin.Context, err error) {
	status, kind := classify(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "kind": kind})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": KindBadRequest})
}
