package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"personal-finance-backend/internal/model"
)

const (
	statusSuccess = "success"
	statusFail    = "fail"
	statusError   = "error"
)

type envelope struct {
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	Results    *int   `json:"results,omitempty"`
	Pagination any    `json:"pagination,omitempty"`
	Data       any    `json:"data,omitempty"`
}

func respond(c *gin.Context, code int, data any) {
	c.JSON(code, envelope{Status: statusSuccess, Data: data})
}

func respondList(c *gin.Context, results int, pagination any, data any) {
	c.JSON(http.StatusOK, envelope{Status: statusSuccess, Results: &results, Pagination: pagination, Data: data})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{Status: statusFail, Message: message})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, envelope{
		Status:  statusFail,
		Message: fmt.Sprintf("Can't find %s on this server", c.Request.URL.RequestURI()),
	})
}

// fail maps err onto a status code. Unknown errors are 500s whose detail is
// only shown in development.
func (h *Handler) fail(c *gin.Context, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		badRequest(c, ve.Message)
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, envelope{Status: statusFail, Message: capitalize(err.Error())})
	case errors.Is(err, model.ErrConflict):
		c.JSON(http.StatusConflict, envelope{Status: statusFail, Message: capitalize(err.Error())})
	default:
		_ = c.Error(err)
		slog.ErrorContext(c.Request.Context(), "Request failed", "path", c.FullPath(), "error", err)
		msg := "Something went wrong!"
		if h.dev {
			msg = err.Error()
		}
		c.JSON(http.StatusInternalServerError, envelope{Status: statusError, Message: msg})
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// pathID parses the :id parameter. An id that cannot exist is reported as
// not found.
func (h *Handler) pathID(c *gin.Context, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.fail(c, model.NotFound(entity))
		return uuid.Nil, false
	}
	return id, true
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// parseTime accepts RFC 3339 timestamps and plain dates. Values without a
// zone are read in loc.
func parseTime(field, value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return &t, nil
		}
	}
	return nil, model.NewValidationError(field, fmt.Sprintf("Invalid %s: expected a date like 2025-04-01", field))
}
