package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/mediaguard"
	"github.com/dukerupert/mediaguard/internal/media"
	"github.com/dukerupert/mediaguard/internal/validation"
	"github.com/labstack/echo/v4"
)

// errorStatusCode maps domain error codes to HTTP status codes.
func errorStatusCode(code string) int {
	switch code {
	case mediaguard.ENOTFOUND:
		return http.StatusNotFound
	case mediaguard.EINVALID, mediaguard.EBADURL:
		return http.StatusBadRequest
	case mediaguard.ERATELIMIT:
		return http.StatusTooManyRequests
	case mediaguard.EUNAVAILABLE:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorStatus refines errorStatusCode for rejected media.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, validation.ErrDisallowedFormat),
		errors.Is(err, validation.ErrUnidentifiedFormat),
		errors.Is(err, validation.ErrTypeNotAllowed),
		errors.Is(err, validation.ErrNotMedia):
		return http.StatusUnsupportedMediaType
	default:
		return errorStatusCode(mediaguard.ErrorCode(err))
	}
}

// ErrorResponse represents the JSON error response format.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// HandleError converts domain errors to JSON responses.
// Internal and configuration errors are logged and their details withheld.
func HandleError(c echo.Context, logger *slog.Logger, err error) error {
	code := mediaguard.ErrorCode(err)
	message := mediaguard.ErrorMessage(err)
	fields := mediaguard.ErrorFields(err)
	status := errorStatus(err)

	switch code {
	case mediaguard.EINTERNAL, mediaguard.ECONFIG:
		logger.Error("internal error",
			slog.String("error", err.Error()),
			slog.String("path", c.Path()),
			slog.String("method", c.Request().Method),
		)
		message = "An internal error occurred."
	case mediaguard.EUNAVAILABLE:
		logger.Error("storage backend failure",
			slog.String("error", err.Error()),
			slog.String("path", c.Path()),
		)
		message = "Storage is temporarily unavailable."
	}

	return c.JSON(status, ErrorResponse{
		Error:   code,
		Message: message,
		Fields:  fields,
	})
}
