package common

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"invoicedesk/internal/logger"
	"invoicedesk/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	ActorKey     contextKey = "actor"
	RequestIDKey contextKey = "request_id"
)

// Default and maximum page sizes for list endpoints
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendAppError writes a domain error with its mapped status code. Errors that
// are not domain errors are logged and reported as a generic server error.
func SendAppError(c echo.Context, err error) error {
	appErr, ok := AsAppError(err)
	if !ok {
		log := logger.FromContext(c.Request().Context())
		log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("request failed")
		return SendServerError(c, "Internal server error")
	}
	return c.JSON(StatusCode(appErr), CreateErrorResponse(string(appErr.Kind), appErr.Message, appErr.Details))
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse(string(KindValidation), "Validation failed", details))
}

// SendClientError sends a client error response
func SendClientError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("CLIENT_ERROR", message, nil))
}

// SendServerError sends a server error response
func SendServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", message, nil))
}

// SendNotFoundError sends a not found error response
func SendNotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, CreateErrorResponse(string(KindNotFound), fmt.Sprintf("%s not found", resource), nil))
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, CreateErrorResponse(string(KindAuthenticationRequired), ErrAuthenticationRequired.Message, nil))
}

// ValidateUUID validates UUID format with comprehensive checks
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	if strings.TrimSpace(idStr) == "" {
		return uuid.Nil, fmt.Errorf("%s is required", fieldName)
	}

	idStr = strings.TrimSpace(idStr)

	if len(idStr) != 36 {
		return uuid.Nil, fmt.Errorf("%s must be exactly 36 characters (including hyphens)", fieldName)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s contains invalid characters: %v", fieldName, err)
	}

	return id, nil
}

// ParsePagination reads limit/offset query parameters, falling back to defaults
func ParsePagination(c echo.Context) (limit, offset int) {
	limit = DefaultPageSize
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			limit = l
		}
	}
	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		if o, err := strconv.Atoi(offsetParam); err == nil && o >= 0 {
			offset = o
		}
	}
	return ClampPagination(limit, offset)
}

// ClampPagination bounds pagination parameters
func ClampPagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// WithActor stores the authenticated caller in the context
func WithActor(ctx context.Context, actor *models.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActorFromContext extracts the authenticated caller from the request
// context. It returns nil for unauthenticated requests.
func GetActorFromContext(ctx context.Context) *models.Actor {
	actor, _ := ctx.Value(ActorKey).(*models.Actor)
	return actor
}
