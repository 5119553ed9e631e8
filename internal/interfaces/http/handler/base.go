package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kkbridge/backend/internal/domain/integration"
	"github.com/kkbridge/backend/internal/interfaces/http/dto"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "X-Request-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	if id := c.GetHeader(RequestIDKey); id != "" {
		return id
	}
	return ""
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// UnprocessableEntity sends a 422 unprocessable entity response
func (h *BaseHandler) UnprocessableEntity(c *gin.Context, code, message string) {
	h.Error(c, http.StatusUnprocessableEntity, code, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BadGateway sends a 502 bad gateway response for upstream platform failures
func (h *BaseHandler) BadGateway(c *gin.Context, message string) {
	h.Error(c, http.StatusBadGateway, dto.ErrCodeUpstream, message)
}

// HandleSyncError converts synchronization errors to HTTP responses
func (h *BaseHandler) HandleSyncError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, integration.ErrInvalidSyncWindow):
		h.BadRequest(c, err.Error())
	case errors.Is(err, integration.ErrRunInProgress):
		h.Conflict(c, "a synchronization pass is already running")
	case errors.Is(err, integration.ErrOrderNotFound):
		h.NotFound(c, "order not found")
	case errors.Is(err, integration.ErrMissingFulfillmentOrder):
		h.UnprocessableEntity(c, dto.ErrCodeInvalidState, "order has no fulfillment order yet")
	default:
		if platformErr, ok := integration.AsPlatformError(err); ok {
			code := dto.ErrCodeUpstream
			if errors.Is(err, integration.ErrPlatformUnavailable) {
				code = dto.ErrCodeUpstreamUnavailable
			}
			h.Error(c, http.StatusBadGateway, code, platformErr.Error())
			return
		}
		h.InternalError(c, "An unexpected error occurred")
	}
}
