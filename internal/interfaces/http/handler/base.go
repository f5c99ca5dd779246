package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retaildesk/backend/internal/domain/shared"
	"github.com/retaildesk/backend/internal/infrastructure/logger"
	"github.com/retaildesk/backend/internal/interfaces/http/dto"
	"github.com/retaildesk/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessList sends a list with its total count
func (h *BaseHandler) SuccessList(c *gin.Context, data any, total int) {
	c.JSON(http.StatusOK, dto.NewListResponse(data, total))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BindingError sends a 400 response for a failed bind
func (h *BaseHandler) BindingError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError converts service errors to HTTP responses. Coded errors keep
// their code and message; anything else is logged and reported as a 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var coded shared.CodedError
	if errors.As(err, &coded) {
		code := dto.NormalizeErrorCode(coded.ErrorCode())
		message := coded.Error()
		// The wrapped chain may name internal hosts and paths
		if code == dto.ErrCodeServiceUnavailable {
			message = "Data service unavailable, try again later"
		}
		h.ErrorWithCode(c, code, message)
		return
	}

	logger.L(c.Request.Context()).Error("Unhandled error", zap.Error(err))
	h.ErrorWithCode(c, dto.ErrCodeInternal, "An unexpected error occurred")
}

// bindID reads the :id path parameter
func (h *BaseHandler) bindID(c *gin.Context) (int64, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.ErrorWithCode(c, dto.ErrCodeValidation, "id must be a positive integer")
		return 0, false
	}
	return req.ID, true
}
