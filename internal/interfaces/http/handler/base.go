package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/erp/kanban/internal/infrastructure/storage"
	"github.com/erp/kanban/internal/interfaces/http/dto"
	"github.com/erp/kanban/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	return middleware.GetRequestID(c)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// BindError converts a request binding failure into a 4xx response
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &validationErrs):
		middleware.HandleValidationError(c, err)
	case errors.As(err, &maxBytesErr):
		h.ErrorWithCode(c, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
	default:
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Malformed request body")
	}
}

// HandleError maps errors from the generator and the document store to responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.NotFound(c, "Document not found")
	case errors.Is(err, storage.ErrInvalidName):
		h.BadRequest(c, "Invalid document name")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.ErrorWithCode(c, dto.ErrCodeCanceled, "Request was canceled before the cards were generated")
	default:
		h.ErrorWithCode(c, dto.ErrCodeGenerationFailed, "Kanban cards could not be generated")
	}
}
