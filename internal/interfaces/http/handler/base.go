package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appbyom "github.com/merch/byom/internal/application/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/interfaces/http/dto"
	"github.com/merch/byom/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	return middleware.GetRequestID(c)
}

// getActor builds the service actor from the JWT claims
func getActor(c *gin.Context) (appbyom.Actor, error) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		return appbyom.Actor{}, errors.New("claims not found in context")
	}
	id, err := claims.GetUserUUID()
	if err != nil {
		return appbyom.Actor{}, err
	}
	return appbyom.Actor{ID: id, Email: claims.Email, Admin: claims.IsAdmin()}, nil
}

// actorOrAbort returns the caller, or writes 401 and reports false
func (h *BaseHandler) actorOrAbort(c *gin.Context) (appbyom.Actor, bool) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return appbyom.Actor{}, false
	}
	return actor, true
}

// uuidParam parses a UUID path parameter, or writes 400 and reports false
func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
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
	code = dto.NormalizeErrorCode(code)
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

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// errorInfo maps err to the code and message reported to clients
func errorInfo(err error) (code, message string) {
	var pipeErr *appbyom.PipelineError
	if errors.As(err, &pipeErr) {
		var domainErr *shared.DomainError
		if errors.As(pipeErr.Err, &domainErr) {
			return dto.NormalizeErrorCode(domainErr.Code), domainErr.Message
		}
		return dto.NormalizeErrorCode(appbyom.PipelineErrorCode(pipeErr)), "The " + pipeErr.Stage + " stage failed"
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return dto.NormalizeErrorCode(domainErr.Code), domainErr.Message
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return dto.ErrCodeFileTooLarge, "Request body too large"
	}

	return dto.ErrCodeInternal, "An unexpected error occurred"
}

// HandleError converts service errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	code, message := errorInfo(err)
	if code == dto.ErrCodeInternal || code == dto.ErrCodeUpstream {
		_ = c.Error(err)
	}
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}
