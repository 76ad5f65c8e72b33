package handlers

import (
	"net/http"

	"travelatlas/internal/domain"
	"travelatlas/internal/http/middleware"
	"travelatlas/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Message   string `json:"message"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
		Message:   message,
	})
}

// RespondDomainError maps domain errors to HTTP responses. Anything it does
// not recognise is logged and reported as a bare 500.
func RespondDomainError(c *gin.Context, module string, err error) {
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsUnauthorized(err):
		respondError(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	case domain.IsForbidden(err):
		respondError(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case domain.IsUnavailable(err):
		utils.LogFailure(middleware.GetRequestID(c), module, c.Request.Method+" "+c.FullPath(), err)
		respondError(c, http.StatusServiceUnavailable, "ai_unavailable", "the AI service is unavailable, please try again later", nil)
	case domain.IsBadUpstream(err):
		utils.LogFailure(middleware.GetRequestID(c), module, c.Request.Method+" "+c.FullPath(), err)
		respondError(c, http.StatusBadGateway, "ai_bad_response", "the AI returned a response we could not read", nil)
	default:
		utils.LogFailure(middleware.GetRequestID(c), module, c.Request.Method+" "+c.FullPath(), err)
		respondError(c, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
