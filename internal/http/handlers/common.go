package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"travelatlas/internal/domain"
	"travelatlas/internal/http/middleware"
	"travelatlas/internal/validation"

	"github.com/gin-gonic/gin"
)

// BindJSONOrError ensures the body is present, parsable and valid.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "request body is empty", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			respondError(c, http.StatusBadRequest, "validation_error", "request body is empty", nil)
			return false
		}
		respondError(c, http.StatusBadRequest, "validation_error", validation.Describe(err), nil)
		return false
	}
	return true
}

// userID returns the caller, or "" when the route allows anonymous access.
func userID(c *gin.Context) string { return middleware.GetUserID(c) }

func requestID(c *gin.Context) string { return middleware.GetRequestID(c) }

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ValidationError{Field: key, Msg: key + " must be an integer"}
	}
	return n, nil
}

// pagination reads ?limit= and ?offset=; services clamp the values.
func pagination(c *gin.Context) (domain.Pagination, error) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return domain.Pagination{}, err
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return domain.Pagination{}, err
	}
	return domain.Pagination{Limit: limit, Offset: offset}, nil
}

type listResponse[T any] struct {
	Items      []T               `json:"items"`
	Pagination domain.Pagination `json:"pagination"`
}
