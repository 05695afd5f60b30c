package httpkit

import (
	"errors"
	"net/http"

	"treeleads/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error body for every endpoint. Message mirrors Error
// for the admin UI.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func JSON(c *gin.Context, status int, payload interface{}) { c.JSON(status, payload) }

func OK(c *gin.Context, payload interface{}) { c.JSON(http.StatusOK, payload) }

func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Message: message, Details: details})
}

// Abort writes an error body and stops the handler chain.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Message: message})
}

// HandleError writes err and reports whether there was one. *apperr.Error
// anywhere in the chain picks the status; other errors become an opaque 500
// and are attached to the gin context for RequestLogger.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		Error(c, domainErr.HTTPStatus(), domainErr.Message, domainErr.Details)
		return true
	}
	_ = c.Error(err)
	Error(c, http.StatusInternalServerError, "internal server error", nil)
	return true
}
