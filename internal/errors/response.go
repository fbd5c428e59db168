package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`   // code from codes.go
	Message string `json:"message"` // human readable
}

func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// RespondWithParsedError classifies err with ParseError and picks the
// matching status code.
func RespondWithParsedError(c *gin.Context, err error, resource string) {
	info := ParseError(err, resource)
	status := http.StatusInternalServerError
	switch info.Code {
	case ResourceNotFound:
		status = http.StatusNotFound
	case ResourceAlreadyExists, AuthEmailAlreadyExists:
		status = http.StatusConflict
	case ValidationInvalidInput, ValidationRequired:
		status = http.StatusBadRequest
	case InternalExternalAPI:
		status = http.StatusBadGateway
	}
	RespondWithError(c, status, info.Code, info.Message)
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Sign-in required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "An internal error occurred, please try again later"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// ValidationError carries per-field messages.
type ValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ValidationError{
		Error:   ValidationInvalidInput,
		Message: "Invalid input",
		Fields:  fields,
	})
}
