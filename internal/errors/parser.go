package errors

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a classified error ready to be sent to the client.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError classifies database and transport errors into a code and a
// message that is safe to show. resource names the entity being handled,
// e.g. "product".
func ParseError(err error, resource string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "An internal error occurred"}
	}

	errLower := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrorInfo{Code: ResourceNotFound, Message: fmt.Sprintf("%s not found", label(resource))}

	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(errLower, "duplicate key"),
		strings.Contains(errLower, "unique constraint"):
		return parseDuplicateKeyError(errLower, resource)

	case errors.Is(err, gorm.ErrForeignKeyViolated),
		strings.Contains(errLower, "foreign key constraint"):
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: fmt.Sprintf("%s references a record that does not exist or is still in use", label(resource)),
		}

	case strings.Contains(errLower, "violates not-null constraint"),
		strings.Contains(errLower, "not null constraint"):
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}

	case strings.Contains(errLower, "connection refused"),
		strings.Contains(errLower, "no such host"),
		strings.Contains(errLower, "timeout"):
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "A backing service is unreachable, please try again later",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: fmt.Sprintf("Failed to process %s", resource),
	}
}

func parseDuplicateKeyError(errLower string, resource string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "Email is already in use"}
	case strings.Contains(errLower, "slug"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: fmt.Sprintf("%s slug is already in use", label(resource))}
	case strings.Contains(errLower, "name"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: fmt.Sprintf("%s name is already in use", label(resource))}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: fmt.Sprintf("%s already exists", label(resource))}
}

// label capitalizes the first letter of a resource name.
func label(resource string) string {
	if resource == "" {
		return "Resource"
	}
	return strings.ToUpper(resource[:1]) + resource[1:]
}
