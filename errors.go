package session

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeNetworkError marks failures that never reached the backend.
	TextCodeNetworkError = "NETWORK_ERROR"
	// TextCodeBadResponse marks 2xx responses with an undecodable body.
	TextCodeBadResponse = "BAD_RESPONSE"
)

// ErrNoStoredUser is returned when a partial update finds no stored user.
var ErrNoStoredUser = goerrors.New("no stored user", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrManagerClosed is returned by lifecycle operations after Close.
var ErrManagerClosed = goerrors.New("session manager is closed", goerrors.CategoryOperation)

// ErrMalformedAuthResult marks a success response that is missing its token
// or user payload.
var ErrMalformedAuthResult = goerrors.New("auth response missing token or user", goerrors.CategoryOperation).
	WithTextCode(TextCodeBadResponse)

// ErrorType classifies a failure for UI consumption.
type ErrorType string

const (
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeForbidden  ErrorType = "forbidden"
	ErrorTypeNotFound   ErrorType = "notFound"
	ErrorTypeServer     ErrorType = "server"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// ErrorInfo is the user-facing description of a failure. Retry marks errors
// the calling UI should offer a retry action for.
type ErrorInfo struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retry      bool
}

// validationMessages rewrites common backend validation strings into
// friendlier copy. Unknown messages pass through verbatim.
var validationMessages = map[string]string{
	"email is required":      "Please enter your email address",
	"password is required":   "Please enter your password",
	"first_name is required": "Please enter your first name",
	"last_name is required":  "Please enter your last name",
	"phone is required":      "Please enter your phone number",
	"invalid email format":   "Please enter a valid email address",
	"password too weak":      "Password must be at least 8 characters with uppercase, lowercase, and numbers",
	"invalid phone format":   "Please enter a valid phone number",
	"Invalid credentials":    "Invalid email or password",
}

// conflictMessages covers 409 responses.
var conflictMessages = map[string]string{
	"User with this email already exists": "An account with this email already exists",
	"email already registered":            "An account with this email already exists",
}

func formatValidationMessage(message string) string {
	if friendly, ok := validationMessages[message]; ok {
		return friendly
	}
	return message
}

func formatConflictMessage(message string) string {
	if friendly, ok := conflictMessages[message]; ok {
		return friendly
	}
	return formatValidationMessage(message)
}

// Describe maps any error into the fixed taxonomy. API-originated errors
// (rich go-errors values carrying an HTTP status) map by status; everything
// else is network or unknown.
func Describe(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{Type: ErrorTypeUnknown, Message: "An unexpected error occurred"}
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return ErrorInfo{Type: ErrorTypeUnknown, Message: err.Error()}
	}

	if richErr.TextCode == TextCodeNetworkError {
		return ErrorInfo{
			Type:    ErrorTypeNetwork,
			Message: "Unable to connect to the server. Please check your internet connection and try again.",
			Retry:   true,
		}
	}

	switch richErr.Code {
	case 400:
		return ErrorInfo{
			Type:       ErrorTypeValidation,
			Message:    formatValidationMessage(richErr.Message),
			StatusCode: richErr.Code,
		}
	case 401:
		return ErrorInfo{
			Type:       ErrorTypeAuth,
			Message:    "Your session has expired. Please log in again.",
			StatusCode: richErr.Code,
		}
	case 403:
		return ErrorInfo{
			Type:       ErrorTypeForbidden,
			Message:    "You do not have permission to perform this action.",
			StatusCode: richErr.Code,
		}
	case 404:
		return ErrorInfo{
			Type:       ErrorTypeNotFound,
			Message:    "The requested resource was not found.",
			StatusCode: richErr.Code,
		}
	case 409:
		return ErrorInfo{
			Type:       ErrorTypeValidation,
			Message:    formatConflictMessage(richErr.Message),
			StatusCode: richErr.Code,
		}
	case 429:
		return ErrorInfo{
			Type:       ErrorTypeServer,
			Message:    "Too many requests. Please wait a moment and try again.",
			StatusCode: richErr.Code,
			Retry:      true,
		}
	case 500, 502, 503, 504:
		return ErrorInfo{
			Type:       ErrorTypeServer,
			Message:    "Server error. Please try again later or contact support if the problem persists.",
			StatusCode: richErr.Code,
			Retry:      true,
		}
	}

	msg := richErr.Message
	if msg == "" {
		msg = "An unexpected error occurred"
	}
	return ErrorInfo{Type: ErrorTypeUnknown, Message: msg, StatusCode: richErr.Code}
}

// IsRetryable reports whether the calling UI should offer a retry action.
func IsRetryable(err error) bool {
	return Describe(err).Retry
}
