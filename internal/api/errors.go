// errors.go defines the gateway error taxonomy.
// Every failed request is classified into exactly one Category so that
// callers branch on the category instead of parsing HTTP status codes.
package api

import "fmt"

// Category classifies a failed request into a user-facing bucket.
type Category int

const (
	// AuthExpired means the backend rejected the session (HTTP 401).
	// It is the only category with a side effect: the client's
	// OnAuthExpired hook fires so the session can be cleared globally.
	AuthExpired Category = iota

	// Forbidden means the session is valid but lacks permission (403).
	Forbidden

	// NotFound means the requested resource does not exist (404).
	NotFound

	// ServerError covers all 5xx responses.
	ServerError

	// Unreachable means no response was received at all: connection
	// refused, DNS failure, or the per-request timeout elapsed.
	Unreachable

	// Malformed means the request never left the client (bad URL,
	// unreadable upload file, unencodable body).
	Malformed

	// ValidationRejected is a backend-declared business-rule failure on
	// a mutation, e.g. "Device model already exists". Its message is
	// action-specific and always surfaced at the call site.
	ValidationRejected
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case AuthExpired:
		return "auth_expired"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case ServerError:
		return "server_error"
	case Unreachable:
		return "unreachable"
	case Malformed:
		return "malformed"
	case ValidationRejected:
		return "validation_rejected"
	default:
		return "unknown"
	}
}

// Error is the typed error returned by every gateway call that fails.
type Error struct {
	Category  Category
	Status    int    // HTTP status code; 0 when no response was received
	Detail    string // backend-provided detail message, if any
	RequestID string // correlation id attached to the outgoing request
	Err       error  // underlying transport error, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %s (status %d): %s", e.Category, e.Status, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("api: %s: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("api: %s (status %d)", e.Category, e.Status)
}

// Unwrap exposes the underlying transport error for errors.Is checks.
func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the operator-facing message for this error.
// ValidationRejected passes the backend's own detail through because it is
// action-specific; every other category maps to a fixed message.
func (e *Error) UserMessage() string {
	switch e.Category {
	case AuthExpired:
		return "Session expired, please sign in again"
	case Forbidden:
		return "You do not have permission to access this resource"
	case NotFound:
		return "The requested resource does not exist"
	case ServerError:
		return "Server error, please try again later"
	case Unreachable:
		return "Cannot reach the lab backend, check your connection"
	case Malformed:
		return "Request could not be constructed"
	case ValidationRejected:
		if e.Detail != "" {
			return e.Detail
		}
		return "Request rejected"
	default:
		return "Request failed"
	}
}

// classify maps an HTTP status to its category.
// 401/403/404/5xx have fixed buckets; everything else that the backend
// rejected carries a business-rule detail and lands in ValidationRejected.
func classify(status int) Category {
	switch {
	case status == 401:
		return AuthExpired
	case status == 403:
		return Forbidden
	case status == 404:
		return NotFound
	case status >= 500:
		return ServerError
	default:
		return ValidationRejected
	}
}
