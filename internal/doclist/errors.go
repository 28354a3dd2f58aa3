package doclist

import (
	"errors"
	"fmt"
	"net/http"
)

// Error variables for document service operations.
var (
	ErrAuthentication   = errors.New("authentication failed")
	ErrNotAuthenticated = errors.New("not authenticated: call Login or LoginWithToken first")
	ErrService          = errors.New("document service error")
	ErrUnknownFilter    = errors.New("unknown list filter")
	ErrIDRequired       = errors.New("resource id is required")
	ErrUnsupportedKind  = errors.New("document kind cannot be exported")
)

// ServiceError is a non-2xx response from the document service.
type ServiceError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("document service: %s %s", http.StatusText(e.StatusCode), e.URL)
	if e.Body != "" {
		msg += ": " + e.Body
	}

	return msg
}

// Is reports ErrService for every ServiceError and ErrAuthentication for
// 401 and 403 responses.
func (e *ServiceError) Is(target error) bool {
	switch target {
	case ErrService:
		return true
	case ErrAuthentication:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	default:
		return false
	}
}
