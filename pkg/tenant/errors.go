package tenant

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingIdentity is returned when a request reaches tenant middleware
	// without a verified tenant identity.
	ErrMissingIdentity = errors.New("tenant identity missing")

	// ErrNoScope is returned when tenant handles are requested outside the middleware.
	ErrNoScope = errors.New("no tenant scope in context")
)

// InternalError reports that the tenant's database context could not be set up.
// Message is safe to show to clients; Err is for logs only.
type InternalError struct {
	TenantID string
	Message  string
	Err      error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("tenant %q: %s: %v", e.TenantID, e.Message, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }
