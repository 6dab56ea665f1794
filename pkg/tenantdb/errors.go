package tenantdb

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTenantID is returned when the tenant identifier is empty or not a safe database name.
	ErrInvalidTenantID = errors.New("invalid tenant identifier")

	// ErrConnectionFailed matches every *ConnectionError via errors.Is.
	ErrConnectionFailed = errors.New("tenant connection failed")

	// ErrConnectionClosed is returned when a closed connection handle is used.
	ErrConnectionClosed = errors.New("tenant connection closed")

	// ErrRegistryClosed is returned by Resolve and Acquire after Close.
	ErrRegistryClosed = errors.New("tenant registry closed")

	// ErrNilConnector is returned by New when no Connector is supplied.
	ErrNilConnector = errors.New("tenant connector is nil")
)

// ConnectionError reports a failed attempt to open a tenant's database connection.
// Nothing is cached for the tenant, so the next resolve retries.
type ConnectionError struct {
	TenantID string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("tenantdb: connect tenant %q: %v", e.TenantID, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConnectionFailed) true for any ConnectionError.
func (e *ConnectionError) Is(target error) bool { return target == ErrConnectionFailed }
