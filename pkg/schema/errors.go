package schema

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	// ErrBindingFailed matches every *BindingError via errors.Is.
	ErrBindingFailed = errors.New("schema binding failed")

	// ErrNotFound is returned when no document matches the id.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate document")
	// ErrInvalidID is returned for ids that are not 24-character hex object ids.
	ErrInvalidID = errors.New("invalid document id")
	// ErrArchiveUnsupported is returned when archiving the settings document.
	ErrArchiveUnsupported = errors.New("archive not supported for this collection")
	// ErrNilConnection is returned when binding a nil connection.
	ErrNilConnection = errors.New("nil connection")
)

// BindingError reports that handles could not be bound to a tenant connection.
type BindingError struct {
	TenantID string
	Err      error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("schema: bind tenant %q: %v", e.TenantID, e.Err)
}

func (e *BindingError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrBindingFailed) true for any BindingError.
func (e *BindingError) Is(target error) bool { return target == ErrBindingFailed }

// mapError translates driver errors into package errors, keeping the cause.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Join(ErrDuplicate, err)
	default:
		return err
	}
}
