// Package domain holds the widget's core types and the errors they fail
// with. Adapters map these errors to HTTP statuses or CLI output.
package domain

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is. Every typed error below unwraps to one.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrStorage     = errors.New("storage failure")
	ErrRemoteFetch = errors.New("remote fetch failed")
	ErrUnavailable = errors.New("unavailable")
)

// NotFoundError names a missing entity, such as an absent store key.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}

	return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError returns a *NotFoundError.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError rejects a quote or an import payload. Index is the
// position of the offending element in a batch, or -1 for a single value.
type ValidationError struct {
	Field   string
	Message string
	Index   int
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + " " + msg
	}

	if e.Index >= 0 {
		msg = fmt.Sprintf("item %d: %s", e.Index, msg)
	}

	return "validation failed: " + msg
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError rejects a single value.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message, Index: -1}
}

// NewItemValidationError rejects element index of a batch.
func NewItemValidationError(index int, field, message string) error {
	return &ValidationError{Field: field, Message: message, Index: index}
}

// StorageError is a failed read or write against the persisted store.
// In-memory state stays authoritative when a write fails.
type StorageError struct {
	Op    string
	Key   string
	Cause error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Cause)
	}

	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Cause)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Cause} }

// NewStorageError wraps cause from op on key. key may be empty.
func NewStorageError(op, key string, cause error) error {
	return &StorageError{Op: op, Key: key, Cause: cause}
}

// RemoteFetchError is a network or decode failure against the feed.
type RemoteFetchError struct {
	Source string
	Cause  error
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("fetching from %s: %v", e.Source, e.Cause)
}

func (e *RemoteFetchError) Unwrap() []error { return []error{ErrRemoteFetch, e.Cause} }

// NewRemoteFetchError wraps cause from source.
func NewRemoteFetchError(source string, cause error) error {
	return &RemoteFetchError{Source: source, Cause: cause}
}

// UnavailableError reports a dependency that refused or could not answer.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("service %q unavailable", e.Service)
	}

	return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// NewUnavailableError returns an *UnavailableError.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// The Is helpers match a sentinel through any wrapping.
func IsNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
func IsValidation(err error) bool  { return errors.Is(err, ErrValidation) }
func IsStorage(err error) bool     { return errors.Is(err, ErrStorage) }
func IsRemoteFetch(err error) bool { return errors.Is(err, ErrRemoteFetch) }
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
