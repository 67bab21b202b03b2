// Package apperr defines sentinel errors shared across the client.
package apperr

import "errors"

var (
	// ErrUnauthenticated indicates no valid session token is available.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrPasswordRequired is returned by login when the password is empty,
	// before any network call is attempted.
	ErrPasswordRequired = errors.New("password is required")
	// ErrNotFound indicates the referenced memory does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a draft failed local validation; the save
	// never reached the network.
	ErrValidation = errors.New("invalid memory")
	// ErrSaveInFlight blocks a duplicate submission while a save for the
	// same form is still pending.
	ErrSaveInFlight = errors.New("save already in flight")
	// ErrCancelled indicates the user declined an interactive confirmation.
	ErrCancelled = errors.New("cancelled")
)
