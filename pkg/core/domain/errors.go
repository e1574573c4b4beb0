package domain

import "errors"

var (
	// ErrInvalidURL is returned when the submitted URL is empty or not an absolute URI.
	ErrInvalidURL = errors.New("invalid url format")

	// ErrInvalidCodeFormat is returned when a custom code does not match ShortCodePattern.
	ErrInvalidCodeFormat = errors.New("custom code must be 3-20 alphanumeric characters, hyphens, or underscores")

	// ErrCodeInUse is returned when a custom code is already taken at lookup time.
	ErrCodeInUse = errors.New("custom code already in use")

	// ErrInsertConflict is returned when the store's unique constraint rejects an insert.
	ErrInsertConflict = errors.New("short code conflicts with an existing link")

	// ErrNotFound is returned when no link matches a short code.
	ErrNotFound = errors.New("short url not found")

	// ErrStoreUnavailable wraps any failure of the underlying store.
	ErrStoreUnavailable = errors.New("store unavailable")
)
