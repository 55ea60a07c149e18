package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInputNotFound indicates the document to split does not exist.
	// It is reported before any processing starts.
	ErrInputNotFound = errors.New("input not found")

	// ErrInvalidLimit indicates a size limit that is zero, negative or unparsable.
	ErrInvalidLimit = errors.New("invalid size limit")

	// ErrPageIndex indicates a page lookup outside [0, PageCount).
	ErrPageIndex = errors.New("page index out of range")

	// ErrSerialization indicates the page serialization primitive failed.
	// It aborts the whole run: skipping a page would leave a gap in the partition.
	ErrSerialization = errors.New("serialization failed")

	// ErrHistoryDisabled indicates no run store is configured.
	ErrHistoryDisabled = errors.New("history disabled")
)
