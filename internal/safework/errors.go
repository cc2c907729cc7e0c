package safework

import "errors"

var (
	// ErrInvalidInput reports a malformed or missing date, a negative or
	// non-numeric duration, or an unknown field. Nothing is mutated.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound reports a missing record id. Nothing is mutated.
	ErrNotFound = errors.New("not found")

	// ErrPersistenceWrite reports that the dataset could not be written to
	// its blob. The in-memory mutation that triggered the write is kept.
	ErrPersistenceWrite = errors.New("persistence write failed")

	// ErrBlobNotFound is returned by BlobStore.Get when the key is absent.
	ErrBlobNotFound = errors.New("blob not found")
)
