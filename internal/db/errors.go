package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrCollectionNotFound = errors.New("db: collection not found")
	ErrCollectionExists   = errors.New("db: collection already exists")
	ErrClosed             = errors.New("db: store closed")
)

// Op constants name store operations for error context and metrics.
const (
	OpOpen             = "open"
	OpPing             = "ping"
	OpMigrate          = "migrate"
	OpGetCollection    = "get_collection"
	OpCreateCollection = "create_collection"
	OpAdd              = "add"
	OpGet              = "get"
	OpClose            = "close"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// IsCollectionNotFound reports whether err means the collection does not exist.
func IsCollectionNotFound(err error) bool {
	return errors.Is(err, ErrCollectionNotFound)
}

// IsCollectionExists reports whether err means the collection was already created.
func IsCollectionExists(err error) bool {
	return errors.Is(err, ErrCollectionExists)
}
