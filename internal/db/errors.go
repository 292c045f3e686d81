package db

import "errors"

// ErrKeyNotFound is returned by Counter for a missing key.
var ErrKeyNotFound = errors.New("db: key not found")

// Error carries the failed command and key for diagnostics.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Key + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
