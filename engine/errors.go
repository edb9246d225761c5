package engine

import (
	"fmt"

	"pointsrank/core"
)

// FetchError means the current score could not be read. The operation
// aborts before any write.
type FetchError struct {
	User core.UserID
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch score for %s: %v", e.User, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UpdateError means the points write was rejected after a successful
// read. No activity entry is written and no event is emitted.
type UpdateError struct {
	User core.UserID
	Err  error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update points for %s: %v", e.User, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// ActivityLogError means the append-only ledger entry failed. It never
// fails the operation; the points write is the success criterion.
type ActivityLogError struct {
	User core.UserID
	Err  error
}

func (e *ActivityLogError) Error() string {
	return fmt.Sprintf("append activity for %s: %v", e.User, e.Err)
}

func (e *ActivityLogError) Unwrap() error { return e.Err }
