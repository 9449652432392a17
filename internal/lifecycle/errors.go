package lifecycle

import "fmt"

// ValidationError rejects a transition before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NotFoundError means the target record is absent in the stage table the
// transition needed. Every transition reports this; none degrade to a silent
// zero-row update.
type NotFoundError struct {
	Stage Stage
	ID    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %q not found in %s", e.ID, e.Stage)
}

// DuplicateError rejects creating a record whose uniqueness key is already
// active.
type DuplicateError struct {
	Key        string
	Value      string
	ExistingID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already active on record %s", e.Key, e.Value, e.ExistingID)
}

// PersistenceError wraps a database failure; the operation's transaction has
// been rolled back when this surfaces.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
