package habits

import "fmt"

// ValidationError rejects an operation before anything changes.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("habits: invalid %s: %s", e.Field, e.Message)
}

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("habits: habit %q not found", e.ID)
}

// PersistenceError reports a failed load or save. On save the in-memory
// change has already been applied.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("habits: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
