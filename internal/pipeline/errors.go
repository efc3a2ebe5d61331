package pipeline

import "fmt"

// ValidationError reports a malformed request. It is a client error and
// is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}
