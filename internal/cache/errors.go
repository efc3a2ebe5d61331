package cache

import "fmt"

// NotFoundError reports an absent artifact. Absence is an expected
// condition for callers deciding whether to regenerate.
type NotFoundError struct {
	Key Key
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("artifact not found: %s", e.Key)
}

// WriteError reports a persistence failure. A dropped write costs a
// redundant future generation, never incorrect output, but it is always
// surfaced so operators can see it.
type WriteError struct {
	Key Key
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cache %s failed for %s: %v", e.Op, e.Key, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
