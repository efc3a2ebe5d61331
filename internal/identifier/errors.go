package identifier

import "fmt"

// InvalidFieldError reports a sub-field value that cannot be encoded:
// either outside its allotted bit width or not in the registered
// enumeration for that field.
type InvalidFieldError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// MalformedIdentifierError reports an identifier that no valid Encode call
// could have produced.
type MalformedIdentifierError struct {
	Raw    string
	Reason string
}

func (e *MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed worksheet identifier %q: %s", e.Raw, e.Reason)
}
