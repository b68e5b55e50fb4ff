package patch

import "fmt"

// AddressError reports a suggestion field string that cannot be parsed.
type AddressError struct {
	Field   string
	Message string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("invalid field address %q: %s", e.Field, e.Message)
}
