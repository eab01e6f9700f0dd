package wizard

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned for events the current state does not accept.
var ErrInvalidTransition = errors.New("invalid wizard transition")

// Input fields that can fail validation.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhoto = "photo"
)

// ValidationError rejects one step's input. The machine stays where it was.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalidTransition(s State, e Event) error {
	return fmt.Errorf("%w: %s in %s", ErrInvalidTransition, e, s)
}
