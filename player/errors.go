package player

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned when an operation is posted to a torn-down session
var ErrSessionClosed = errors.New("playback session closed")

// InputError marks a synchronously rejected call (bad rate, volume out of range).
// It never reaches the network and is logged at the call boundary.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsInputError reports whether err is an InputError
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
