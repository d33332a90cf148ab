package form

import (
	"errors"
	"strings"
)

var (
	ErrFormNotFound = errors.New("form not found")
)

// ValidationError aggregates every structural problem found in a form edit
// so a client can fix all of them in one round trip.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Add(msg string) {
	e.Messages = append(e.Messages, msg)
}

func (e *ValidationError) Empty() bool {
	return len(e.Messages) == 0
}

func (e *ValidationError) Error() string {
	return "invalid form definition: " + strings.Join(e.Messages, "; ")
}
