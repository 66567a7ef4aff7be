package board

import "fmt"

// MalformedBoardError reports geometry that cannot be turned into a board
type MalformedBoardError struct {
	Reason string
	Err    error
}

func (e *MalformedBoardError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed board: %s: %v", e.Reason, e.Err)
	}
	return "malformed board: " + e.Reason
}

func (e *MalformedBoardError) Unwrap() error {
	return e.Err
}

func malformed(err error, format string, args ...any) error {
	return &MalformedBoardError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// InvalidTransitionError reports a transition table that breaks a structural rule
type InvalidTransitionError struct {
	Transition Transition
	Square     int
	Reason     string
}

func (e *InvalidTransitionError) Error() string {
	if e.Transition.Kind == Direct {
		return fmt.Sprintf("invalid transition %d->%d: %s", e.Transition.From, e.Transition.To, e.Reason)
	}
	return fmt.Sprintf("invalid %s transition at %d: %s", e.Transition.Kind, e.Transition.From, e.Reason)
}
