package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for rejected commands. None of them changes stored state,
// with the one exception of [ErrCorruptStory].
var (
	// ErrInvalidOption is returned when a selection matches no option of the
	// current state. It is wrapped in a [SelectionError].
	ErrInvalidOption = errors.New("invalid option")

	// ErrInvalidBookmark is returned when a reset names a state that has not
	// been reached.
	ErrInvalidBookmark = errors.New("bookmark not reached")

	// ErrNoActiveStory is returned when the channel has no story loaded.
	ErrNoActiveStory = errors.New("no active story")

	// ErrNoDocument is returned when a load carries no document.
	ErrNoDocument = errors.New("no story document")

	// ErrCorruptStory is returned when the channel's stored story cannot be
	// decoded. The stored story is cleared before the error is returned.
	ErrCorruptStory = errors.New("stored story is corrupted and was cleared")
)

// SelectionError reports a selection that matched no option.
//
// It unwraps to [ErrInvalidOption], so callers that only need the kind of
// rejection can use errors.Is; callers that show the valid choices again
// use errors.As:
//
//	var selErr *session.SelectionError
//	if errors.As(err, &selErr) {
//	    fmt.Printf("%s is not one of %v\n", selErr.Selection, selErr.Options)
//	}
type SelectionError struct {
	// Selection is the text as received.
	Selection string

	// Options are the current state's option labels at the time of the
	// rejection.
	Options []string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidOption, e.Selection)
}

// Unwrap returns [ErrInvalidOption].
func (e *SelectionError) Unwrap() error {
	return ErrInvalidOption
}
