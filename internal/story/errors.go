package story

import (
	"errors"
	"fmt"
)

// Sentinel errors for story documents.
//
// [ErrSchema] and [ErrDanglingReference] are never returned bare; they exist
// so callers can classify [Validate] failures without a type switch:
//
//	doc, err := story.Validate(data)
//	switch {
//	case errors.Is(err, story.ErrSchema):
//	    // malformed document
//	case errors.Is(err, story.ErrDanglingReference):
//	    // well formed, but an option leads nowhere
//	}
var (
	// ErrSchema matches every [SchemaError] via errors.Is.
	ErrSchema = errors.New("story schema violation")

	// ErrDanglingReference matches every [DanglingReferenceError] via errors.Is.
	ErrDanglingReference = errors.New("story references an undefined state")

	// ErrInvalidStartState is returned by [Story.EnterInitialState] when the
	// document has no usable start state. Validated documents never produce it.
	ErrInvalidStartState = errors.New("story has invalid starting state")
)

// SchemaError reports a structural or type violation in a story document.
//
// The codec package also uses it for uploads that cannot be converted to a
// document at all, with Field set to "document".
type SchemaError struct {
	// Field is the dotted path of the offending field, for example "start"
	// or "states.hall.options".
	Field string

	// Reason is a short lower-case description such as "is required".
	Reason string
}

// Error returns the field and reason, e.g.
// `invalid story field "start": is required`.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid story field %q: %s", e.Field, e.Reason)
}

// Is reports whether target is [ErrSchema].
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// DanglingReferenceError reports a start state or option target that does not
// name a usable state of the document. Targets containing the reserved
// command prefix are reported the same way.
type DanglingReferenceError struct {
	// State is the id that was referenced.
	State StateID
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("story references undefined state %q", string(e.State))
}

// Is reports whether target is [ErrDanglingReference].
func (e *DanglingReferenceError) Is(target error) bool {
	return target == ErrDanglingReference
}
