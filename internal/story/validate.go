package story

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultCommandPrefix is the reserved command word. Option targets may not
// contain it, so a chosen option can never be mistaken for a command.
const DefaultCommandPrefix = "advpal"

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type validateConfig struct {
	commandPrefix string
}

// ValidateOption configures [Validate].
type ValidateOption func(*validateConfig)

// WithCommandPrefix overrides the reserved command word checked against
// option targets. An empty prefix disables the check.
func WithCommandPrefix(prefix string) ValidateOption {
	return func(c *validateConfig) {
		c.commandPrefix = prefix
	}
}

// Validate parses raw JSON into a [Document], checking every structural rule.
//
// The document must be an object with string title, author and start fields
// and a non-empty states object. Each state needs string bookmark and text
// fields, may carry string imgsrc and ending ("good" or "bad") fields, and
// lists its options as an object of label to target. The start state and
// every option target must name a state; option targets also may not contain
// the command prefix.
//
// Structural violations return a [*SchemaError]; bad state references return
// a [*DanglingReferenceError]. Validate has no side effects.
func Validate(raw []byte, opts ...ValidateOption) (*Document, error) {
	cfg := validateConfig{commandPrefix: DefaultCommandPrefix}
	for _, opt := range opts {
		opt(&cfg)
	}

	fields, err := decodeObject(raw)
	if err != nil {
		return nil, &SchemaError{Field: "document", Reason: "must be a JSON object"}
	}

	title, err := requiredString(fields, "title", "title")
	if err != nil {
		return nil, err
	}
	author, err := requiredString(fields, "author", "author")
	if err != nil {
		return nil, err
	}
	start, err := requiredString(fields, "start", "start")
	if err != nil {
		return nil, err
	}

	rawStates, ok := fields["states"]
	if !ok || isNull(rawStates) {
		return nil, &SchemaError{Field: "states", Reason: "is required"}
	}
	stateFields, err := decodeObject(rawStates)
	if err != nil {
		return nil, &SchemaError{Field: "states", Reason: "must be an object"}
	}
	if len(stateFields) == 0 {
		return nil, &SchemaError{Field: "states", Reason: "must define at least one state"}
	}
	if _, ok := stateFields[start]; !ok {
		return nil, &DanglingReferenceError{State: StateID(start)}
	}

	ids := make([]string, 0, len(stateFields))
	for id := range stateFields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	states := make(map[StateID]State, len(stateFields))
	for _, id := range ids {
		st, err := validateState(id, stateFields[id])
		if err != nil {
			return nil, err
		}
		states[StateID(id)] = st
	}

	for _, id := range ids {
		for _, opt := range states[StateID(id)].Options {
			if cfg.commandPrefix != "" && strings.Contains(string(opt.Target), cfg.commandPrefix) {
				return nil, &DanglingReferenceError{State: opt.Target}
			}
			if _, ok := states[opt.Target]; !ok {
				return nil, &DanglingReferenceError{State: opt.Target}
			}
		}
	}

	return &Document{
		Title:  title,
		Author: author,
		Start:  StateID(start),
		States: states,
	}, nil
}

func validateState(id string, raw json.RawMessage) (State, error) {
	prefix := "states." + id
	fields, err := decodeObject(raw)
	if err != nil {
		return State{}, &SchemaError{Field: prefix, Reason: "must be an object"}
	}

	bookmark, err := requiredString(fields, "bookmark", prefix+".bookmark")
	if err != nil {
		return State{}, err
	}
	text, err := requiredString(fields, "text", prefix+".text")
	if err != nil {
		return State{}, err
	}
	imgsrc, err := optionalString(fields, "imgsrc", prefix+".imgsrc")
	if err != nil {
		return State{}, err
	}
	ending, err := optionalString(fields, "ending", prefix+".ending")
	if err != nil {
		return State{}, err
	}
	options, err := decodeOptions(fields["options"])
	if err != nil {
		return State{}, &SchemaError{Field: prefix + ".options", Reason: err.Error()}
	}

	st := State{
		Bookmark: bookmark,
		Text:     text,
		ImageURL: imgsrc,
		Ending:   Ending(ending),
		Options:  options,
	}
	if err := structValidator.Struct(st); err != nil {
		return State{}, schemaErrorFromValidation(prefix, err)
	}
	return st, nil
}

func schemaErrorFromValidation(prefix string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &SchemaError{Field: prefix, Reason: err.Error()}
	}
	fe := verrs[0]
	reason := fmt.Sprintf("failed %q check", fe.Tag())
	if fe.Tag() == "oneof" {
		reason = fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return &SchemaError{Field: prefix + "." + fe.Field(), Reason: reason}
}

func decodeObject(raw []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("null object")
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func requiredString(fields map[string]json.RawMessage, key, field string) (string, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return "", &SchemaError{Field: field, Reason: "is required"}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &SchemaError{Field: field, Reason: "must be a string"}
	}
	return s, nil
}

func optionalString(fields map[string]json.RawMessage, key, field string) (string, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &SchemaError{Field: field, Reason: "must be a string"}
	}
	return s, nil
}
