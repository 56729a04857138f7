// Package story implements the interactive-fiction document model.
//
// A story is a set of named states connected by labelled options. A reader
// starts at the document's start state and moves through it by choosing
// options; every state reached for the first time is recorded as a bookmark
// the reader may later return to.
//
// Key types:
//   - [Document] is the validated, immutable story content
//   - [State] is one narrative node with its ordered [Options]
//   - [Position] is the reader's current state and bookmark history
//   - [Story] pairs a document with a position and implements the transitions
//
// Documents come from untrusted input and are always built by [Validate],
// which either returns a complete document or a [SchemaError] /
// [DanglingReferenceError] naming the offending field or state.
package story

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StateID identifies a state within a [Document].
type StateID string

// Ending marks a terminal state. The zero value means the state is not an ending.
type Ending string

// Ending values recognised in story documents.
const (
	EndingNone Ending = ""
	EndingGood Ending = "good"
	EndingBad  Ending = "bad"
)

// Option is one numbered choice offered by a state.
type Option struct {
	// Label is the text shown to the reader and the option's public identifier.
	Label string `json:"label"`

	// Target is the state the option leads to.
	Target StateID `json:"target"`
}

// Options is the ordered list of choices of a state. The order is the order
// the options appear in the source document and defines their ordinals.
//
// Options encode as a JSON object mapping label to target, keeping order.
// Decoding also accepts an array of {"label", "target"} objects and null.
type Options []Option

// Labels returns the option labels in order.
func (o Options) Labels() []string {
	labels := make([]string, len(o))
	for i, opt := range o {
		labels[i] = opt.Label
	}
	return labels
}

// Find returns the option with the given label.
func (o Options) Find(label string) (Option, bool) {
	for _, opt := range o {
		if opt.Label == label {
			return opt, true
		}
	}
	return Option{}, false
}

// MarshalJSON encodes the options as an ordered JSON object.
func (o Options) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(opt.Label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(string(opt.Target))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes options from an object, an array of pairs, or null.
func (o *Options) UnmarshalJSON(data []byte) error {
	opts, err := decodeOptions(data)
	if err != nil {
		return err
	}
	*o = opts
	return nil
}

// decodeOptions reads options without losing the order of object keys,
// which encoding/json discards when decoding into a map.
func decodeOptions(data []byte) (Options, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Options{}, nil
	}

	switch trimmed[0] {
	case '{':
		return decodeOptionObject(trimmed)
	case '[':
		var pairs []struct {
			Label  *string `json:"label"`
			Target *string `json:"target"`
		}
		if err := json.Unmarshal(trimmed, &pairs); err != nil {
			return nil, fmt.Errorf("options must be a list of label/target string pairs")
		}
		opts := make(Options, 0, len(pairs))
		for i, p := range pairs {
			if p.Label == nil || p.Target == nil {
				return nil, fmt.Errorf("option %d must have string label and target", i+1)
			}
			opts = append(opts, Option{Label: *p.Label, Target: StateID(*p.Target)})
		}
		return opts, checkDuplicateLabels(opts)
	default:
		return nil, fmt.Errorf("options must be an object of string targets")
	}
}

func decodeOptionObject(data []byte) (Options, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("options must be an object of string targets")
	}

	opts := Options{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("options must be an object of string targets")
		}
		label, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("options must be an object of string targets")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("options must be an object of string targets")
		}
		var target string
		if isNull(raw) || json.Unmarshal(raw, &target) != nil {
			return nil, fmt.Errorf("option %q must target a state id string", label)
		}
		opts = append(opts, Option{Label: label, Target: StateID(target)})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("options must be an object of string targets")
	}
	return opts, checkDuplicateLabels(opts)
}

func checkDuplicateLabels(opts Options) error {
	seen := make(map[string]bool, len(opts))
	for _, opt := range opts {
		if seen[opt.Label] {
			return fmt.Errorf("duplicate option label %q", opt.Label)
		}
		seen[opt.Label] = true
	}
	return nil
}

// State is one narrative node of a story.
type State struct {
	// Bookmark is the human-readable label of the state.
	Bookmark string `json:"bookmark"`

	// Text is the narrative shown while the state is current.
	Text string `json:"text"`

	// ImageURL is an optional picture for the state.
	ImageURL string `json:"imgsrc,omitempty"`

	// Ending is set on terminal states.
	Ending Ending `json:"ending,omitempty" validate:"omitempty,oneof=good bad"`

	// Options are the outgoing choices in display order.
	Options Options `json:"options"`
}

// Document is a validated story. Build it with [Validate]; a Document is not
// modified after construction.
type Document struct {
	Title  string            `json:"title"`
	Author string            `json:"author"`
	Start  StateID           `json:"start"`
	States map[StateID]State `json:"states"`
}

// State returns the state with the given id.
func (d *Document) State(id StateID) (State, bool) {
	if d == nil {
		return State{}, false
	}
	st, ok := d.States[id]
	return st, ok
}

// HasState reports whether id names a state of the document.
func (d *Document) HasState(id StateID) bool {
	_, ok := d.State(id)
	return ok
}
