// Package codec converts stories to and from their persisted form.
//
// A persisted story is one flat JSON object holding the whole document plus
// the reader's position:
//
//	{
//	  "version": 1,
//	  "states": {"room": {"bookmark": "Room", "text": "...", "options": {"left": "hall"}}},
//	  "title": "The Cave", "author": "Ann", "start": "room",
//	  "state": "room", "bookmarks": ["room"]
//	}
//
// [Decode] treats the blob as untrusted: the document is re-validated with
// [story.Validate] and the position is checked against it. [ParseUpload]
// reads a freshly uploaded document, in JSON or YAML.
package codec

import (
	"encoding/json"
	"fmt"

	"advpal/internal/story"
)

// Version is the blob layout written by [Encode]. Blobs without a version
// field are read as version 1.
const Version = 1

type blob struct {
	Version   int                           `json:"version"`
	States    map[story.StateID]story.State `json:"states"`
	Title     string                        `json:"title"`
	Author    string                        `json:"author"`
	Start     story.StateID                 `json:"start"`
	State     story.StateID                 `json:"state,omitempty"`
	Bookmarks []story.StateID               `json:"bookmarks"`
}

// Encode serialises a story and its position into a persisted blob.
func Encode(s *story.Story) ([]byte, error) {
	if s == nil || s.Document == nil {
		return nil, fmt.Errorf("encode story: no document")
	}
	bookmarks := s.Position.Bookmarks
	if bookmarks == nil {
		bookmarks = []story.StateID{}
	}

	b := blob{
		Version:   Version,
		States:    s.Document.States,
		Title:     s.Document.Title,
		Author:    s.Document.Author,
		Start:     s.Document.Start,
		State:     s.Position.Current,
		Bookmarks: bookmarks,
	}
	data, err := json.Marshal(&b)
	if err != nil {
		return nil, fmt.Errorf("encode story: %w", err)
	}
	return data, nil
}

// Decode rebuilds a story from a persisted blob.
//
// The document part goes through [story.Validate] with opts, so a corrupted
// or hand-edited blob fails with a [story.SchemaError] or
// [story.DanglingReferenceError]. A blob without a "state" field holds a
// document that was never entered; it is entered at its start state.
func Decode(data []byte, opts ...story.ValidateOption) (*story.Story, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, &story.SchemaError{Field: "document", Reason: "must be a JSON object"}
	}

	if raw, ok := fields["version"]; ok {
		var v int
		if err := json.Unmarshal(raw, &v); err != nil || v != Version {
			return nil, &story.SchemaError{Field: "version", Reason: fmt.Sprintf("unsupported version %s", string(raw))}
		}
	}

	doc, err := story.Validate(data, opts...)
	if err != nil {
		return nil, err
	}
	s := story.New(doc)

	rawState, ok := fields["state"]
	if !ok || string(rawState) == "null" {
		if _, err := s.EnterInitialState(); err != nil {
			return nil, err
		}
		return s, nil
	}

	var current string
	if err := json.Unmarshal(rawState, &current); err != nil {
		return nil, &story.SchemaError{Field: "state", Reason: "must be a string"}
	}
	var bookmarks []story.StateID
	if raw, ok := fields["bookmarks"]; ok {
		if err := json.Unmarshal(raw, &bookmarks); err != nil {
			return nil, &story.SchemaError{Field: "bookmarks", Reason: "must be a list of state ids"}
		}
	}

	pos := story.Position{Current: story.StateID(current), Bookmarks: bookmarks}
	if err := story.CheckPosition(doc, pos); err != nil {
		return nil, err
	}
	s.Position = pos
	return s, nil
}
