package story

import (
	"fmt"
	"strings"
)

// Position is a reader's place in a document.
//
// Positions are persisted next to their document by the codec package and
// checked against it with [CheckPosition] when read back. The zero value is
// a story that has not been entered.
type Position struct {
	// Current is the state being shown.
	Current StateID

	// Bookmarks lists every distinct state reached, in order of first visit.
	Bookmarks []StateID
}

// Clone returns a copy of p that shares no memory with it.
func (p Position) Clone() Position {
	bookmarks := make([]StateID, len(p.Bookmarks))
	copy(bookmarks, p.Bookmarks)
	return Position{Current: p.Current, Bookmarks: bookmarks}
}

// HasBookmark reports whether id has been reached.
func (p Position) HasBookmark(id StateID) bool {
	for _, b := range p.Bookmarks {
		if b == id {
			return true
		}
	}
	return false
}

func (p *Position) addBookmark(id StateID) {
	if !p.HasBookmark(id) {
		p.Bookmarks = append(p.Bookmarks, id)
	}
}

// Story is a document together with the reader's position in it.
//
// The accessors report on the current state and return zero values when the
// position does not name a state. Transitions are [Story.Choose] and
// [Story.ResetToBookmark]; both leave the story unchanged when they report
// false.
//
// A Story is not safe for concurrent use. The session package gives each
// command its own decoded copy.
//
//	s := story.New(doc)
//	if _, err := s.EnterInitialState(); err != nil {
//	    return err
//	}
//	if _, ok := s.Choose("2"); !ok {
//	    // not an option of the current state
//	}
type Story struct {
	Document *Document
	Position Position
}

// New returns a story for doc that has not been entered yet.
func New(doc *Document) *Story {
	return &Story{Document: doc}
}

// EnterInitialState moves the reader to the start state and resets the
// bookmark history to contain only it.
//
// It returns [ErrInvalidStartState] without changing the story when the
// document is missing, empty or lacks its start state.
func (s *Story) EnterInitialState() (Position, error) {
	if s.Document == nil || len(s.Document.States) == 0 || !s.Document.HasState(s.Document.Start) {
		return Position{}, ErrInvalidStartState
	}
	s.Position = Position{
		Current:   s.Document.Start,
		Bookmarks: []StateID{s.Document.Start},
	}
	return s.Position, nil
}

// CurrentState returns the state the reader is at.
func (s *Story) CurrentState() (State, bool) {
	return s.Document.State(s.Position.Current)
}

// CurrentText returns the narrative text of the current state.
func (s *Story) CurrentText() string {
	st, _ := s.CurrentState()
	return st.Text
}

// CurrentBookmarkLabel returns the bookmark label of the current state.
func (s *Story) CurrentBookmarkLabel() string {
	st, _ := s.CurrentState()
	return st.Bookmark
}

// CurrentImage returns the image URL of the current state, or "" if it has none.
func (s *Story) CurrentImage() string {
	st, _ := s.CurrentState()
	return st.ImageURL
}

// CurrentOptions returns the option labels of the current state in order.
// A terminal state usually returns an empty slice.
func (s *Story) CurrentOptions() []string {
	st, _ := s.CurrentState()
	return st.Options.Labels()
}

// CurrentEnding returns the ending of the current state.
func (s *Story) CurrentEnding() Ending {
	st, _ := s.CurrentState()
	return st.Ending
}

// IsEnded reports whether the current state is an ending.
func (s *Story) IsEnded() bool {
	return s.CurrentEnding() != EndingNone
}

// BookmarkLabels returns the labels of the reached bookmarks in visit order.
// A state without a label is listed by its id.
func (s *Story) BookmarkLabels() []string {
	labels := make([]string, len(s.Position.Bookmarks))
	for i, id := range s.Position.Bookmarks {
		st, ok := s.Document.State(id)
		if !ok || st.Bookmark == "" {
			labels[i] = string(id)
			continue
		}
		labels[i] = st.Bookmark
	}
	return labels
}

// BookmarksDisplay returns the bookmark labels as a 1-indexed list, one per line.
func (s *Story) BookmarksDisplay() string {
	labels := s.BookmarkLabels()
	lines := make([]string, len(labels))
	for i, label := range labels {
		lines[i] = fmt.Sprintf("%d. %s", i+1, label)
	}
	return strings.Join(lines, "\n")
}

// CheckPosition verifies that pos is a reachable position in doc: its
// current state and every bookmark name states of doc, bookmarks are unique,
// and the current state is among them.
func CheckPosition(doc *Document, pos Position) error {
	if pos.Current == "" {
		return &SchemaError{Field: "state", Reason: "is required"}
	}
	if !doc.HasState(pos.Current) {
		return &DanglingReferenceError{State: pos.Current}
	}

	seen := make(map[StateID]bool, len(pos.Bookmarks))
	for _, id := range pos.Bookmarks {
		if !doc.HasState(id) {
			return &DanglingReferenceError{State: id}
		}
		if seen[id] {
			return &SchemaError{Field: "bookmarks", Reason: fmt.Sprintf("duplicate bookmark %q", string(id))}
		}
		seen[id] = true
	}
	if !seen[pos.Current] {
		return &SchemaError{Field: "bookmarks", Reason: "must include the current state"}
	}
	return nil
}
