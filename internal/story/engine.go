package story

import (
	"strconv"
	"strings"
)

// Choose follows one of the current state's options.
//
// A selection that parses as an integer, ignoring surrounding whitespace, is
// a 1-based ordinal into the current options. Anything else must equal an
// option label byte for byte. When the selection matches, the reader moves
// to the option's target, which is bookmarked on its first visit, and the
// new position is returned with true.
//
// An unmatched selection returns the unchanged position and false. Endings
// do not block choosing; they simply tend to have no options.
func (s *Story) Choose(selection string) (Position, bool) {
	st, ok := s.CurrentState()
	if !ok {
		return s.Position, false
	}

	opt, ok := resolveOption(st.Options, selection)
	if !ok || !s.Document.HasState(opt.Target) {
		return s.Position, false
	}

	s.Position.Current = opt.Target
	s.Position.addBookmark(opt.Target)
	return s.Position, true
}

// ResetToBookmark returns the reader to a state already bookmarked.
//
// A reference that parses as an integer is a 1-based ordinal into the
// bookmark list. Otherwise it is matched against the bookmarked state ids,
// then against their bookmark labels. States that were never reached are
// rejected even when they exist in the document.
//
// The bookmark history is kept whole: nothing is appended and later
// bookmarks are not discarded.
func (s *Story) ResetToBookmark(ref string) (Position, bool) {
	id, ok := s.resolveBookmark(ref)
	if !ok || !s.Document.HasState(id) {
		return s.Position, false
	}
	s.Position.Current = id
	return s.Position, true
}

func resolveOption(opts Options, selection string) (Option, bool) {
	if n, ok := parseOrdinal(selection); ok {
		if n < 1 || n > len(opts) {
			return Option{}, false
		}
		return opts[n-1], true
	}
	return opts.Find(selection)
}

func (s *Story) resolveBookmark(ref string) (StateID, bool) {
	bookmarks := s.Position.Bookmarks
	if n, ok := parseOrdinal(ref); ok {
		if n < 1 || n > len(bookmarks) {
			return "", false
		}
		return bookmarks[n-1], true
	}

	if s.Position.HasBookmark(StateID(ref)) {
		return StateID(ref), true
	}
	for _, id := range bookmarks {
		if st, ok := s.Document.State(id); ok && st.Bookmark == ref {
			return id, true
		}
	}
	return "", false
}

// parseOrdinal reports whether s, ignoring surrounding whitespace, is an
// integer. Numeric selections are always treated as ordinals, so they never
// fall through to label matching.
func parseOrdinal(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return v, true
}
