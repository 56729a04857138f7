// Package session runs story commands against per-channel storage.
//
// [Service] is the command surface: every handler loads the channel's story,
// applies one transition and persists the result only when the transition
// succeeded. Handlers return a [Rendering] for the caller to display, or one
// of the package's sentinel errors as the rejection reason.
//
// Key types:
//   - [Service] executes Load, Choose, ResetBookmark and the read-only commands
//   - [Store] is the consumer-side storage interface, see package store
//   - [Rendering] and [BookmarkList] describe what to show the reader
//   - [SelectionError] carries the rejected selection and the valid options
//
// Channels are independent: each has at most one story, and two commands on
// the same channel are serialised by the store's [store.Store.Update].
//
// Typical use:
//
//	svc := session.NewService(store.NewMemory(), session.WithLogger(logger))
//	r, err := svc.Load(ctx, "general", data, "cave.json")
//	if err != nil {
//	    return err // a story.SchemaError, story.DanglingReferenceError, ...
//	}
//	r, err = svc.Choose(ctx, "general", "1")
package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"advpal/internal/codec"
	"advpal/internal/store"
	"advpal/internal/story"
)

// Store is the storage the service needs.
//
// Load returns the channel's blob or [store.ErrNotFound]. Update runs fn
// with exclusive access to the channel's blob and writes what fn returns.
// [store.Memory], [store.File] and the redis and sqlite backends all
// satisfy it.
type Store interface {
	Load(ctx context.Context, channel string) ([]byte, error)
	Update(ctx context.Context, channel string, fn store.UpdateFunc) error
}

// Operation inspects or advances a decoded story. It reports whether the
// story changed; the story is written back only when changed is true and err
// is nil.
type Operation func(s *story.Story) (changed bool, err error)

// Rendering is what a state looks like to the reader.
//
// It is a snapshot: nothing in it refers back to the stored story, so a
// caller may keep or modify it freely. See the render package for how it
// is drawn.
type Rendering struct {
	// Title is the story's title.
	Title string

	// Bookmark is the current state's bookmark label.
	Bookmark string

	// Text is the narrative text of the current state.
	Text string

	// ImageURL is empty when the state has no image.
	ImageURL string

	// Options lists the option labels in ordinal order; Options[0] is
	// selected by "1".
	Options []string

	// Ending is [story.EndingNone] unless the state is terminal.
	Ending story.Ending
}

// BookmarkList holds the labels of the reached bookmarks in visit order.
type BookmarkList struct {
	Labels []string
}

// Service executes story commands. Create one with [NewService].
//
// A Service holds no per-channel state of its own; everything lives in the
// [Store], so one Service may be shared by any number of goroutines and
// processes using the same backend.
type Service struct {
	store  Store
	prefix string
	logger *zap.Logger
}

// Option configures a [Service].
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCommandPrefix sets the reserved command word. Uploaded documents
// whose option targets contain it anywhere are rejected with a
// [story.DanglingReferenceError]. The default is [story.DefaultCommandPrefix].
func WithCommandPrefix(prefix string) Option {
	return func(s *Service) {
		s.prefix = prefix
	}
}

// NewService returns a service persisting stories in st.
//
// Without options the service discards log output and reserves
// [story.DefaultCommandPrefix]:
//
//	svc := NewService(st,
//	    WithLogger(logger),
//	    WithCommandPrefix(cfg.CommandPrefix),
//	)
func NewService(st Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		prefix: story.DefaultCommandPrefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) validateOptions() []story.ValidateOption {
	return []story.ValidateOption{story.WithCommandPrefix(s.prefix)}
}

// WithStory runs op on the channel's decoded story inside the store's
// exclusive scope for the channel.
//
// It returns [ErrNoActiveStory] when nothing is stored. A stored blob that
// fails to decode is deleted and reported as [ErrCorruptStory] wrapping the
// decode error. op may run more than once when the store retries on conflict.
func (s *Service) WithStory(ctx context.Context, channel string, op Operation) error {
	var corrupt error
	err := s.store.Update(ctx, channel, func(current []byte) ([]byte, bool, error) {
		corrupt = nil
		if current == nil {
			return nil, false, ErrNoActiveStory
		}

		st, err := codec.Decode(current, s.validateOptions()...)
		if err != nil {
			corrupt = err
			return nil, true, nil
		}

		changed, err := op(st)
		if err != nil || !changed {
			return nil, false, err
		}
		next, err := codec.Encode(st)
		if err != nil {
			return nil, false, err
		}
		return next, true, nil
	})
	if err != nil {
		return err
	}
	if corrupt != nil {
		s.logger.Warn("cleared corrupted story",
			zap.String("channel", channel),
			zap.Error(corrupt),
		)
		return fmt.Errorf("%w: %w", ErrCorruptStory, corrupt)
	}
	return nil
}

// Load validates doc, enters its start state and replaces the channel's
// story with it. name is the upload's file name and selects YAML parsing
// for .yaml and .yml names.
//
// An invalid document leaves the previously stored story untouched.
func (s *Service) Load(ctx context.Context, channel string, doc []byte, name string) (Rendering, error) {
	if len(doc) == 0 {
		return Rendering{}, ErrNoDocument
	}

	parsed, err := codec.ParseUpload(doc, name, s.validateOptions()...)
	if err != nil {
		return Rendering{}, err
	}
	st := story.New(parsed)
	if _, err := st.EnterInitialState(); err != nil {
		return Rendering{}, err
	}
	blob, err := codec.Encode(st)
	if err != nil {
		return Rendering{}, err
	}

	err = s.store.Update(ctx, channel, func([]byte) ([]byte, bool, error) {
		return blob, true, nil
	})
	if err != nil {
		return Rendering{}, err
	}

	s.logger.Info("story loaded",
		zap.String("channel", channel),
		zap.String("title", parsed.Title),
		zap.Int("states", len(parsed.States)),
	)
	return render(st), nil
}

// Choose follows the option named by selection, either its 1-based number
// or its exact label. An unmatched selection returns a [SelectionError].
func (s *Service) Choose(ctx context.Context, channel, selection string) (Rendering, error) {
	var out Rendering
	err := s.WithStory(ctx, channel, func(st *story.Story) (bool, error) {
		if _, ok := st.Choose(selection); !ok {
			return false, &SelectionError{Selection: selection, Options: st.CurrentOptions()}
		}
		out = render(st)
		return true, nil
	})
	if err != nil {
		return Rendering{}, err
	}
	s.logDebug("option chosen", channel, out)
	return out, nil
}

// ResetBookmark returns the reader to a reached bookmark, named by its
// 1-based number in the bookmark list, its state id or its label.
func (s *Service) ResetBookmark(ctx context.Context, channel, ref string) (Rendering, error) {
	var out Rendering
	err := s.WithStory(ctx, channel, func(st *story.Story) (bool, error) {
		if _, ok := st.ResetToBookmark(ref); !ok {
			return false, fmt.Errorf("%w: %q", ErrInvalidBookmark, ref)
		}
		out = render(st)
		return true, nil
	})
	if err != nil {
		return Rendering{}, err
	}
	s.logDebug("bookmark reset", channel, out)
	return out, nil
}

// ListBookmarks returns the bookmarks reached so far.
func (s *Service) ListBookmarks(ctx context.Context, channel string) (BookmarkList, error) {
	var out BookmarkList
	err := s.WithStory(ctx, channel, func(st *story.Story) (bool, error) {
		out = BookmarkList{Labels: st.BookmarkLabels()}
		return false, nil
	})
	return out, err
}

// Current renders the state the reader is at without changing anything.
func (s *Service) Current(ctx context.Context, channel string) (Rendering, error) {
	var out Rendering
	err := s.WithStory(ctx, channel, func(st *story.Story) (bool, error) {
		out = render(st)
		return false, nil
	})
	return out, err
}

// Unload removes the channel's story.
func (s *Service) Unload(ctx context.Context, channel string) error {
	err := s.store.Update(ctx, channel, func(current []byte) ([]byte, bool, error) {
		if current == nil {
			return nil, false, ErrNoActiveStory
		}
		return nil, true, nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("story unloaded", zap.String("channel", channel))
	return nil
}

// Message handles a free-text line. When a story is active and the text
// selects one of its options it behaves like [Service.Choose] and reports
// true. Otherwise it reports false and no error, so ordinary chatter is
// ignored. Storage failures and corrupted stories are still returned.
func (s *Service) Message(ctx context.Context, channel, text string) (Rendering, bool, error) {
	out, err := s.Choose(ctx, channel, text)
	switch {
	case err == nil:
		return out, true, nil
	case errors.Is(err, ErrNoActiveStory), errors.Is(err, ErrInvalidOption):
		return Rendering{}, false, nil
	default:
		return Rendering{}, false, err
	}
}

func (s *Service) logDebug(msg, channel string, r Rendering) {
	s.logger.Debug(msg,
		zap.String("channel", channel),
		zap.String("bookmark", r.Bookmark),
		zap.String("ending", string(r.Ending)),
	)
}

func render(st *story.Story) Rendering {
	return Rendering{
		Title:    st.Document.Title,
		Bookmark: st.CurrentBookmarkLabel(),
		Text:     st.CurrentText(),
		ImageURL: st.CurrentImage(),
		Options:  st.CurrentOptions(),
		Ending:   st.CurrentEnding(),
	}
}
