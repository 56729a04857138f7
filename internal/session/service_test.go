package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"advpal/internal/store"
	"advpal/internal/story"
)

const caveJSON = `{
  "title": "The Cave",
  "author": "Ann",
  "start": "room",
  "states": {
    "room": {"bookmark": "Room", "text": "A damp room.", "options": {"left": "hall", "right": "pit", "wait": "room"}},
    "hall": {"bookmark": "Hall", "text": "A long hall.", "options": {"on": "exit", "back": "room"}},
    "exit": {"bookmark": "Exit", "text": "Daylight.", "options": {}, "ending": "good"},
    "pit":  {"bookmark": "Pit", "text": "You fall.", "options": {}, "ending": "bad", "imgsrc": "https://example.com/pit.png"}
  }
}`

const caveYAML = `
title: The Cave
author: Ann
start: room
states:
  room:
    bookmark: Room
    text: A damp room.
    options:
      right: pit
      left: pit
  pit:
    bookmark: Pit
    text: You fall.
    ending: bad
`

// failingStore fails every call with err.
type failingStore struct {
	err error
}

func (f *failingStore) Load(context.Context, string) ([]byte, error) {
	return nil, f.err
}

func (f *failingStore) Update(context.Context, string, store.UpdateFunc) error {
	return f.err
}

// countingStore records how many updates wrote a blob.
type countingStore struct {
	*store.Memory
	writes int
}

func (c *countingStore) Update(ctx context.Context, channel string, fn store.UpdateFunc) error {
	return c.Memory.Update(ctx, channel, func(current []byte) ([]byte, bool, error) {
		next, changed, err := fn(current)
		if err == nil && changed {
			c.writes++
		}
		return next, changed, err
	})
}

func newLoaded(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	svc := NewService(mem)
	_, err := svc.Load(context.Background(), "general", []byte(caveJSON), "cave.json")
	require.NoError(t, err)
	return svc, mem
}

func storedBlob(t *testing.T, mem *store.Memory, channel string) string {
	t.Helper()
	blob, err := mem.Load(context.Background(), channel)
	require.NoError(t, err)
	return string(blob)
}

func TestService_Load(t *testing.T) {
	svc := NewService(store.NewMemory())

	r, err := svc.Load(context.Background(), "general", []byte(caveJSON), "cave.json")

	require.NoError(t, err)
	assert.Equal(t, Rendering{
		Title:    "The Cave",
		Bookmark: "Room",
		Text:     "A damp room.",
		Options:  []string{"left", "right", "wait"},
	}, r)

	list, err := svc.ListBookmarks(context.Background(), "general")
	require.NoError(t, err)
	assert.Equal(t, []string{"Room"}, list.Labels)
}

func TestService_Load_YAML(t *testing.T) {
	svc := NewService(store.NewMemory())

	r, err := svc.Load(context.Background(), "general", []byte(caveYAML), "cave.yml")

	require.NoError(t, err)
	assert.Equal(t, []string{"right", "left"}, r.Options)
}

func TestService_Load_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{name: "empty upload", doc: "", wantErr: ErrNoDocument},
		{name: "not json", doc: "hello", wantErr: story.ErrSchema},
		{name: "missing title", doc: `{"author":"a","start":"s","states":{"s":{"bookmark":"S","text":"x","options":{}}}}`, wantErr: story.ErrSchema},
		{name: "dangling start", doc: `{"title":"t","author":"a","start":"nope","states":{"s":{"bookmark":"S","text":"x","options":{}}}}`, wantErr: story.ErrDanglingReference},
		{name: "dangling option", doc: `{"title":"t","author":"a","start":"s","states":{"s":{"bookmark":"S","text":"x","options":{"go":"gone"}}}}`, wantErr: story.ErrDanglingReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mem := newLoaded(t)
			before := storedBlob(t, mem, "general")

			_, err := svc.Load(context.Background(), "general", []byte(tt.doc), "story.json")

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, storedBlob(t, mem, "general"), "previous story is untouched")
		})
	}
}

func TestService_Load_ReservedPrefix(t *testing.T) {
	doc := `{"title":"t","author":"a","start":"s","states":{"s":{"bookmark":"S","text":"x","options":{"go":"quest_s"}},"quest_s":{"bookmark":"Q","text":"y","options":{}}}}`

	_, err := NewService(store.NewMemory(), WithCommandPrefix("quest")).
		Load(context.Background(), "general", []byte(doc), "")
	assert.ErrorIs(t, err, story.ErrDanglingReference)

	_, err = NewService(store.NewMemory()).
		Load(context.Background(), "general", []byte(doc), "")
	assert.NoError(t, err)
}

func TestService_Choose(t *testing.T) {
	svc, _ := newLoaded(t)
	ctx := context.Background()

	r, err := svc.Choose(ctx, "general", "left")
	require.NoError(t, err)
	assert.Equal(t, "Hall", r.Bookmark)
	assert.Equal(t, []string{"on", "back"}, r.Options)

	r, err = svc.Choose(ctx, "general", "1")
	require.NoError(t, err)
	assert.Equal(t, "Exit", r.Bookmark)
	assert.Equal(t, story.EndingGood, r.Ending)
	assert.Empty(t, r.Options)

	list, err := svc.ListBookmarks(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, []string{"Room", "Hall", "Exit"}, list.Labels)
}

func TestService_Choose_BadEndingWithImage(t *testing.T) {
	svc, _ := newLoaded(t)

	r, err := svc.Choose(context.Background(), "general", "right")

	require.NoError(t, err)
	assert.Equal(t, story.EndingBad, r.Ending)
	assert.Equal(t, "https://example.com/pit.png", r.ImageURL)
}

func TestService_Choose_Invalid(t *testing.T) {
	mem := &countingStore{Memory: store.NewMemory()}
	svc := NewService(mem)
	ctx := context.Background()
	_, err := svc.Load(ctx, "general", []byte(caveJSON), "")
	require.NoError(t, err)
	before, err := mem.Load(ctx, "general")
	require.NoError(t, err)

	for _, sel := range []string{"up", "0", "4", "-1", ""} {
		_, err := svc.Choose(ctx, "general", sel)

		var selErr *SelectionError
		require.ErrorAs(t, err, &selErr, sel)
		assert.ErrorIs(t, err, ErrInvalidOption)
		assert.Equal(t, sel, selErr.Selection)
		assert.Equal(t, []string{"left", "right", "wait"}, selErr.Options)
	}

	after, err := mem.Load(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, mem.writes, "only the load wrote")
}

func TestService_ResetBookmark(t *testing.T) {
	svc, _ := newLoaded(t)
	ctx := context.Background()
	_, err := svc.Choose(ctx, "general", "left")
	require.NoError(t, err)

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{name: "by label", ref: "Room", want: "Room"},
		{name: "by id", ref: "hall", want: "Hall"},
		{name: "by number", ref: "1", want: "Room"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := svc.ResetBookmark(ctx, "general", tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Bookmark)
		})
	}

	list, err := svc.ListBookmarks(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, []string{"Room", "Hall"}, list.Labels, "resets keep the history")
}

func TestService_ResetBookmark_Unreached(t *testing.T) {
	svc, mem := newLoaded(t)
	before := storedBlob(t, mem, "general")

	for _, ref := range []string{"Pit", "pit", "2", "nowhere"} {
		_, err := svc.ResetBookmark(context.Background(), "general", ref)
		assert.ErrorIs(t, err, ErrInvalidBookmark, ref)
	}

	assert.Equal(t, before, storedBlob(t, mem, "general"))
}

func TestService_NoActiveStory(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	_, err := svc.Choose(ctx, "general", "1")
	assert.ErrorIs(t, err, ErrNoActiveStory)

	_, err = svc.ResetBookmark(ctx, "general", "Room")
	assert.ErrorIs(t, err, ErrNoActiveStory)

	_, err = svc.ListBookmarks(ctx, "general")
	assert.ErrorIs(t, err, ErrNoActiveStory)

	_, err = svc.Current(ctx, "general")
	assert.ErrorIs(t, err, ErrNoActiveStory)

	err = svc.Unload(ctx, "general")
	assert.ErrorIs(t, err, ErrNoActiveStory)
}

func TestService_Unload(t *testing.T) {
	svc, mem := newLoaded(t)
	ctx := context.Background()

	require.NoError(t, svc.Unload(ctx, "general"))

	_, err := mem.Load(ctx, "general")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = svc.Current(ctx, "general")
	assert.ErrorIs(t, err, ErrNoActiveStory)
}

func TestService_Current(t *testing.T) {
	svc, mem := newLoaded(t)
	before := storedBlob(t, mem, "general")

	r, err := svc.Current(context.Background(), "general")

	require.NoError(t, err)
	assert.Equal(t, "Room", r.Bookmark)
	assert.Equal(t, before, storedBlob(t, mem, "general"))
}

func TestService_Message(t *testing.T) {
	svc, _ := newLoaded(t)
	ctx := context.Background()

	_, ok, err := svc.Message(ctx, "general", "hello there")
	require.NoError(t, err)
	assert.False(t, ok, "chatter is ignored")

	r, ok, err := svc.Message(ctx, "general", "left")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Hall", r.Bookmark)

	_, ok, err = svc.Message(ctx, "quiet", "left")
	require.NoError(t, err)
	assert.False(t, ok, "channels without a story ignore messages")
}

func TestService_ChannelsAreIndependent(t *testing.T) {
	svc, _ := newLoaded(t)
	ctx := context.Background()
	_, err := svc.Load(ctx, "other", []byte(caveJSON), "")
	require.NoError(t, err)

	_, err = svc.Choose(ctx, "general", "right")
	require.NoError(t, err)

	r, err := svc.Current(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, "Room", r.Bookmark)
}

func TestService_CorruptStoryIsCleared(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{name: "not json", blob: "{{{"},
		{name: "dangling current state", blob: `{"version":1,"title":"t","author":"a","start":"s","states":{"s":{"bookmark":"S","text":"x","options":{}}},"state":"gone","bookmarks":["s"]}`},
		{name: "unknown version", blob: `{"version":9,"title":"t","author":"a","start":"s","states":{"s":{"bookmark":"S","text":"x","options":{}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := store.NewMemory()
			ctx := context.Background()
			require.NoError(t, mem.Update(ctx, "general", func([]byte) ([]byte, bool, error) {
				return []byte(tt.blob), true, nil
			}))
			core, logs := observer.New(zap.WarnLevel)
			svc := NewService(mem, WithLogger(zap.New(core)))

			_, err := svc.Choose(ctx, "general", "1")

			assert.ErrorIs(t, err, ErrCorruptStory)
			_, err = mem.Load(ctx, "general")
			assert.ErrorIs(t, err, store.ErrNotFound, "corrupted blob is cleared")
			assert.Equal(t, 1, logs.FilterMessage("cleared corrupted story").Len())

			_, err = svc.Current(ctx, "general")
			assert.ErrorIs(t, err, ErrNoActiveStory)
		})
	}
}

func TestService_StoreErrorsPropagate(t *testing.T) {
	boom := errors.New("disk on fire")
	svc := NewService(&failingStore{err: boom})
	ctx := context.Background()

	_, err := svc.Load(ctx, "general", []byte(caveJSON), "")
	assert.ErrorIs(t, err, boom)

	_, err = svc.Choose(ctx, "general", "1")
	assert.ErrorIs(t, err, boom)

	_, _, err = svc.Message(ctx, "general", "left")
	assert.ErrorIs(t, err, boom)
}

func TestService_EndingDoesNotBlockReset(t *testing.T) {
	svc, _ := newLoaded(t)
	ctx := context.Background()
	_, err := svc.Choose(ctx, "general", "right")
	require.NoError(t, err)

	r, err := svc.ResetBookmark(ctx, "general", "Room")

	require.NoError(t, err)
	assert.Equal(t, story.EndingNone, r.Ending)
	assert.Equal(t, []string{"left", "right", "wait"}, r.Options)
}
