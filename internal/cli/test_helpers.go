package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"advpal/internal/config"
	"advpal/internal/fetch"
	"advpal/internal/render"
	"advpal/internal/session"
)

// MockSessions records calls and returns canned results.
type MockSessions struct {
	// Calls records each call as "Method arg", in order.
	Calls []string

	Rendering session.Rendering
	Bookmarks session.BookmarkList
	// Matched is the Message result.
	Matched bool
	// Err is returned by every method when set.
	Err error
}

func (m *MockSessions) record(call ...string) {
	m.Calls = append(m.Calls, strings.TrimSpace(strings.Join(call, " ")))
}

func (m *MockSessions) Load(ctx context.Context, channel string, doc []byte, name string) (session.Rendering, error) {
	m.record("Load", channel, name)
	return m.Rendering, m.Err
}

func (m *MockSessions) Choose(ctx context.Context, channel, selection string) (session.Rendering, error) {
	m.record("Choose", channel, selection)
	return m.Rendering, m.Err
}

func (m *MockSessions) ResetBookmark(ctx context.Context, channel, ref string) (session.Rendering, error) {
	m.record("ResetBookmark", channel, ref)
	return m.Rendering, m.Err
}

func (m *MockSessions) ListBookmarks(ctx context.Context, channel string) (session.BookmarkList, error) {
	m.record("ListBookmarks", channel)
	return m.Bookmarks, m.Err
}

func (m *MockSessions) Current(ctx context.Context, channel string) (session.Rendering, error) {
	m.record("Current", channel)
	return m.Rendering, m.Err
}

func (m *MockSessions) Unload(ctx context.Context, channel string) error {
	m.record("Unload", channel)
	return m.Err
}

func (m *MockSessions) Message(ctx context.Context, channel, text string) (session.Rendering, bool, error) {
	m.record("Message", channel, text)
	return m.Rendering, m.Matched, m.Err
}

// MockFetcher serves documents from memory.
type MockFetcher struct {
	Docs    map[string]fetch.Document
	Err     error
	Fetched []string
}

func (m *MockFetcher) Fetch(ctx context.Context, src string) (fetch.Document, error) {
	m.Fetched = append(m.Fetched, src)
	if m.Err != nil {
		return fetch.Document{}, m.Err
	}
	return m.Docs[src], nil
}

// newTestApp returns an App on channel "test" whose output goes to the
// returned buffer.
func newTestApp(sessions *MockSessions, fetcher *MockFetcher) (*App, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := config.DefaultConfig()
	return &App{
		Config:   cfg,
		Sessions: sessions,
		Fetcher:  fetcher,
		Printer:  render.New(buf, render.Config{Width: 200, Prefix: cfg.CommandPrefix}),
		Logger:   zap.NewNop(),
		Channel:  "test",
	}, buf
}

// writeStoryFile writes a story document into dir and returns its path.
func writeStoryFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write story file: %v", err)
	}
	return path
}
