// Package store persists one story blob per channel.
//
// A channel is the unit of isolation: each holds at most one active story,
// and all changes to a channel go through [Store.Update], which runs the
// caller's function inside an exclusive read-modify-write scope for that
// channel. Different channels never block each other.
//
// Backends:
//   - [Memory] keeps blobs in process memory
//   - [File] keeps one JSON file per channel in a directory
//   - the redis subpackage uses WATCH/MULTI transactions
//   - the sqlite subpackage uses immediate SQLite transactions
package store

import (
	"context"
	"errors"
	"regexp"
	"sync"
)

// Sentinel errors for channel storage.
var (
	// ErrNotFound is returned by Load when the channel holds no story.
	ErrNotFound = errors.New("no story stored for channel")

	// ErrInvalidChannel is returned for channel ids that cannot be used as keys.
	ErrInvalidChannel = errors.New("invalid channel id")
)

// UpdateFunc computes a channel's next blob from its current one.
//
// current is nil when the channel holds nothing. Return changed=false to
// leave the channel untouched; return next=nil with changed=true to delete
// the channel's blob. A non-nil error aborts the update without writing.
type UpdateFunc func(current []byte) (next []byte, changed bool, err error)

// Store is a per-channel blob store with atomic read-modify-write.
type Store interface {
	// Load returns the channel's blob or [ErrNotFound].
	Load(ctx context.Context, channel string) ([]byte, error)

	// Update runs fn in the channel's exclusive scope and writes its result
	// when fn reports a change. fn may be called more than once by backends
	// that retry on conflict, so it must not have side effects beyond its
	// return values.
	Update(ctx context.Context, channel string, fn UpdateFunc) error

	// Close releases the backend's resources.
	Close() error
}

var channelPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateChannel checks that channel is usable as a storage key in every
// backend: letters, digits, '.', '_' and '-', starting with a letter or digit.
func ValidateChannel(channel string) error {
	if !channelPattern.MatchString(channel) {
		return ErrInvalidChannel
	}
	return nil
}

// channelLocks hands out one mutex per channel.
type channelLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *channelLocks) lock(channel string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[channel]
	if !ok {
		m = &sync.Mutex{}
		l.locks[channel] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
