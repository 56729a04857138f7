package store

import (
	"context"
	"sync"
)

// Memory is an in-process [Store]. Its contents are lost on exit.
type Memory struct {
	locks channelLocks

	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemory returns an empty [Memory] store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Load returns a copy of the channel's blob.
func (m *Memory) Load(ctx context.Context, channel string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateChannel(channel); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.blobs[channel]
	if !ok {
		return nil, ErrNotFound
	}
	return copyBytes(blob), nil
}

// Update runs fn while holding the channel's lock.
func (m *Memory) Update(ctx context.Context, channel string, fn UpdateFunc) error {
	if err := ValidateChannel(channel); err != nil {
		return err
	}
	unlock := m.locks.lock(channel)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	current := copyBytes(m.blobs[channel])
	m.mu.RUnlock()

	next, changed, err := fn(current)
	if err != nil || !changed {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if next == nil {
		delete(m.blobs, channel)
		return nil
	}
	m.blobs[channel] = copyBytes(next)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
