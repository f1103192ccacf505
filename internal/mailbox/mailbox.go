package mailbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultCapacity is the capacity used when a non-positive capacity is requested
const DefaultCapacity = 100

var (
	// ErrFull is returned by TrySend when the mailbox has no free slot
	ErrFull = errors.New("mailbox full")
	// ErrClosed is returned when sending to or receiving from a closed mailbox
	ErrClosed = errors.New("mailbox closed")
)

// Sender is the sending end of a mailbox
type Sender[T any] interface {
	TrySend(v T) error
}

// Mailbox is a bounded FIFO queue with a single consumer.
// Sends never block: when the buffer is full the message is rejected.
type Mailbox[T any] struct {
	name string
	ch   chan T

	mu     sync.RWMutex
	closed bool
}

// New creates a mailbox with the given capacity
func New[T any](name string, capacity int) *Mailbox[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Mailbox[T]{
		name: name,
		ch:   make(chan T, capacity),
	}
}

// Name returns the mailbox name used in error messages
func (m *Mailbox[T]) Name() string {
	return m.name
}

// TrySend enqueues v without blocking
func (m *Mailbox[T]) TrySend(v T) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("%s: %w", m.name, ErrClosed)
	}

	select {
	case m.ch <- v:
		return nil
	default:
		return fmt.Errorf("%s: %w", m.name, ErrFull)
	}
}

// Receive blocks until a message arrives, the mailbox is closed or ctx is done
func (m *Mailbox[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	select {
	case v, ok := <-m.ch:
		if !ok {
			return zero, fmt.Errorf("%s: %w", m.name, ErrClosed)
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// ReceiveTimeout waits up to d for the next message. If nothing arrives in time
// it returns fallback and a nil error.
func (m *Mailbox[T]) ReceiveTimeout(ctx context.Context, d time.Duration, fallback T) (T, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	var zero T
	select {
	case v, ok := <-m.ch:
		if !ok {
			return zero, fmt.Errorf("%s: %w", m.name, ErrClosed)
		}
		return v, nil
	case <-timer.C:
		return fallback, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// C exposes the receive side for use in select statements
func (m *Mailbox[T]) C() <-chan T {
	return m.ch
}

// Len returns the number of queued messages
func (m *Mailbox[T]) Len() int {
	return len(m.ch)
}

// Cap returns the mailbox capacity
func (m *Mailbox[T]) Cap() int {
	return cap(m.ch)
}

// Close closes the mailbox. Queued messages can still be received.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	close(m.ch)
}
