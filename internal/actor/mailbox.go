// Package actor provides the single-writer mailbox primitive shared by
// Session, Game and Room. Each of them owns exactly one Mailbox and processes
// it from a single goroutine, so component-local state needs no internal
// locking (spec.md §5). Transport has no Mailbox: its Send/SendRaw write to
// the connection on the caller's goroutine.
package actor

// Mailbox is a bounded, single-consumer inbox for messages of type T.
type Mailbox[T any] struct {
	ch chan T
}

// NewMailbox creates a mailbox with the given buffer size.
func NewMailbox[T any](size int) *Mailbox[T] {
	return &Mailbox[T]{ch: make(chan T, size)}
}

// Tell sends msg, blocking if the mailbox is full. Used on outbound paths
// and anywhere ordered, lossless delivery is required.
func (m *Mailbox[T]) Tell(msg T) {
	m.ch <- msg
}

// TrySend attempts to send msg without blocking. Returns false if the
// mailbox is full, in which case the caller is expected to log a warning
// and drop the message (spec.md §5 backpressure rule).
func (m *Mailbox[T]) TrySend(msg T) bool {
	select {
	case m.ch <- msg:
		return true
	default:
		return false
	}
}

// Receive exposes the channel for a `for msg := range mailbox.Receive()`
// consumer loop.
func (m *Mailbox[T]) Receive() <-chan T {
	return m.ch
}

// Close shuts the mailbox down. No further sends should occur afterward.
func (m *Mailbox[T]) Close() {
	close(m.ch)
}
