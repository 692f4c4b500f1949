// Package pending implements the correlation-id keyed pending-request
// tracker used by Room to match admin question responses and round timers
// against the request that scheduled them.
package pending

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the two outstanding-request shapes a Room tracks. Go has
// no zero-cost phantom-typed ticket the way the source's generic
// PendingTracker<A, K> does; Kind plays that role here (see DESIGN.md).
type Kind int

const (
	KindQuestion Kind = iota
	KindRound
)

// Meta describes one outstanding, timed request.
type Meta struct {
	Kind    Kind
	AdminID uuid.UUID // populated only when Kind == KindQuestion
	SentAt  time.Time
	Timeout time.Duration
}

// Tracker owns a set of outstanding tickets. It is not safe for concurrent
// use by design: it is meant to be owned and mutated exclusively by the
// single goroutine of the component that created it (Room).
type Tracker struct {
	entries map[uuid.UUID]Meta
	notify  func(id uuid.UUID)
}

// New creates a Tracker. notify is called (from a freshly spawned goroutine,
// never from the caller's goroutine) once a ticket's timeout elapses; it is
// expected to deliver a Timeout(id) message back into the owning component's
// mailbox via a non-blocking send.
func New(notify func(id uuid.UUID)) *Tracker {
	return &Tracker{
		entries: make(map[uuid.UUID]Meta),
		notify:  notify,
	}
}

// Add registers a new outstanding request under a freshly generated id and
// schedules its timeout.
func (t *Tracker) Add(kind Kind, adminID uuid.UUID, timeout time.Duration) uuid.UUID {
	return t.AddWithID(uuid.New(), kind, adminID, timeout)
}

// AddWithID registers a new outstanding request under a caller-chosen id.
// Used for Question tickets, whose id must equal the correlationId sent on
// the wire in the matching OUT_REQ_question so the admin's reply can be
// looked up by its echoed correlationId.
func (t *Tracker) AddWithID(id uuid.UUID, kind Kind, adminID uuid.UUID, timeout time.Duration) uuid.UUID {
	t.entries[id] = Meta{
		Kind:    kind,
		AdminID: adminID,
		SentAt:  time.Now(),
		Timeout: timeout,
	}
	go func() {
		time.Sleep(timeout)
		t.notify(id)
	}()
	return id
}

// Take removes and returns the entry for id, if still present. A late
// timeout delivery after Take (via Cancel or a prior Take) finds nothing and
// is a no-op by construction.
func (t *Tracker) Take(id uuid.UUID) (Meta, bool) {
	m, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	return m, ok
}

// Cancel removes id without inspecting it, returning whether it was present.
func (t *Tracker) Cancel(id uuid.UUID) bool {
	_, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	return ok
}
