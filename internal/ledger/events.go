package ledger

import "tracker/internal/core"

type EventKind string

const (
	EventHydrated EventKind = "hydrated"
	EventAdded    EventKind = "added"
	EventDeleted  EventKind = "deleted"
)

// Event describes a state change. Transaction is the record that was added or
// deleted and is zero for EventHydrated.
type Event struct {
	Kind        EventKind
	Transaction core.Transaction
	Snapshot    Snapshot
}

// Listener is called after every state change, outside the ledger lock.
type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

// Subscribe registers fn and returns a function that removes it.
func (l *Ledger) Subscribe(fn Listener) (unsubscribe func()) {
	l.subsMu.Lock()
	defer l.subsMu.Unlock()
	l.nextSub++
	id := l.nextSub
	l.subs = append(l.subs, subscription{id: id, fn: fn})
	return func() {
		l.subsMu.Lock()
		defer l.subsMu.Unlock()
		for i, s := range l.subs {
			if s.id == id {
				l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

func (l *Ledger) notify(ev Event) {
	l.subsMu.Lock()
	subs := append([]subscription(nil), l.subs...)
	l.subsMu.Unlock()
	for _, s := range subs {
		s.fn(ev)
	}
}
