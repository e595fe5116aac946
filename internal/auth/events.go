package auth

import "sync"

// EventKind identifies an auth state change.
type EventKind string

const (
	EventSignedIn  EventKind = "SIGNED_IN"
	EventSignedOut EventKind = "SIGNED_OUT"
)

// Event is a discrete auth-state-change message. Sign-out events carry the
// token of the session that ended so listeners can match it against their
// own; sign-in announcements never carry a token, since a session belongs
// only to the client it was issued to.
type Event struct {
	Kind  EventKind
	User  *User
	Token string
}

// Subscription is a cancellable stream of auth events.
type Subscription struct {
	C      <-chan Event
	ch     chan Event
	cancel func()
	once   sync.Once
}

// Cancel detaches the subscription from the broadcaster and closes its channel.
// Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Broadcaster fans auth events out to subscribers. Delivery is best-effort:
// a subscriber that is not draining its channel misses events rather than
// blocking the publisher.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewBroadcaster constructs an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new subscriber.
func (b *Broadcaster) Subscribe() *Subscription {
	ch := make(chan Event, 8)
	sub := &Subscription{C: ch, ch: ch}
	sub.cancel = func() {
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
		close(ch)
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish delivers an event to every current subscriber.
func (b *Broadcaster) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		select {
		case sub.ch <- event:
		default:
		}
	}
}
