package store

// EventKind names the mutation that produced an Event
type EventKind int

const (
	EventCreated EventKind = iota
	EventUpdated
	EventDeleted
	EventToggled
)

func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventUpdated:
		return "updated"
	case EventDeleted:
		return "deleted"
	case EventToggled:
		return "toggled"
	}
	return "unknown"
}

// Event is published to subscribers after every successful mutation
type Event struct {
	Kind   EventKind
	TaskID string
}

const subscriberBuffer = 16

// Subscribe returns a channel of mutation events and a function that ends
// the subscription. Events are dropped for a subscriber whose buffer is
// full. The channel is closed on unsubscribe or when the store closes.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
	}
}

func (s *Store) publishLocked(e Event) {
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
			s.log.Debugw("subscriber lagging, event dropped", "kind", e.Kind.String(), "id", e.TaskID)
		}
	}
}
