// Package notify delivers local reminders. A Scheduler keeps one timer per
// task id and publishes each reminder on a channel when it comes due.
package notify

import (
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrClosed is returned when scheduling on a closed Scheduler
var ErrClosed = errors.New("scheduler closed")

// Reminder is a scheduled notification
type Reminder struct {
	ID     string
	FireAt time.Time
	Title  string
	Body   string
}

type entry struct {
	reminder Reminder
	timer    *time.Timer
}

// Scheduler fires reminders at their scheduled time. It is safe for
// concurrent use.
type Scheduler struct {
	log *zap.SugaredLogger
	now func() time.Time

	mu      sync.Mutex
	pending map[string]*entry
	fired   chan Reminder
	closed  bool
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithLogger sets the scheduler's logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithClock sets the time source used to compute timer delays
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler creates a scheduler whose fired reminders are buffered up to
// buffer deep. When nobody drains the channel, extra reminders are dropped
// and logged.
func NewScheduler(buffer int, opts ...Option) *Scheduler {
	s := &Scheduler{
		log:     zap.NewNop().Sugar(),
		now:     time.Now,
		pending: make(map[string]*entry),
		fired:   make(chan Reminder, buffer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fired returns the channel on which due reminders are delivered. It is
// closed by Close.
func (s *Scheduler) Fired() <-chan Reminder {
	return s.fired
}

// Schedule arms a reminder for id, replacing any earlier one. A fire time
// that has already passed fires immediately.
func (s *Scheduler) Schedule(id string, fireAt time.Time, title, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.cancelLocked(id)

	e := &entry{reminder: Reminder{ID: id, FireAt: fireAt, Title: title, Body: body}}
	delay := fireAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	e.timer = time.AfterFunc(delay, func() { s.fire(e) })
	s.pending[id] = e

	s.log.Debugw("reminder scheduled", "id", id, "fire_at", fireAt)
	return nil
}

// Cancel disarms the reminder for id; cancelling an unknown id is a no-op
func (s *Scheduler) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelLocked(id) {
		s.log.Debugw("reminder cancelled", "id", id)
	}
	return nil
}

// Pending returns the armed reminders ordered by fire time
func (s *Scheduler) Pending() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Reminder, 0, len(s.pending))
	for _, e := range s.pending {
		out = append(out, e.reminder)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out
}

// Close stops every timer and closes the Fired channel
func (s *Scheduler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for id := range s.pending {
		s.cancelLocked(id)
	}
	close(s.fired)
	return nil
}

func (s *Scheduler) cancelLocked(id string) bool {
	e, ok := s.pending[id]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.pending, id)
	return true
}

func (s *Scheduler) fire(e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The entry may have been replaced or cancelled after its timer started.
	if s.closed || s.pending[e.reminder.ID] != e {
		return
	}
	delete(s.pending, e.reminder.ID)

	select {
	case s.fired <- e.reminder:
		s.log.Infow("reminder fired", "id", e.reminder.ID, "title", e.reminder.Body)
	default:
		s.log.Warnw("reminder dropped, no listener", "id", e.reminder.ID)
	}
}
