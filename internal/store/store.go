// Package store owns the task collection. Every mutation goes through a
// Store, which keeps the in-memory set authoritative, writes a full snapshot
// to the storage backend after each change and keeps reminders in step with
// the tasks they belong to.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tgienger/deadline/internal/models"
	"github.com/tgienger/deadline/internal/priority"
)

const (
	// TasksKey is the storage key holding the serialized collection
	TasksKey = "tasks"
	// CorruptKey receives an unreadable collection before it can be overwritten
	CorruptKey = "tasks.corrupt"

	DefaultReminderTitle = "Task Reminder"
	DefaultWriteTimeout  = 5 * time.Second
)

// maxIDAttempts bounds how often Create retries a colliding id
const maxIDAttempts = 10

var (
	// ErrClosed is returned by mutations after Close
	ErrClosed = errors.New("store closed")
	// ErrIDExhausted is returned by Create when every generated id is taken
	ErrIDExhausted = errors.New("no unused task id")
)

// Storage is a string key/value backend
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Notifier schedules and cancels local reminders keyed by task id
type Notifier interface {
	Schedule(id string, fireAt time.Time, title, body string) error
	Cancel(id string) error
}

// Store is the single owner of the task collection
type Store struct {
	storage       Storage
	notifier      Notifier
	log           *zap.SugaredLogger
	now           func() time.Time
	newID         func() string
	writeTimeout  time.Duration
	reminderTitle string
	guardUnread   bool

	persist *persister

	mu      sync.Mutex
	tasks   []models.Task
	subs    map[int]chan Event
	nextSub int
	closed  bool
	held    bool // writes are held back until a load succeeds
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the store's logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock sets the time source used for timestamps and reminder checks
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDFunc sets the generator for new task ids
func WithIDFunc(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// WithWriteTimeout bounds each storage write
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) { s.writeTimeout = d }
}

// WithReminderTitle sets the title of reminder notifications
func WithReminderTitle(title string) Option {
	return func(s *Store) { s.reminderTitle = title }
}

// WithGuardUnread holds back writes after Initialize fails to read the
// backend, so an empty in-memory collection never overwrites saved tasks it
// could not see. A later successful Initialize releases the hold.
func WithGuardUnread() Option {
	return func(s *Store) { s.guardUnread = true }
}

// New creates a store over storage. A nil notifier disables reminders.
// Call Initialize before use and Close when done.
func New(storage Storage, notifier Notifier, opts ...Option) *Store {
	s := &Store{
		storage:       storage,
		notifier:      notifier,
		log:           zap.NewNop().Sugar(),
		now:           time.Now,
		newID:         newTaskID,
		writeTimeout:  DefaultWriteTimeout,
		reminderTitle: DefaultReminderTitle,
		tasks:         []models.Task{},
		subs:          make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.persist = newPersister(storage, TasksKey, s.writeTimeout, s.log)
	return s
}

// newTaskID returns a time-ordered UUID, falling back to a random one
func newTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Initialize loads the persisted collection. A missing collection starts
// empty. An unreadable one also leaves the store empty and is reported as a
// *PersistenceError; the store stays usable either way.
func (s *Store) Initialize(ctx context.Context) error {
	raw, ok, err := s.storage.Get(ctx, TasksKey)
	if err != nil {
		perr := &PersistenceError{Op: "get", Key: TasksKey, Err: err}
		s.log.Errorw("failed to load tasks", "error", perr)
		s.replace(nil)
		if s.guardUnread {
			s.setHeld(true)
			s.log.Warnw("holding back writes until tasks can be loaded")
		}
		return perr
	}
	if !ok {
		s.log.Infow("no saved tasks, starting empty")
		s.replace(nil)
		s.setHeld(false)
		return nil
	}

	tasks, err := decodeTasks(raw)
	if err != nil {
		perr := &PersistenceError{Op: "decode", Key: TasksKey, Err: err}
		s.log.Errorw("saved tasks are unreadable, starting empty", "error", perr)
		if berr := s.storage.Set(ctx, CorruptKey, raw); berr != nil {
			s.log.Errorw("failed to back up unreadable tasks", "error", berr)
		}
		s.replace(nil)
		s.setHeld(false)
		return perr
	}

	s.replace(tasks)
	s.setHeld(false)
	s.log.Infow("tasks loaded", "count", len(tasks))
	return nil
}

func (s *Store) setHeld(held bool) {
	s.mu.Lock()
	s.held = held
	s.mu.Unlock()
}

// WritesHeld reports whether changes are being kept in memory only because
// the last load failed
func (s *Store) WritesHeld() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held
}

func (s *Store) replace(tasks []models.Task) {
	if tasks == nil {
		tasks = []models.Task{}
	}
	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
}

func decodeTasks(raw string) ([]models.Task, error) {
	var tasks []models.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			return nil, &ValidationError{Field: "id", Reason: "is empty"}
		}
		if seen[t.ID] {
			return nil, &ValidationError{Field: "id", Reason: "duplicate " + t.ID}
		}
		seen[t.ID] = true
		if err := validate(t); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func validate(t models.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if t.CustomPriority != "" && !t.CustomPriority.Assignable() {
		return &ValidationError{Field: "customPriority", Reason: "must be low, medium or high"}
	}
	return nil
}

// Create adds a new task and schedules its reminder when the due date is
// still ahead. A blank title is rejected with a *ValidationError.
func (s *Store) Create(in models.TaskInput) (models.Task, error) {
	task := models.Task{
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		DueDate:        in.DueDate,
		Reminder:       in.Reminder,
		CustomPriority: in.CustomPriority,
	}.Clone()
	if err := validate(task); err != nil {
		return models.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.Task{}, ErrClosed
	}

	id, err := s.unusedIDLocked()
	if err != nil {
		return models.Task{}, err
	}
	now := s.now()
	task.ID = id
	task.CreatedAt = now

	s.tasks = append(s.tasks, task)
	s.persistLocked()
	s.scheduleLocked(task, now)
	s.publishLocked(Event{Kind: EventCreated, TaskID: task.ID})

	return task.Clone(), nil
}

// Update replaces the stored task with the same id. The creation time is
// kept and the update time is set; the reminder is cancelled and re-armed
// from the new values. Unknown ids return ErrNotFound.
func (s *Store) Update(task models.Task) (models.Task, error) {
	task = task.Clone()
	task.Title = strings.TrimSpace(task.Title)
	task.Description = strings.TrimSpace(task.Description)
	if err := validate(task); err != nil {
		return models.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.Task{}, ErrClosed
	}

	i := s.indexLocked(task.ID)
	if i < 0 {
		return models.Task{}, ErrNotFound
	}

	now := s.now()
	task.CreatedAt = s.tasks[i].CreatedAt
	task.UpdatedAt = &now
	s.tasks[i] = task

	s.persistLocked()
	s.cancelLocked(task.ID)
	s.scheduleLocked(task, now)
	s.publishLocked(Event{Kind: EventUpdated, TaskID: task.ID})

	return task.Clone(), nil
}

// Delete removes a task and cancels its reminder. Deleting an unknown id
// does nothing.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	i := s.indexLocked(id)
	if i < 0 {
		return nil
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)

	s.persistLocked()
	s.cancelLocked(id)
	s.publishLocked(Event{Kind: EventDeleted, TaskID: id})
	return nil
}

// ToggleCompleted flips a task between incomplete and completed, stamping
// or clearing its completion time. Reminders are left alone.
func (s *Store) ToggleCompleted(id string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.Task{}, ErrClosed
	}

	i := s.indexLocked(id)
	if i < 0 {
		return models.Task{}, ErrNotFound
	}

	t := &s.tasks[i]
	t.Completed = !t.Completed
	if t.Completed {
		now := s.now()
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}

	s.persistLocked()
	s.publishLocked(Event{Kind: EventToggled, TaskID: id})
	return t.Clone(), nil
}

// GetByID looks up a task
func (s *Store) GetByID(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// List returns a copy of the collection in insertion order
func (s *Store) List() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// ListSorted returns the tasks matching filter in display order
func (s *Store) ListSorted(now time.Time, filter priority.Filter) []models.Task {
	return priority.Apply(s.List(), filter, now)
}

// RestoreReminders arms reminders for every loaded task that qualifies and
// returns how many were scheduled.
func (s *Store) RestoreReminders() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for _, t := range s.tasks {
		if s.scheduleLocked(t, now) {
			n++
		}
	}
	return n
}

// Flush waits for pending writes to reach storage
func (s *Store) Flush(ctx context.Context) error {
	return s.persist.flush(ctx)
}

// Close rejects further mutations, ends subscriptions and waits for the
// last snapshot to be written.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for id, ch := range s.subs {
			close(ch)
			delete(s.subs, id)
		}
	}
	s.mu.Unlock()

	return s.persist.close(ctx)
}

func (s *Store) unusedIDLocked() (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		if id := s.newID(); id != "" && s.indexLocked(id) < 0 {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked() {
	if s.held {
		s.log.Debugw("write held back", "count", len(s.tasks))
		return
	}
	data, err := json.Marshal(s.tasks)
	if err != nil {
		s.log.Errorw("failed to encode tasks", "error", &PersistenceError{Op: "encode", Key: TasksKey, Err: err})
		return
	}
	s.persist.enqueue(string(data))
}

// scheduleLocked arms the reminder for t when it wants one and its due date
// is still ahead of now.
func (s *Store) scheduleLocked(t models.Task, now time.Time) bool {
	if s.notifier == nil || !t.Reminder || t.DueDate == nil || !t.DueDate.After(now) {
		return false
	}
	if err := s.notifier.Schedule(t.ID, *t.DueDate, s.reminderTitle, t.Title); err != nil {
		s.log.Warnw("failed to schedule reminder", "error", &NotificationError{Op: "schedule", TaskID: t.ID, Err: err})
		return false
	}
	return true
}

func (s *Store) cancelLocked(id string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Cancel(id); err != nil {
		s.log.Warnw("failed to cancel reminder", "error", &NotificationError{Op: "cancel", TaskID: id, Err: err})
	}
}
