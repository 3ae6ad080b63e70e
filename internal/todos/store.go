// Package todos owns the in-memory todo list, its filtered views, and the
// write-behind persistence of that list to a kv.Store.
//
// A Store is owned by one session goroutine and is not safe for concurrent
// mutation. Mutations never return errors: empty titles and unknown ids are
// ignored, and storage failures are logged while the in-memory list stays
// authoritative.
package todos

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/kv"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/model"
)

// DefaultKey is the storage key the list lives under.
const DefaultKey = "todos-v1"

// Store is the authoritative todo list plus the active filter.
type Store struct {
	items  []model.Todo
	filter model.Filter
	newID  func() string
	log    *log.Logger
	w      *writer
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the diagnostic logger. The default discards.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithIDFunc replaces the id generator. Collisions with existing ids are
// still retried.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithFilter sets the initial filter.
func WithFilter(f model.Filter) Option {
	return func(s *Store) { s.filter = f }
}

// New loads the list stored under key in backend and starts the
// background writer. Close the store to flush pending writes.
func New(backend kv.Store, key string, opts ...Option) *Store {
	s := &Store{
		items:  []model.Todo{},
		filter: model.FilterAll,
		newID:  newID,
		log:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load(backend, key)
	s.w = newWriter(backend, key, s.log)
	return s
}

func (s *Store) load(backend kv.Store, key string) {
	raw, ok, err := backend.Get(context.Background(), key)
	if err != nil {
		s.log.Error("load todos", "key", key, "err", err)
		return
	}
	if !ok {
		return
	}
	items, dropped, err := Decode(raw)
	if err != nil {
		s.log.Error("load todos", "key", key, "err", err)
		return
	}
	for _, d := range dropped {
		s.log.Warn("dropped stored todo", "key", key, "index", d.Index, "reason", d.Reason)
	}
	s.items = items
	s.log.Debug("loaded todos", "key", key, "count", len(items))
}

// changed hands a snapshot of the list to the writer.
func (s *Store) changed() {
	s.w.enqueue(clone(s.items))
}

func (s *Store) index(id string) int {
	for i, t := range s.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Add appends a todo with the trimmed title. A blank title is ignored and
// reported with ok=false.
func (s *Store) Add(title string) (model.Todo, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Todo{}, false
	}
	t := model.Todo{ID: s.uniqueID(), Title: title}
	s.items = append(s.items, t)
	s.changed()
	return t, true
}

// Toggle flips the completed flag of the todo with id.
func (s *Store) Toggle(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.items[i].Completed = !s.items[i].Completed
	s.changed()
	return true
}

// UpdateTitle renames the todo with id. Blank titles are ignored.
func (s *Store) UpdateTitle(id, title string) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return false
	}
	i := s.index(id)
	if i < 0 {
		return false
	}
	if s.items[i].Title == title {
		return true
	}
	s.items[i].Title = title
	s.changed()
	return true
}

// Remove deletes the todo with id, keeping the order of the rest.
func (s *Store) Remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.changed()
	return true
}

// ClearCompleted drops every completed todo and returns how many went.
func (s *Store) ClearCompleted() int {
	kept := make([]model.Todo, 0, len(s.items))
	for _, t := range s.items {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	n := len(s.items) - len(kept)
	if n == 0 {
		return 0
	}
	s.items = kept
	s.changed()
	return n
}

// SetFilter stores f as given. Unknown values make Filtered return the
// full list.
func (s *Store) SetFilter(f model.Filter) { s.filter = f }

// Filter returns the current filter.
func (s *Store) Filter() model.Filter { return s.filter }

// Filtered returns the todos selected by the current filter, in store order.
func (s *Store) Filtered() []model.Todo {
	out := make([]model.Todo, 0, len(s.items))
	for _, t := range s.items {
		if s.filter.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Items returns a copy of the full list.
func (s *Store) Items() []model.Todo { return clone(s.items) }

// Get returns the todo with id.
func (s *Store) Get(id string) (model.Todo, bool) {
	if i := s.index(id); i >= 0 {
		return s.items[i], true
	}
	return model.Todo{}, false
}

// Len counts every todo regardless of the filter.
func (s *Store) Len() int { return len(s.items) }

// Remaining counts todos not yet completed.
func (s *Store) Remaining() int {
	n := 0
	for _, t := range s.items {
		if !t.Completed {
			n++
		}
	}
	return n
}

// CompletedCount counts completed todos.
func (s *Store) CompletedCount() int {
	return len(s.items) - s.Remaining()
}

// Flush blocks until every change made before the call has been written,
// or ctx is done.
func (s *Store) Flush(ctx context.Context) error {
	return s.w.flush(ctx)
}

// Close flushes pending writes and stops the writer. The backend is left
// open; its owner closes it. Later mutations are written synchronously.
func (s *Store) Close() error {
	s.w.close()
	return nil
}

func clone(items []model.Todo) []model.Todo {
	out := make([]model.Todo, len(items))
	copy(out, items)
	return out
}
