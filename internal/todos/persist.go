package todos

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/kv"
	"github.com/idilsaglam/tada/internal/model"
)

// ErrPersist wraps every failure to write the list to its backend.
var ErrPersist = errors.New("persist todos")

const writeTimeout = 10 * time.Second

// writer owns all writes to the backend. Each change is a full snapshot,
// so a snapshot still waiting is replaced by the next one: writes happen
// in mutation order and the last one always carries the latest list.
type writer struct {
	backend kv.Store
	key     string
	log     *log.Logger

	mu      sync.Mutex
	pending []model.Todo
	dirty   bool
	closed  bool

	kick    chan struct{}
	flushes chan chan struct{}
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newWriter(backend kv.Store, key string, l *log.Logger) *writer {
	w := &writer{
		backend: backend,
		key:     key,
		log:     l,
		kick:    make(chan struct{}, 1),
		flushes: make(chan chan struct{}),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.kick:
			w.drain()
		case ack := <-w.flushes:
			w.drain()
			close(ack)
		case <-w.quit:
			w.drain()
			return
		}
	}
}

// enqueue never blocks on the backend.
func (w *writer) enqueue(items []model.Todo) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.write(items)
		return
	}
	w.pending, w.dirty = items, true
	w.mu.Unlock()

	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *writer) drain() {
	w.mu.Lock()
	items, dirty := w.pending, w.dirty
	w.pending, w.dirty = nil, false
	w.mu.Unlock()
	if dirty {
		w.write(items)
	}
}

func (w *writer) write(items []model.Todo) {
	if err := w.save(items); err != nil {
		w.log.Error("save todos", "key", w.key, "count", len(items), "err", err)
		return
	}
	w.log.Debug("saved todos", "key", w.key, "count", len(items))
}

func (w *writer) save(items []model.Todo) error {
	payload, err := Encode(items)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := w.backend.Set(ctx, w.key, payload); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (w *writer) flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case w.flushes <- ack:
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *writer) close() {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.quit)
	})
	<-w.done
}
