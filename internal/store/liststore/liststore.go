package liststore

import (
	"sync"

	"github.com/Makepad-fr/amped/internal/model"
)

// In-memory list state shared by the screen and the reconciler.
// Owned by whoever constructs it; there is no package-level instance.

type Store struct {
	mu       sync.Mutex
	todos    []model.Item
	watchers map[int]chan struct{}
	nextID   int
}

func New() *Store {
	return &Store{
		todos:    []model.Item{},
		watchers: make(map[int]chan struct{}),
	}
}

// Todos returns a copy of the current list.
func (s *Store) Todos() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Item, len(s.todos))
	copy(out, s.todos)
	return out
}

// AddTodo appends item to the end of the list. It does not dedupe and does
// not persist.
func (s *Store) AddTodo(item model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.todos = append(s.todos, item)
	s.notifyLocked()
}

// SetTodos replaces the whole list.
func (s *Store) SetTodos(items []model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.Item, len(items))
	copy(next, items)
	s.todos = next
	s.notifyLocked()
}

// Watch returns a channel that receives a signal after every mutation.
// Signals coalesce: a slow reader sees one pending signal, not one per change.
// The returned func unregisters the watcher and closes the channel.
func (s *Store) Watch() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	s.watchers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.watchers, id)
			close(ch)
		})
	}
}

func (s *Store) notifyLocked() {
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
