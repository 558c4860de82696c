package screen

import (
	"context"
	"fmt"
	"sync"

	"github.com/Makepad-fr/amped/internal/datastore"
	"github.com/Makepad-fr/amped/internal/model"
)

// memStore is an in-memory datastore.Service with failure injection.
type memStore struct {
	mu    sync.Mutex
	items []model.Item
	hub   *datastore.Hub
	next  int

	saveErr  error
	queryErr error
	clearErr error

	saves, queries, deletes, clears int
}

var _ datastore.Service = (*memStore)(nil)

func newMemStore(items ...model.Item) *memStore {
	return &memStore{items: items, hub: datastore.NewHub()}
}

func (s *memStore) snapshotLocked() datastore.Snapshot {
	items := make([]model.Item, len(s.items))
	copy(items, s.items)
	return datastore.Snapshot{Items: items, IsSynced: true}
}

func (s *memStore) Observe(context.Context) (*datastore.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hub.Subscribe(s.snapshotLocked())
}

func (s *memStore) List(context.Context) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked().Items, nil
}

func (s *memStore) Save(_ context.Context, item model.Item) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return model.Item{}, s.saveErr
	}
	if item.ID == "" {
		s.next++
		item.ID = fmt.Sprintf("id-%d", s.next)
	}
	s.items = append(s.items, item)
	s.hub.Publish(s.snapshotLocked())
	return item, nil
}

func (s *memStore) Query(_ context.Context, id string) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	for _, it := range s.items {
		if it.ID == id {
			return &it, nil
		}
	}
	return nil, nil
}

func (s *memStore) Delete(_ context.Context, item model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	for i, it := range s.items {
		if it.ID == item.ID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.hub.Publish(s.snapshotLocked())
			return nil
		}
	}
	return datastore.ErrNotFound
}

func (s *memStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.items = nil
	s.hub.Publish(s.snapshotLocked())
	return nil
}

func (s *memStore) Close() error {
	s.hub.Close()
	return nil
}

func (s *memStore) counts() (saves, queries, deletes, clears int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves, s.queries, s.deletes, s.clears
}
