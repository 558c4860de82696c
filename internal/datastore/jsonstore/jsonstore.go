package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/Makepad-fr/amped/internal/datastore"
	"github.com/Makepad-fr/amped/internal/model"
)

// JSON-backed storage. Single file, human-readable, portable.
// A process-local mutex serialises writers; two processes sharing one file
// are not coordinated.

type Store struct {
	mu   sync.Mutex
	path string
	hub  *datastore.Hub
}

var _ datastore.Service = (*Store)(nil)

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	s := &Store{path: path, hub: datastore.NewHub()}
	// fail early on a corrupt file
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Observe(ctx context.Context) (*datastore.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return nil, err
	}
	return s.hub.Subscribe(datastore.Snapshot{Items: items, IsSynced: true})
}

func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) Save(ctx context.Context, item model.Item) (model.Item, error) {
	if err := ctx.Err(); err != nil {
		return model.Item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return model.Item{}, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	replaced := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, item)
	}
	if err := s.commit(items); err != nil {
		return model.Item{}, err
	}
	return item, nil
}

func (s *Store) Query(ctx context.Context, id string) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.ID == id {
			return &it, nil
		}
	}
	return nil, nil
}

func (s *Store) Delete(ctx context.Context, item model.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == item.ID {
			items = append(items[:i], items[i+1:]...)
			return s.commit(items)
		}
	}
	return datastore.ErrNotFound
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}
	s.hub.Publish(datastore.Snapshot{Items: []model.Item{}, IsSynced: true})
	return nil
}

func (s *Store) Close() error {
	s.hub.Close()
	return nil
}

func (s *Store) load() ([]model.Item, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Item{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	items := []model.Item{}
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return items, nil
}

func (s *Store) commit(items []model.Item) error {
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	s.hub.Publish(datastore.Snapshot{Items: items, IsSynced: true})
	return nil
}
