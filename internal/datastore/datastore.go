package datastore

import (
	"context"
	"errors"

	"github.com/Makepad-fr/amped/internal/model"
)

var (
	ErrNotFound = errors.New("todo not found")
	ErrClosed   = errors.New("datastore closed")
)

// Snapshot is the full list as of one point in time.
type Snapshot struct {
	Items    []model.Item
	IsSynced bool
}

// Service is the persistence side of the screen. Every committed mutation
// produces a new snapshot for all live subscriptions.
type Service interface {
	// Observe emits the current snapshot right away and then one after
	// every mutation until the subscription is torn down.
	Observe(ctx context.Context) (*Subscription, error)
	List(ctx context.Context) ([]model.Item, error)
	// Save inserts or updates item. An empty ID gets a fresh one.
	Save(ctx context.Context, item model.Item) (model.Item, error)
	// Query returns nil, nil when id is unknown.
	Query(ctx context.Context, id string) (*model.Item, error)
	Delete(ctx context.Context, item model.Item) error
	// Clear wipes the local cache.
	Clear(ctx context.Context) error
	Close() error
}
