// Package reconcile keeps a list store in step with data-store snapshots.
//
// Every snapshot is compared with the store's current list. When they are
// equal (same items, same order) nothing is written; otherwise the snapshot
// replaces the list. There is no merge: the snapshot always wins.
package reconcile

import (
	"context"

	"github.com/Makepad-fr/amped/internal/datastore"
	"github.com/Makepad-fr/amped/internal/logging"
	"github.com/Makepad-fr/amped/internal/model"
)

// ListStore is the part of the list store the reconciler writes to.
type ListStore interface {
	Todos() []model.Item
	SetTodos(items []model.Item)
}

type Reconciler struct {
	store ListStore
	log   *logging.Logger
}

func New(store ListStore, log *logging.Logger) *Reconciler {
	if log == nil {
		log = logging.Discard()
	}
	return &Reconciler{store: store, log: log}
}

// Apply reconciles one snapshot and reports whether the store was replaced.
func (r *Reconciler) Apply(snap datastore.Snapshot) bool {
	prev := r.store.Todos()
	if model.Equal(prev, snap.Items) {
		r.log.Debug("no update to todos needed (synced=%t)", snap.IsSynced)
		return false
	}
	r.log.Info("updating todos: prev=%q new=%q synced=%t",
		model.Names(prev), model.Names(snap.Items), snap.IsSynced)
	r.store.SetTodos(snap.Items)
	return true
}

// Run applies snapshots in arrival order until snaps is closed or ctx ends.
func (r *Reconciler) Run(ctx context.Context, snaps <-chan datastore.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			r.Apply(snap)
		}
	}
}
