package screen

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Makepad-fr/amped/internal/auth"
	"github.com/Makepad-fr/amped/internal/datastore"
	"github.com/Makepad-fr/amped/internal/logging"
	"github.com/Makepad-fr/amped/internal/model"
	"github.com/Makepad-fr/amped/internal/reconcile"
	"github.com/Makepad-fr/amped/internal/store/liststore"
)

var (
	// ErrInvalidForm means a draft with an empty name or description.
	ErrInvalidForm = errors.New("name and description are required")
	// ErrEnvSession means the session comes from the environment and
	// survives sign-out.
	ErrEnvSession = errors.New("session comes from " + auth.TokenEnv + "; unset it to sign out")
)

// FormState is the draft typed into the create form.
type FormState struct {
	Name        string
	Description string
}

// Validate rejects an empty name or description. Text is kept as typed.
func (f FormState) Validate() (model.Item, error) {
	if f.Name == "" || f.Description == "" {
		return model.Item{}, ErrInvalidForm
	}
	return model.Item{Name: f.Name, Description: f.Description}, nil
}

// Gate is the auth side of the screen.
type Gate interface {
	Require() (*auth.Session, error)
	SignIn(email, password string) (*auth.Session, error)
	Register(email, password string) error
	SignOut(ctx context.Context, cache auth.Cache) (bool, error)
}

// Controller holds the screen's behavior without any rendering.
type Controller struct {
	store *liststore.Store
	data  datastore.Service
	gate  Gate
	log   *logging.Logger
	rec   *reconcile.Reconciler

	mu     sync.Mutex
	sub    *datastore.Subscription
	cancel context.CancelFunc
	done   chan struct{}
}

func NewController(store *liststore.Store, data datastore.Service, gate Gate, log *logging.Logger) *Controller {
	if log == nil {
		log = logging.Discard()
	}
	return &Controller{
		store: store,
		data:  data,
		gate:  gate,
		log:   log,
		rec:   reconcile.New(store, log),
	}
}

// Start subscribes to the data store and reconciles snapshots into the list
// store on a single goroutine. Calling Start while running is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub != nil {
		return nil
	}
	sub, err := c.data.Observe(ctx)
	if err != nil {
		return fmt.Errorf("observe todos: %w", err)
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.rec.Run(runCtx, sub.C); err != nil && !errors.Is(err, context.Canceled) {
			c.log.Warn("reconciler stopped: %v", err)
		}
	}()
	c.sub, c.cancel, c.done = sub, cancel, done
	c.log.Debug("subscribed to todos")
	return nil
}

// Stop releases the subscription and waits for the reconciler to exit.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub == nil {
		return
	}
	c.sub.Unsubscribe()
	c.cancel()
	<-c.done
	c.sub, c.cancel, c.done = nil, nil, nil
	c.log.Debug("unsubscribed from todos")
}

// Submit validates the draft, shows it in the list right away and then
// persists it. A failed save is reported but the local item stays; the next
// snapshot brings the list back in line.
func (c *Controller) Submit(ctx context.Context, f FormState) error {
	item, err := f.Validate()
	if err != nil {
		return err
	}
	c.store.AddTodo(item)
	if _, err := c.data.Save(ctx, item); err != nil {
		c.log.Error("error creating todo: %v", err)
		return fmt.Errorf("save todo: %w", err)
	}
	return nil
}

// Delete asks the data store to remove id. The list only changes when the
// resulting snapshot arrives.
func (c *Controller) Delete(ctx context.Context, id string) error {
	item, err := c.data.Query(ctx, id)
	if err != nil {
		c.log.Error("error loading todo %s: %v", id, err)
		return fmt.Errorf("query todo: %w", err)
	}
	if item == nil {
		c.log.Info("todo %s already gone", id)
		return nil
	}
	if err := c.data.Delete(ctx, *item); err != nil && !errors.Is(err, datastore.ErrNotFound) {
		c.log.Error("error deleting todo %s: %v", id, err)
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

// SignOut ends the subscription, wipes the local cache and forgets the session.
// When the session outlives the call (a failed clear, or a session from the
// environment) the subscription is opened again so the list keeps syncing.
func (c *Controller) SignOut(ctx context.Context) error {
	c.Stop()
	removed, err := c.gate.SignOut(ctx, c.data)
	if err == nil && !removed {
		err = ErrEnvSession
	}
	if err != nil {
		c.log.Error("sign out: %v", err)
		if startErr := c.Start(ctx); startErr != nil {
			c.log.Error("resubscribe after failed sign out: %v", startErr)
		}
		return err
	}
	c.store.SetTodos(nil)
	c.log.Info("signed out")
	return nil
}
