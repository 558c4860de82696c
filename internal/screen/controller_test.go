package screen

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/amped/internal/auth"
	"github.com/Makepad-fr/amped/internal/model"
	"github.com/Makepad-fr/amped/internal/store/liststore"
)

func newSignedInManager(t *testing.T) *auth.Manager {
	t.Helper()
	t.Setenv(auth.TokenEnv, "")
	mgr := auth.NewManager(filepath.Join(t.TempDir(), "auth"), 0)
	require.NoError(t, mgr.Register("ada@example.com", "correct horse"))
	_, err := mgr.SignIn("ada@example.com", "correct horse")
	require.NoError(t, err)
	return mgr
}

func newTestController(t *testing.T, mem *memStore) (*Controller, *liststore.Store, *auth.Manager) {
	t.Helper()
	store := liststore.New()
	mgr := newSignedInManager(t)
	ctrl := NewController(store, mem, mgr, nil)
	t.Cleanup(ctrl.Stop)
	return ctrl, store, mgr
}

func eventuallyTodos(t *testing.T, store *liststore.Store, want []model.Item) {
	t.Helper()
	require.Eventually(t, func() bool {
		return model.Equal(store.Todos(), want)
	}, 2*time.Second, 5*time.Millisecond, "store never reached %v (have %v)", want, store.Todos())
}

func TestSubmitRejectsBlankFields(t *testing.T) {
	mem := newMemStore()
	ctrl, store, _ := newTestController(t, mem)

	for _, f := range []FormState{
		{Name: "", Description: "non-empty"},
		{Name: "name", Description: ""},
	} {
		require.ErrorIs(t, ctrl.Submit(context.Background(), f), ErrInvalidForm)
	}
	require.Empty(t, store.Todos())
	saves, _, _, _ := mem.counts()
	require.Equal(t, 0, saves)
}

func TestSubmitAddsLocallyThenReconciles(t *testing.T) {
	mem := newMemStore()
	ctrl, store, _ := newTestController(t, mem)

	require.NoError(t, ctrl.Submit(context.Background(), FormState{Name: "A", Description: "a"}))
	require.NotEmpty(t, store.Todos(), "visible before any snapshot")

	require.NoError(t, ctrl.Start(context.Background()))
	eventuallyTodos(t, store, []model.Item{{ID: "id-1", Name: "A", Description: "a"}})
}

func TestSubmitOptimisticItemWithoutSubscription(t *testing.T) {
	mem := newMemStore()
	ctrl, store, _ := newTestController(t, mem)

	require.NoError(t, ctrl.Submit(context.Background(), FormState{Name: "A", Description: "a"}))
	require.Equal(t, []model.Item{{Name: "A", Description: "a"}}, store.Todos())
}

func TestSubmitSaveFailureKeepsLocalItem(t *testing.T) {
	mem := newMemStore()
	mem.saveErr = errors.New("offline")
	ctrl, store, _ := newTestController(t, mem)

	err := ctrl.Submit(context.Background(), FormState{Name: "A", Description: "a"})
	require.Error(t, err)
	require.ErrorIs(t, err, mem.saveErr)
	require.Equal(t, []model.Item{{Name: "A", Description: "a"}}, store.Todos())
}

func TestDeleteWaitsForSnapshot(t *testing.T) {
	x := model.Item{ID: "x", Name: "X", Description: "x"}
	mem := newMemStore(x)
	ctrl, store, _ := newTestController(t, mem)
	store.SetTodos([]model.Item{x})

	require.NoError(t, ctrl.Delete(context.Background(), "x"))
	require.Equal(t, []model.Item{x}, store.Todos(), "no optimistic removal")

	require.NoError(t, ctrl.Start(context.Background()))
	eventuallyTodos(t, store, nil)
}

func TestDeleteUnknownIDIsNoop(t *testing.T) {
	mem := newMemStore()
	ctrl, _, _ := newTestController(t, mem)

	require.NoError(t, ctrl.Delete(context.Background(), "missing"))
	_, queries, deletes, _ := mem.counts()
	require.Equal(t, 1, queries)
	require.Equal(t, 0, deletes)
}

func TestDeleteQueryFailure(t *testing.T) {
	mem := newMemStore(model.Item{ID: "x", Name: "X", Description: "x"})
	mem.queryErr = errors.New("boom")
	ctrl, _, _ := newTestController(t, mem)

	require.ErrorIs(t, ctrl.Delete(context.Background(), "x"), mem.queryErr)
}

func TestSignOutClearsCacheAndSession(t *testing.T) {
	mem := newMemStore()
	ctrl, store, mgr := newTestController(t, mem)
	require.NoError(t, ctrl.Start(context.Background()))

	require.NoError(t, ctrl.Submit(context.Background(), FormState{Name: "A", Description: "a"}))
	eventuallyTodos(t, store, []model.Item{{ID: "id-1", Name: "A", Description: "a"}})

	require.NoError(t, ctrl.SignOut(context.Background()))
	_, _, _, clears := mem.counts()
	require.Equal(t, 1, clears)
	require.Empty(t, store.Todos())
	require.Equal(t, 0, mem.hub.Len(), "subscription torn down")

	_, err := mgr.Require()
	require.ErrorIs(t, err, auth.ErrNotSignedIn)
}

func TestSignOutFailureKeepsSyncing(t *testing.T) {
	mem := newMemStore()
	mem.clearErr = errors.New("disk full")
	ctrl, store, mgr := newTestController(t, mem)
	require.NoError(t, ctrl.Start(context.Background()))

	require.ErrorIs(t, ctrl.SignOut(context.Background()), mem.clearErr)
	_, err := mgr.Require()
	require.NoError(t, err, "still signed in")
	require.Equal(t, 1, mem.hub.Len(), "subscription reopened")

	require.NoError(t, ctrl.Submit(context.Background(), FormState{Name: "A", Description: "a"}))
	eventuallyTodos(t, store, []model.Item{{ID: "id-1", Name: "A", Description: "a"}})
}

func TestSignOutWithEnvSessionStaysSignedIn(t *testing.T) {
	mem := newMemStore(model.Item{ID: "x", Name: "X", Description: "x"})
	ctrl, store, mgr := newTestController(t, mem)
	t.Setenv(auth.TokenEnv, "opaque-token")
	require.NoError(t, ctrl.Start(context.Background()))
	eventuallyTodos(t, store, []model.Item{{ID: "x", Name: "X", Description: "x"}})

	require.ErrorIs(t, ctrl.SignOut(context.Background()), ErrEnvSession)
	_, _, _, clears := mem.counts()
	require.Equal(t, 1, clears, "cache still cleared")
	require.Equal(t, 1, mem.hub.Len())
	eventuallyTodos(t, store, nil)

	s, err := mgr.Require()
	require.NoError(t, err)
	require.Equal(t, "env", s.Source)
}

func TestStartStopAreIdempotent(t *testing.T) {
	mem := newMemStore()
	ctrl, _, _ := newTestController(t, mem)

	require.NoError(t, ctrl.Start(context.Background()))
	require.NoError(t, ctrl.Start(context.Background()))
	require.Equal(t, 1, mem.hub.Len())

	ctrl.Stop()
	ctrl.Stop()
	require.Equal(t, 0, mem.hub.Len())

	require.NoError(t, ctrl.Start(context.Background()))
	require.Equal(t, 1, mem.hub.Len())
}

func TestFormStateValidateKeepsTypedText(t *testing.T) {
	item, err := FormState{Name: "  Milk ", Description: " 2 liters"}.Validate()
	require.NoError(t, err)
	require.Equal(t, model.Item{Name: "  Milk ", Description: " 2 liters"}, item)

	item, err = FormState{Name: "   ", Description: "\t"}.Validate()
	require.NoError(t, err, "only empty fields are rejected")
	require.Equal(t, "   ", item.Name)
}
