package datastore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/amped/internal/model"
)

func TestHubDeliversInitialThenLatest(t *testing.T) {
	h := NewHub()
	sub, err := h.Subscribe(Snapshot{IsSynced: true})
	require.NoError(t, err)

	first := <-sub.C
	require.Empty(t, first.Items)
	require.True(t, first.IsSynced)

	h.Publish(Snapshot{Items: []model.Item{{ID: "1", Name: "A"}}, IsSynced: true})
	h.Publish(Snapshot{Items: []model.Item{{ID: "1", Name: "A"}, {ID: "2", Name: "B"}}, IsSynced: true})

	latest := <-sub.C
	require.Len(t, latest.Items, 2, "older pending snapshot is replaced")
	select {
	case <-sub.C:
		t.Fatalf("no further snapshot expected")
	default:
	}
}

func TestHubUnsubscribeClosesOnce(t *testing.T) {
	h := NewHub()
	sub, err := h.Subscribe(Snapshot{})
	require.NoError(t, err)
	require.Equal(t, 1, h.Len())

	sub.Unsubscribe()
	sub.Unsubscribe()
	require.Equal(t, 0, h.Len())

	<-sub.C // initial snapshot still buffered
	_, ok := <-sub.C
	require.False(t, ok)

	h.Publish(Snapshot{})
}

func TestHubCloseEndsSubscriptions(t *testing.T) {
	h := NewHub()
	sub, err := h.Subscribe(Snapshot{})
	require.NoError(t, err)
	<-sub.C

	h.Close()
	_, ok := <-sub.C
	require.False(t, ok)
	sub.Unsubscribe()

	_, err = h.Subscribe(Snapshot{})
	require.ErrorIs(t, err, ErrClosed)
}

func TestHubSnapshotsAreIsolated(t *testing.T) {
	h := NewHub()
	items := []model.Item{{ID: "1", Name: "A"}}
	sub, err := h.Subscribe(Snapshot{Items: items})
	require.NoError(t, err)
	items[0].Name = "mutated"

	got := <-sub.C
	require.Equal(t, "A", got.Items[0].Name)
}
