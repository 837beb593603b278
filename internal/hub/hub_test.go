package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/pfn-backend/internal/engine"
	"github.com/DoyleJ11/pfn-backend/internal/room"
)

func TestHub_Create_Get_SamePointer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, nil)
	reply := make(chan *room.Room, 1)

	state := engine.NewEmptyState()
	h.Inbox() <- CreateRoom{Code: "ZED123", State: state, Reply: reply}
	r1 := <-reply

	h.Inbox() <- GetRoom{Code: "ZED123", Reply: reply}
	r2 := <-reply

	if r1 == nil || r2 == nil || r1 != r2 {
		t.Fatalf("expected same room pointer")
	}

	h.Inbox() <- EnsureRoom{Code: "ZED123", State: state, Reply: reply}
	assert.Same(t, r1, <-reply)
}

func TestHub_RemoveRoom_ShutsItDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, nil)

	reply := make(chan *room.Room, 1)
	h.Inbox() <- CreateRoom{Code: "ABC123", State: engine.NewEmptyState(), Reply: reply}
	r := <-reply
	require.NotNil(t, r)

	h.Inbox() <- RemoveRoom{Code: "ABC123"}

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatalf("removed room kept running")
	}

	h.Inbox() <- GetRoom{Code: "ABC123", Reply: reply}
	assert.Nil(t, <-reply)

	count := make(chan int, 1)
	h.Inbox() <- CountRooms{Reply: count}
	assert.Equal(t, 0, <-count)
}

func TestHub_LookupAfterShutdownFailsFast(t *testing.T) {
	h := NewHub(context.Background(), nil)

	r, err := h.Ensure(context.Background(), "ROOM01", engine.NewEmptyState())
	require.NoError(t, err)
	require.NotNil(t, r)

	got, err := h.Lookup(context.Background(), "ROOM01")
	require.NoError(t, err)
	assert.Same(t, r, got)

	h.Inbox() <- ShutdownHub{}
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatalf("hub did not shut down")
	}

	_, err = h.Lookup(context.Background(), "ROOM01")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = h.Ensure(context.Background(), "ROOM02", engine.NewEmptyState())
	assert.ErrorIs(t, err, ErrClosed)
}
