package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// fakeConn records envelopes written to it. Safe for concurrent use.
type fakeConn struct {
	mu       sync.Mutex
	written  []interface{}
	closed   bool
	writeErr error
}

func (c *fakeConn) WriteEnvelope(_ context.Context, v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.written = append(c.written, v)
	return nil
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) envelopes() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]interface{}, len(c.written))
	copy(out, c.written)
	return out
}

func TestRegistryJoinIdempotent(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{}

	r.Join("TCK-1", conn)
	r.Join("TCK-1", conn)

	if got := len(r.Members("TCK-1")); got != 1 {
		t.Fatalf("expected 1 member after double join, got %d", got)
	}
	if got := r.Room(conn); got != "TCK-1" {
		t.Fatalf("expected room TCK-1, got %q", got)
	}
}

func TestRegistryLeave(t *testing.T) {
	r := NewRegistry()
	a := &fakeConn{}
	b := &fakeConn{}

	r.Join("TCK-1", a)
	r.Join("TCK-1", b)
	r.Leave(a)

	members := r.Members("TCK-1")
	if len(members) != 1 {
		t.Fatalf("expected 1 member after leave, got %d", len(members))
	}
	if r.Room(a) != "" {
		t.Fatalf("expected departed connection to have no room, got %q", r.Room(a))
	}

	// Leaving a connection that never joined must not panic or disturb
	// the room.
	r.Leave(&fakeConn{})
	if got := len(r.Members("TCK-1")); got != 1 {
		t.Fatalf("expected 1 member after stranger leave, got %d", got)
	}
}

func TestRegistryLeaveRemovesEmptyRoom(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{}

	r.Join("TCK-1", conn)
	r.Leave(conn)

	if got := len(r.Members("TCK-1")); got != 0 {
		t.Fatalf("expected empty room, got %d members", got)
	}
	r.mu.RLock()
	_, exists := r.rooms["TCK-1"]
	r.mu.RUnlock()
	if exists {
		t.Fatal("expected empty room to be dropped from the registry")
	}
}

func TestRegistryBroadcast(t *testing.T) {
	r := NewRegistry()
	a := &fakeConn{}
	b := &fakeConn{}
	other := &fakeConn{}

	r.Join("TCK-1", a)
	r.Join("TCK-1", b)
	r.Join("TCK-2", other)

	r.Broadcast(context.Background(), "TCK-1", "hello")

	if got := len(a.envelopes()); got != 1 {
		t.Fatalf("expected 1 envelope on a, got %d", got)
	}
	if got := len(b.envelopes()); got != 1 {
		t.Fatalf("expected 1 envelope on b, got %d", got)
	}
	if got := len(other.envelopes()); got != 0 {
		t.Fatalf("expected no envelopes outside the room, got %d", got)
	}
}

func TestRegistryBroadcastSkipsClosed(t *testing.T) {
	r := NewRegistry()
	open := &fakeConn{}
	dead := &fakeConn{}

	r.Join("TCK-1", open)
	r.Join("TCK-1", dead)
	dead.markClosed()

	r.Broadcast(context.Background(), "TCK-1", "hello")

	if got := len(open.envelopes()); got != 1 {
		t.Fatalf("expected 1 envelope on open conn, got %d", got)
	}
	if got := len(dead.envelopes()); got != 0 {
		t.Fatalf("expected no envelopes on closed conn, got %d", got)
	}
}

func TestRegistryBroadcastSurvivesWriteError(t *testing.T) {
	r := NewRegistry()
	flaky := &fakeConn{writeErr: errors.New("broken pipe")}
	healthy := &fakeConn{}

	r.Join("TCK-1", flaky)
	r.Join("TCK-1", healthy)

	r.Broadcast(context.Background(), "TCK-1", "hello")

	if got := len(healthy.envelopes()); got != 1 {
		t.Fatalf("expected delivery to healthy conn despite a write error, got %d", got)
	}
}
