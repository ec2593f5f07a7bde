package realtime

import "testing"

func testClient(userID uint) *Client {
	return newClient(newMockConn(), Identity{ID: userID, Username: "test"})
}

func TestRegistryRegisterUnregister(t *testing.T) {
	r := NewRegistry()
	c := testClient(1)

	r.Register(c)
	if got := len(r.ConnectionsFor(1)); got != 1 {
		t.Fatalf("expected 1 connection for user, got %d", got)
	}

	if !r.Unregister(c) {
		t.Error("unregister of a registered connection should report true")
	}
	if got := len(r.ConnectionsFor(1)); got != 0 {
		t.Errorf("expected 0 connections after unregister, got %d", got)
	}

	// Second unregister must be a safe no-op.
	if r.Unregister(c) {
		t.Error("unregister of an already-removed connection should report false")
	}
}

func TestRegistryUnregisterCascadesRoomCleanup(t *testing.T) {
	r := NewRegistry()
	a := testClient(1)
	b := testClient(2)
	r.Register(a)
	r.Register(b)

	r.Subscribe(a, 10)
	r.Subscribe(a, 20)
	r.Subscribe(b, 10)

	r.Unregister(a)

	if got := len(r.SubscribersOf(10)); got != 1 {
		t.Errorf("room 10 should keep the other subscriber, got %d", got)
	}
	if got := len(r.SubscribersOf(20)); got != 0 {
		t.Errorf("room 20 should be empty after its only subscriber left, got %d", got)
	}
	if got := len(r.RoomsOf(a)); got != 0 {
		t.Errorf("unregistered connection should have no rooms, got %d", got)
	}
}

func TestRegistrySubscribeIdempotent(t *testing.T) {
	r := NewRegistry()
	c := testClient(1)
	r.Register(c)

	r.Subscribe(c, 42)
	r.Subscribe(c, 42)
	r.Subscribe(c, 42)

	if got := len(r.SubscribersOf(42)); got != 1 {
		t.Errorf("repeated subscribe should keep one entry, got %d", got)
	}
	if got := len(r.RoomsOf(c)); got != 1 {
		t.Errorf("repeated subscribe should keep one reverse entry, got %d", got)
	}
}

func TestRegistryUnsubscribeUnknownRoomIsNoop(t *testing.T) {
	r := NewRegistry()
	c := testClient(1)
	r.Register(c)

	r.Unsubscribe(c, 99)

	if got := len(r.RoomsOf(c)); got != 0 {
		t.Errorf("expected no rooms, got %d", got)
	}
}

func TestRegistryEmptyRoomIsDeleted(t *testing.T) {
	r := NewRegistry()
	c := testClient(1)
	r.Register(c)

	r.Subscribe(c, 42)
	r.Unsubscribe(c, 42)

	if got := len(r.SubscribersOf(42)); got != 0 {
		t.Errorf("expected empty subscriber set, got %d", got)
	}
	if r.IsSubscribed(c, 42) {
		t.Error("connection should no longer be subscribed")
	}

	// Net effect of a subscribe/unsubscribe/subscribe sequence is subscribed.
	r.Subscribe(c, 42)
	if !r.IsSubscribed(c, 42) {
		t.Error("connection should be subscribed again")
	}
}

func TestRegistrySubscribeUnregisteredConnectionIsNoop(t *testing.T) {
	r := NewRegistry()
	c := testClient(1)

	r.Subscribe(c, 42)

	if got := len(r.SubscribersOf(42)); got != 0 {
		t.Errorf("unregistered connection must not enter a room, got %d", got)
	}
}

func TestRegistrySnapshotIsolation(t *testing.T) {
	r := NewRegistry()
	a := testClient(1)
	b := testClient(1)
	r.Register(a)
	r.Register(b)
	r.Subscribe(a, 42)
	r.Subscribe(b, 42)

	snapshot := r.SubscribersOf(42)
	r.Unregister(a)

	// The snapshot taken before teardown is unaffected by it.
	if got := len(snapshot); got != 2 {
		t.Errorf("snapshot should still hold 2 entries, got %d", got)
	}
	if got := len(r.SubscribersOf(42)); got != 1 {
		t.Errorf("live set should hold 1 entry, got %d", got)
	}
}
