package realtime

import (
	"errors"
	"testing"

	"github.com/gorilla/websocket"
)

func attach(t *testing.T, h *Hub, token string) (*mockConn, *Client) {
	t.Helper()
	conn := newMockConn()
	client, err := h.Attach(conn, token)
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	return conn, client
}

func subscribe(t *testing.T, conn *mockConn, chatID uint) {
	t.Helper()
	acked := conn.countType(FrameTypeSubscribed)
	conn.push(map[string]any{"v": 1, "type": "subscribe", "chat_id": chatID})
	waitFor(t, "subscribe ack", func() bool {
		return conn.countType(FrameTypeSubscribed) > acked
	})
}

func TestAttachRejectsInvalidToken(t *testing.T) {
	h, _, _, _ := newTestHub()
	conn := newMockConn()

	_, err := h.Attach(conn, "bogus")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if !conn.sentControl(websocket.CloseMessage) {
		t.Error("transport should be closed with a close control frame")
	}
	if len(h.Presence().Snapshot()) != 0 {
		t.Error("failed handshake must not create presence state")
	}
	if got := len(h.registry.AllConnections()); got != 0 {
		t.Errorf("failed handshake must not register a connection, got %d", got)
	}
}

func TestAttachSendsPresenceSnapshotAndEvent(t *testing.T) {
	h, _, _, _ := newTestHub()

	first, _ := attach(t, h, "token-1")

	frames := first.frames()
	if len(frames) == 0 || frames[0]["type"] != string(FrameTypePresenceSnapshot) {
		t.Fatalf("first frame should be presence_snapshot, got %v", frames)
	}

	second, _ := attach(t, h, "token-2")

	// The existing connection learns about user 2 coming online.
	waitFor(t, "presence event", func() bool {
		return first.countType(FrameTypePresence) == 1
	})
	event := first.framesOfType(FrameTypePresence)[0]
	if event["user_id"].(float64) != 2 || event["online"] != true {
		t.Errorf("unexpected presence event: %v", event)
	}

	// The new connection's snapshot includes both online users.
	snapshot := second.framesOfType(FrameTypePresenceSnapshot)[0]
	ids := snapshot["online_user_ids"].([]any)
	if len(ids) != 2 {
		t.Errorf("expected 2 online users in snapshot, got %v", ids)
	}
}

func TestSecondConnectionOfSameUserEmitsNoPresenceEvent(t *testing.T) {
	h, _, _, _ := newTestHub()

	observer, _ := attach(t, h, "token-2")
	attach(t, h, "token-1")
	waitFor(t, "first presence event", func() bool {
		return observer.countType(FrameTypePresence) == 1
	})

	// A second connection for user 1 is not an offline -> online transition.
	attach(t, h, "token-1")
	if got := observer.countType(FrameTypePresence); got != 1 {
		t.Errorf("expected no extra presence event, got %d", got)
	}
}

func TestSubscribeForbiddenKeepsConnectionOpen(t *testing.T) {
	h, _, _, _ := newTestHub()
	conn, _ := attach(t, h, "token-3") // user 3 is not a member of chat 42

	conn.push(map[string]any{"v": 1, "type": "subscribe", "chat_id": 42})
	waitFor(t, "error frame", func() bool {
		return conn.countType(FrameTypeError) == 1
	})
	errFrame := conn.framesOfType(FrameTypeError)[0]
	if errFrame["code"] != ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN, got %v", errFrame["code"])
	}
	if got := len(h.registry.SubscribersOf(42)); got != 0 {
		t.Errorf("forbidden subscribe must not enter the room, got %d", got)
	}

	// The same socket still serves valid operations afterwards.
	conn.push(map[string]any{"v": 1, "type": "unsubscribe", "chat_id": 42})
	waitFor(t, "unsubscribed ack", func() bool {
		return conn.countType(FrameTypeUnsubscribed) == 1
	})
	if !h.Presence().IsOnline(3) {
		t.Error("user should remain online after a forbidden subscribe")
	}
}

func TestUnknownFrameTypeKeepsConnectionOpen(t *testing.T) {
	h, _, _, _ := newTestHub()
	conn, _ := attach(t, h, "token-1")

	conn.push(map[string]any{"v": 1, "type": "wibble"})
	waitFor(t, "error frame", func() bool {
		return conn.countType(FrameTypeError) == 1
	})
	if code := conn.framesOfType(FrameTypeError)[0]["code"]; code != ErrCodeInvalidPayload {
		t.Errorf("expected INVALID_PAYLOAD, got %v", code)
	}

	conn.pushRaw([]byte("{not json"))
	waitFor(t, "second error frame", func() bool {
		return conn.countType(FrameTypeError) == 2
	})

	if !h.Presence().IsOnline(1) {
		t.Error("presence must be unaffected by invalid payloads")
	}
	subscribe(t, conn, 42)
}

func TestUnsubscribeNeverSubscribedIsSafe(t *testing.T) {
	h, _, _, _ := newTestHub()
	conn, client := attach(t, h, "token-1")

	conn.push(map[string]any{"v": 1, "type": "unsubscribe", "chat_id": 42})
	waitFor(t, "unsubscribed ack", func() bool {
		return conn.countType(FrameTypeUnsubscribed) == 1
	})
	if got := len(h.registry.RoomsOf(client)); got != 0 {
		t.Errorf("expected no room memberships, got %d", got)
	}
}

func TestSendMessageDeliveryAndNotify(t *testing.T) {
	h, _, _, _ := newTestHub()

	alice, _ := attach(t, h, "token-1")
	bob, _ := attach(t, h, "token-2")
	subscribe(t, alice, 42)

	// Bob is a member but not subscribed: he gets the lightweight signal,
	// never the body.
	alice.push(map[string]any{"v": 1, "type": "send_message", "chat_id": 42, "content": "hello", "content_type": "text"})
	waitFor(t, "new_message for bob", func() bool {
		return bob.countType(FrameTypeNewMessage) == 1
	})
	if got := bob.countType(FrameTypeMessage); got != 0 {
		t.Errorf("unsubscribed member must not receive message frames, got %d", got)
	}
	waitFor(t, "message for alice", func() bool {
		return alice.countType(FrameTypeMessage) == 1
	})
	if got := alice.countType(FrameTypeNewMessage); got != 0 {
		t.Errorf("sender must not be notified of their own message, got %d", got)
	}
	msg := alice.framesOfType(FrameTypeMessage)[0]["message"].(map[string]any)
	if msg["content"] != "hello" {
		t.Errorf("unexpected message body: %v", msg)
	}
	if msg["sender"].(map[string]any)["id"].(float64) != 1 {
		t.Errorf("unexpected sender: %v", msg)
	}

	// After subscribing, Bob receives the full body for the next send.
	subscribe(t, bob, 42)
	alice.push(map[string]any{"v": 1, "type": "send_message", "chat_id": 42, "content": "again", "content_type": "text"})
	waitFor(t, "message for bob", func() bool {
		return bob.countType(FrameTypeMessage) == 1
	})
}

func TestSendMessageEncryptedFanOut(t *testing.T) {
	h, _, store, _ := newTestHub()

	alice, _ := attach(t, h, "token-1")
	subscribe(t, alice, 42)

	// Two per-recipient encrypted items store two rows, each broadcast
	// independently.
	alice.push(map[string]any{
		"v": 1, "type": "send_message", "chat_id": 42, "content_type": "text",
		"items": []map[string]any{
			{"recipient_id": 1, "ciphertext": "c1", "nonce": "n1", "algo": "xchacha20"},
			{"recipient_id": 2, "ciphertext": "c2", "nonce": "n2", "algo": "xchacha20"},
		},
	})
	waitFor(t, "two message frames", func() bool {
		return alice.countType(FrameTypeMessage) == 2
	})
	if store.persistCalls() != 1 {
		t.Errorf("expected one persist call, got %d", store.persistCalls())
	}
}

func TestSendMessageForbidden(t *testing.T) {
	h, _, store, _ := newTestHub()
	conn, _ := attach(t, h, "token-3")

	conn.push(map[string]any{"v": 1, "type": "send_message", "chat_id": 42, "content": "hi", "content_type": "text"})
	waitFor(t, "error frame", func() bool {
		return conn.countType(FrameTypeError) == 1
	})
	if code := conn.framesOfType(FrameTypeError)[0]["code"]; code != ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN, got %v", code)
	}
	if store.persistCalls() != 0 {
		t.Error("forbidden send must not reach the store")
	}
}

func TestStorageFailureSurfacedAndNotBroadcast(t *testing.T) {
	h, _, store, _ := newTestHub()
	store.err = errors.New("disk full")

	alice, _ := attach(t, h, "token-1")
	bob, _ := attach(t, h, "token-2")
	subscribe(t, alice, 42)
	subscribe(t, bob, 42)

	alice.push(map[string]any{"v": 1, "type": "send_message", "chat_id": 42, "content": "hi", "content_type": "text"})
	waitFor(t, "storage error frame", func() bool {
		return alice.countType(FrameTypeError) == 1
	})
	if code := alice.framesOfType(FrameTypeError)[0]["code"]; code != ErrCodeStorageError {
		t.Errorf("expected STORAGE_ERROR, got %v", code)
	}
	if got := bob.countType(FrameTypeMessage); got != 0 {
		t.Errorf("unpersisted message must not be broadcast, got %d", got)
	}
	if got := bob.countType(FrameTypeNewMessage); got != 0 {
		t.Errorf("unpersisted message must not be notified, got %d", got)
	}
}

func TestBroadcastRoomIsolatesFailingSubscriber(t *testing.T) {
	h, membership, _, _ := newTestHub()
	membership.mu.Lock()
	membership.members[42][3] = true
	membership.mu.Unlock()

	healthy1, _ := attach(t, h, "token-1")
	healthy2, _ := attach(t, h, "token-2")
	failing, failingClient := attach(t, h, "token-3")
	subscribe(t, healthy1, 42)
	subscribe(t, healthy2, 42)
	subscribe(t, failing, 42)

	failing.failWrites()

	sent := h.BroadcastRoom(42, NewNewMessageFrame(42))
	if sent != 2 {
		t.Errorf("expected delivery to 2 healthy subscribers, got %d", sent)
	}
	if got := len(h.registry.SubscribersOf(42)); got != 2 {
		t.Errorf("failing subscriber should be removed from the room, got %d", got)
	}
	if h.registry.Unregister(failingClient) {
		t.Error("failing connection should already be unregistered")
	}
	waitFor(t, "user 3 offline", func() bool {
		return !h.Presence().IsOnline(3)
	})
	if !h.Presence().IsOnline(1) || !h.Presence().IsOnline(2) {
		t.Error("healthy users must stay online")
	}
}

func TestNotifyUserReachesAllConnections(t *testing.T) {
	h, _, _, _ := newTestHub()

	subscribed, _ := attach(t, h, "token-1")
	unsubscribed, _ := attach(t, h, "token-1")
	subscribe(t, subscribed, 42)

	if sent := h.BroadcastRoom(42, NewNewMessageFrame(42)); sent != 1 {
		t.Errorf("room broadcast should reach only the subscribed connection, got %d", sent)
	}
	if got := unsubscribed.countType(FrameTypeNewMessage); got != 0 {
		t.Errorf("unsubscribed connection must not receive room broadcasts, got %d", got)
	}

	if sent := h.NotifyUser(1, NewUnreadUpdateFrame(42)); sent != 2 {
		t.Errorf("notify should reach both connections, got %d", sent)
	}
}

func TestBroadcastAll(t *testing.T) {
	h, _, _, _ := newTestHub()

	a, _ := attach(t, h, "token-1")
	b, _ := attach(t, h, "token-2")

	if sent := h.BroadcastAll(NewUsersChangedFrame()); sent != 2 {
		t.Errorf("expected broadcast to both connections, got %d", sent)
	}
	if a.countType(FrameTypeUsersChanged) != 1 || b.countType(FrameTypeUsersChanged) != 1 {
		t.Error("both connections should receive the frame")
	}
}

func TestDisconnectCleansUpOnce(t *testing.T) {
	h, _, _, _ := newTestHub()

	observer, _ := attach(t, h, "token-2")
	conn, client := attach(t, h, "token-1")
	subscribe(t, conn, 42)

	conn.Close()

	waitFor(t, "teardown", func() bool {
		return len(h.registry.ConnectionsFor(1)) == 0
	})
	if got := len(h.registry.SubscribersOf(42)); got != 0 {
		t.Errorf("disconnect should remove the connection from its rooms, got %d", got)
	}
	if h.Presence().IsOnline(1) {
		t.Error("user should be offline after their only connection dropped")
	}
	waitFor(t, "offline event", func() bool {
		for _, f := range observer.framesOfType(FrameTypePresence) {
			if f["online"] == false && f["user_id"].(float64) == 1 {
				return true
			}
		}
		return false
	})

	// Racing a second teardown trigger must not double-count.
	h.drop(client, "test")
	if h.Presence().IsOnline(1) {
		t.Error("presence corrupted by repeated teardown")
	}
	if got := len(h.Presence().Snapshot()); got != 1 {
		t.Errorf("expected only the observer online, got %d", got)
	}
}

func TestRemoveUserFromRoom(t *testing.T) {
	h, _, _, _ := newTestHub()

	conn, client := attach(t, h, "token-1")
	subscribe(t, conn, 42)

	h.RemoveUserFromRoom(42, 1)

	if h.registry.IsSubscribed(client, 42) {
		t.Error("forced removal should unsubscribe the user's connections")
	}
	if !h.Presence().IsOnline(1) {
		t.Error("forced room removal must not disconnect the user")
	}
}

func TestStopClosesAllConnections(t *testing.T) {
	h, _, _, _ := newTestHub()

	a, _ := attach(t, h, "token-1")
	b, _ := attach(t, h, "token-2")

	h.Stop()

	if got := len(h.registry.AllConnections()); got != 0 {
		t.Errorf("expected no registered connections after stop, got %d", got)
	}
	if !a.sentControl(websocket.CloseMessage) || !b.sentControl(websocket.CloseMessage) {
		t.Error("peers should receive a close frame on shutdown")
	}
	if len(h.Presence().Snapshot()) != 0 {
		t.Error("no user should remain online after stop")
	}
}
