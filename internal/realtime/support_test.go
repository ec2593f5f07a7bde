package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockConn implements the Conn interface for testing. Inbound frames are
// scripted through a channel; outbound frames are recorded.
type mockConn struct {
	mu        sync.Mutex
	inbound   chan []byte
	sent      [][]byte
	controls  []int
	writeErr  error
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

func newMockConn() *mockConn {
	return &mockConn{
		inbound: make(chan []byte, 16),
		done:    make(chan struct{}),
	}
}

func (m *mockConn) ReadMessage() (int, []byte, error) {
	select {
	case data, ok := <-m.inbound:
		if !ok {
			return 0, nil, errors.New("connection closed")
		}
		return websocket.TextMessage, data, nil
	case <-m.done:
		return 0, nil, errors.New("connection closed")
	}
}

func (m *mockConn) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	if m.closed {
		return errors.New("connection closed")
	}
	m.sent = append(m.sent, append([]byte(nil), data...))
	return nil
}

func (m *mockConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.controls = append(m.controls, messageType)
	return nil
}

func (m *mockConn) SetReadLimit(limit int64) {}

func (m *mockConn) SetReadDeadline(t time.Time) error { return nil }

func (m *mockConn) SetWriteDeadline(t time.Time) error { return nil }

func (m *mockConn) SetPongHandler(h func(string) error) {}

func (m *mockConn) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		close(m.done)
	})
	return nil
}

// push delivers one scripted inbound frame to the read loop.
func (m *mockConn) push(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	m.inbound <- data
}

func (m *mockConn) pushRaw(data []byte) {
	m.inbound <- data
}

// failWrites makes every subsequent data write fail.
func (m *mockConn) failWrites() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = errors.New("broken pipe")
}

// frames decodes every recorded outbound frame.
func (m *mockConn) frames() []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]any, 0, len(m.sent))
	for _, data := range m.sent {
		var f map[string]any
		if err := json.Unmarshal(data, &f); err != nil {
			panic(err)
		}
		out = append(out, f)
	}
	return out
}

func (m *mockConn) framesOfType(ft FrameType) []map[string]any {
	var out []map[string]any
	for _, f := range m.frames() {
		if f["type"] == string(ft) {
			out = append(out, f)
		}
	}
	return out
}

func (m *mockConn) countType(ft FrameType) int {
	return len(m.framesOfType(ft))
}

func (m *mockConn) sentControl(messageType int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mt := range m.controls {
		if mt == messageType {
			return true
		}
	}
	return false
}

// Fake collaborators

type fakeResolver struct {
	identities map[string]Identity
}

func (r *fakeResolver) Resolve(ctx context.Context, token string) (Identity, error) {
	identity, ok := r.identities[token]
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	return identity, nil
}

type fakeMembership struct {
	mu      sync.Mutex
	members map[uint]map[uint]bool // chatID -> userID -> member
	err     error
}

func (m *fakeMembership) IsMember(ctx context.Context, chatID, userID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.members[chatID][userID], nil
}

type fakeStore struct {
	mu     sync.Mutex
	nextID uint
	err    error
	calls  int
}

func (s *fakeStore) Persist(ctx context.Context, chatID, senderID uint, msg OutgoingMessage) ([]*WireMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	rows := 1
	if len(msg.Items) > 0 {
		rows = len(msg.Items)
	}
	out := make([]*WireMessage, 0, rows)
	for i := 0; i < rows; i++ {
		s.nextID++
		stored := &WireMessage{
			ID:          s.nextID,
			Content:     msg.Content,
			ContentType: msg.ContentType,
			Timestamp:   time.Now(),
			Sender:      WireSender{ID: senderID, Username: fmt.Sprintf("user-%d", senderID)},
		}
		if len(msg.Items) > 0 {
			item := msg.Items[i]
			stored.Ciphertext = &item.Ciphertext
			stored.RecipientID = &item.RecipientID
		}
		out = append(out, stored)
	}
	return out, nil
}

func (s *fakeStore) persistCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeRoster struct {
	members map[uint][]uint
}

func (r *fakeRoster) MembersOf(ctx context.Context, chatID uint) ([]uint, error) {
	return r.members[chatID], nil
}

// testHub wires a hub with fakes. Chat 42 has users 1 and 2 as members by
// default; tokens "token-N" resolve to user N.
func newTestHub() (*Hub, *fakeMembership, *fakeStore, *fakeRoster) {
	resolver := &fakeResolver{identities: map[string]Identity{
		"token-1": {ID: 1, Username: "alice"},
		"token-2": {ID: 2, Username: "bob"},
		"token-3": {ID: 3, Username: "carol"},
	}}
	membership := &fakeMembership{members: map[uint]map[uint]bool{
		42: {1: true, 2: true},
	}}
	store := &fakeStore{}
	roster := &fakeRoster{members: map[uint][]uint{
		42: {1, 2},
	}}
	log := slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewHub(log, resolver, membership, store, roster), membership, store, roster
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
