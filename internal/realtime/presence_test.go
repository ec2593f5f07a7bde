package realtime

import (
	"sync"
	"testing"
)

func TestPresenceConnectDisconnect(t *testing.T) {
	p := NewPresenceTracker()

	if p.IsOnline(1) {
		t.Error("user should start offline")
	}

	if count := p.Connect(1); count != 1 {
		t.Errorf("expected count 1 after first connect, got %d", count)
	}
	if count := p.Connect(1); count != 2 {
		t.Errorf("expected count 2 after second connect, got %d", count)
	}
	if !p.IsOnline(1) {
		t.Error("user should be online with two connections")
	}

	if count := p.Disconnect(1); count != 1 {
		t.Errorf("expected count 1 after disconnect, got %d", count)
	}
	if !p.IsOnline(1) {
		t.Error("user should remain online with one connection left")
	}

	if count := p.Disconnect(1); count != 0 {
		t.Errorf("expected count 0 after final disconnect, got %d", count)
	}
	if p.IsOnline(1) {
		t.Error("user should be offline after final disconnect")
	}
}

func TestPresenceDisconnectUnknownUserIsNoop(t *testing.T) {
	p := NewPresenceTracker()

	if count := p.Disconnect(7); count != 0 {
		t.Errorf("disconnect of unknown user should return 0, got %d", count)
	}
	if p.IsOnline(7) {
		t.Error("unknown user should not appear online")
	}

	// Repeated disconnects must never drive a later count negative.
	p.Disconnect(7)
	p.Disconnect(7)
	if count := p.Connect(7); count != 1 {
		t.Errorf("expected count 1 after connect, got %d", count)
	}
}

func TestPresenceSnapshot(t *testing.T) {
	p := NewPresenceTracker()
	p.Connect(1)
	p.Connect(2)
	p.Connect(2)
	p.Connect(3)
	p.Disconnect(3)

	snapshot := p.Snapshot()
	online := make(map[uint]bool, len(snapshot))
	for _, id := range snapshot {
		online[id] = true
	}

	if len(snapshot) != 2 {
		t.Errorf("expected 2 online users, got %d", len(snapshot))
	}
	if !online[1] || !online[2] {
		t.Errorf("expected users 1 and 2 online, got %v", snapshot)
	}
	if online[3] {
		t.Error("user 3 disconnected and should not be in snapshot")
	}
}

func TestPresenceConcurrentCounts(t *testing.T) {
	p := NewPresenceTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Connect(9)
			p.Disconnect(9)
		}()
	}
	wg.Wait()

	if p.IsOnline(9) {
		t.Error("balanced connect/disconnect pairs should leave the user offline")
	}
}
