package realtime

import "sync"

// PresenceTracker keeps a live-connection reference count per user. A user
// is online while at least one registered connection belongs to them.
type PresenceTracker struct {
	mu     sync.Mutex
	counts map[uint]int
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{counts: make(map[uint]int)}
}

// Connect records one more live connection for the user and returns the new
// count. A return of 1 marks the offline -> online transition.
func (p *PresenceTracker) Connect(userID uint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[userID]++
	return p.counts[userID]
}

// Disconnect records one fewer live connection and returns the remaining
// count. The entry is removed when it reaches zero; the count never goes
// negative, and disconnecting a user with no entry is a no-op.
func (p *PresenceTracker) Disconnect(userID uint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count, ok := p.counts[userID]
	if !ok {
		return 0
	}
	if count <= 1 {
		delete(p.counts, userID)
		return 0
	}
	p.counts[userID] = count - 1
	return count - 1
}

// IsOnline reports whether the user has at least one live connection.
func (p *PresenceTracker) IsOnline(userID uint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[userID] > 0
}

// Snapshot returns the ids of all currently online users.
func (p *PresenceTracker) Snapshot() []uint {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]uint, 0, len(p.counts))
	for userID := range p.counts {
		ids = append(ids, userID)
	}
	return ids
}
