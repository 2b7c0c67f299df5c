package presence

import (
	"sync"
	"time"
)

// Tracker holds the ephemeral view of which peers are online and which
// are currently typing. Presence has no timeout of its own; the server
// sends explicit offline events, and Reset is wired to the disconnect
// event because no further presence updates arrive while disconnected.
type Tracker struct {
	mu        sync.Mutex
	typingTTL time.Duration
	online    map[string]struct{}
	typing    map[string]*time.Timer
}

func NewTracker(typingTTL time.Duration) *Tracker {
	return &Tracker{
		typingTTL: typingTTL,
		online:    make(map[string]struct{}),
		typing:    make(map[string]*time.Timer),
	}
}

func (t *Tracker) SetOnline(peerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.online[peerID] = struct{}{}
}

func (t *Tracker) SetOffline(peerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.online, peerID)
}

func (t *Tracker) IsOnline(peerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.online[peerID]
	return ok
}

// Online returns a snapshot of the online peer IDs.
func (t *Tracker) Online() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.online))
	for id := range t.online {
		ids = append(ids, id)
	}
	return ids
}

// SetTyping records whether a peer is typing. A true entry self-clears
// after the TTL. The latest event for a peer always wins: any
// outstanding timer is stopped before a new one is armed, so a stale
// timer can never clear a fresher entry.
func (t *Tracker) SetTyping(peerID string, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.typing[peerID]; ok {
		timer.Stop()
		delete(t.typing, peerID)
	}
	if !isTyping {
		return
	}
	t.typing[peerID] = time.AfterFunc(t.typingTTL, func() {
		t.expireTyping(peerID)
	})
}

func (t *Tracker) expireTyping(peerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.typing, peerID)
}

func (t *Tracker) IsTyping(peerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.typing[peerID]
	return ok
}

// Reset clears both maps and stops all typing timers. The whole view is
// stale once the connection drops; reconnect repopulates it from server
// events.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.online = make(map[string]struct{})
	for id, timer := range t.typing {
		timer.Stop()
		delete(t.typing, id)
	}
}
