package store

import (
	"sync"

	"collab-realtime/internal/models"
)

// Conversations maps a peer's user ID to the ordered messages exchanged
// with that peer. There is no separate conversation entity; the peer ID
// is the conversation key. Order is arrival order, not timestamp order.
type Conversations struct {
	mu       sync.RWMutex
	messages map[string][]models.Message
}

func NewConversations() *Conversations {
	return &Conversations{
		messages: make(map[string][]models.Message),
	}
}

// Append adds a message to the end of the peer's sequence. Existing
// entries are never reordered and no deduplication is applied.
func (c *Conversations) Append(peerID string, msg models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages[peerID] = append(c.messages[peerID], msg)
}

// Hydrate replaces the peer's sequence wholesale with history fetched
// from the REST backend. Callers issue this once when a conversation
// view opens; a hydrate after live appends discards those appends.
func (c *Conversations) Hydrate(peerID string, msgs []models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]models.Message, len(msgs))
	copy(cp, msgs)
	c.messages[peerID] = cp
}

// Messages returns a copy of the peer's sequence.
func (c *Conversations) Messages(peerID string) []models.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	msgs := c.messages[peerID]
	cp := make([]models.Message, len(msgs))
	copy(cp, msgs)
	return cp
}

// Peers returns the IDs of peers with at least one stored message.
func (c *Conversations) Peers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	peers := make([]string, 0, len(c.messages))
	for id := range c.messages {
		peers = append(peers, id)
	}
	return peers
}

// Clear drops every conversation. Called on teardown so a later session
// never sees the previous user's messages.
func (c *Conversations) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = make(map[string][]models.Message)
}
