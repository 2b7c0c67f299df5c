package store

import (
	"fmt"
	"testing"
	"time"

	"collab-realtime/internal/models"
)

func makeMessage(id, sender, receiver string) models.Message {
	return models.Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    "message " + id,
		CreatedAt:  time.Now(),
	}
}

func TestAppendPreservesArrivalOrder(t *testing.T) {
	c := NewConversations()

	const n = 25
	for i := 0; i < n; i++ {
		c.Append("peer-1", makeMessage(fmt.Sprintf("m%d", i), "peer-1", "me"))
	}

	msgs := c.Messages("peer-1")
	if len(msgs) != n {
		t.Fatalf("expected %d messages, got %d", n, len(msgs))
	}
	for i, msg := range msgs {
		want := fmt.Sprintf("m%d", i)
		if msg.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, msg.ID)
		}
	}
}

func TestAppendDoesNotDeduplicate(t *testing.T) {
	c := NewConversations()

	msg := makeMessage("m1", "peer-1", "me")
	c.Append("peer-1", msg)
	c.Append("peer-1", msg)

	if got := len(c.Messages("peer-1")); got != 2 {
		t.Fatalf("expected both copies retained, got %d", got)
	}
}

func TestHydrateReplacesWholesale(t *testing.T) {
	c := NewConversations()

	for i := 0; i < 10; i++ {
		c.Append("peer-1", makeMessage(fmt.Sprintf("live%d", i), "peer-1", "me"))
	}

	history := []models.Message{
		makeMessage("h1", "me", "peer-1"),
		makeMessage("h2", "peer-1", "me"),
		makeMessage("h3", "me", "peer-1"),
	}
	c.Hydrate("peer-1", history)

	msgs := c.Messages("peer-1")
	if len(msgs) != 3 {
		t.Fatalf("expected exactly 3 messages after hydrate, got %d", len(msgs))
	}
	for i, msg := range msgs {
		if msg.ID != history[i].ID {
			t.Errorf("position %d: expected %s, got %s", i, history[i].ID, msg.ID)
		}
	}
}

func TestHydrateCopiesInput(t *testing.T) {
	c := NewConversations()

	history := []models.Message{makeMessage("h1", "me", "peer-1")}
	c.Hydrate("peer-1", history)
	history[0].Content = "mutated"

	if got := c.Messages("peer-1")[0].Content; got == "mutated" {
		t.Error("store aliased the caller's slice")
	}
}

func TestConversationsAreIndependent(t *testing.T) {
	c := NewConversations()

	c.Append("peer-1", makeMessage("a", "peer-1", "me"))
	c.Append("peer-2", makeMessage("b", "peer-2", "me"))

	if got := len(c.Messages("peer-1")); got != 1 {
		t.Errorf("peer-1: expected 1 message, got %d", got)
	}
	if got := len(c.Messages("peer-2")); got != 1 {
		t.Errorf("peer-2: expected 1 message, got %d", got)
	}
	if got := len(c.Peers()); got != 2 {
		t.Errorf("expected 2 peers, got %d", got)
	}
}

func TestClearDropsEverything(t *testing.T) {
	c := NewConversations()

	c.Append("peer-1", makeMessage("a", "peer-1", "me"))
	c.Clear()

	if got := len(c.Messages("peer-1")); got != 0 {
		t.Errorf("expected empty store after clear, got %d messages", got)
	}
	if got := len(c.Peers()); got != 0 {
		t.Errorf("expected no peers after clear, got %d", got)
	}
}
