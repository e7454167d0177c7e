package agent

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/localrivet/wikichat/model"
)

// Conversation is the append-only message sequence one loop invocation works
// on. It is owned by a single goroutine for its whole life and is discarded
// when the loop returns; nothing persists it.
//
// Append enforces the tool-call ordering rule: once an assistant message
// carrying tool calls is appended, the next message must be a user message
// resolving exactly those calls, one result per call.
type Conversation struct {
	id       string
	messages []model.Message
	pending  map[string]bool
}

// NewConversation creates an empty conversation. When id is empty a fresh
// UUID is assigned.
func NewConversation(id string) *Conversation {
	if id == "" {
		id = uuid.NewString()
	}
	return &Conversation{id: id, pending: make(map[string]bool)}
}

// ID returns the conversation identifier.
func (c *Conversation) ID() string { return c.id }

// Len returns the number of messages appended so far.
func (c *Conversation) Len() int { return len(c.messages) }

// Append adds a message to the conversation, enforcing the ordering rules.
func (c *Conversation) Append(msg model.Message) error {
	if len(c.pending) > 0 && len(msg.ToolResults) == 0 {
		return fmt.Errorf("conversation %s: %d tool calls are outstanding, expected their results next", c.id, len(c.pending))
	}

	switch {
	case len(msg.ToolResults) > 0:
		if msg.Role != model.RoleUser {
			return fmt.Errorf("conversation %s: tool results must ride on a user message", c.id)
		}
		seen := make(map[string]bool, len(msg.ToolResults))
		for _, tr := range msg.ToolResults {
			if !c.pending[tr.CallID] {
				return fmt.Errorf("conversation %s: tool result answers unknown call %q", c.id, tr.CallID)
			}
			if seen[tr.CallID] {
				return fmt.Errorf("conversation %s: duplicate tool result for call %q", c.id, tr.CallID)
			}
			seen[tr.CallID] = true
		}
		if len(seen) != len(c.pending) {
			return fmt.Errorf("conversation %s: %d of %d outstanding tool calls left unresolved", c.id, len(c.pending)-len(seen), len(c.pending))
		}
		c.pending = make(map[string]bool)

	case len(msg.ToolCalls) > 0:
		if msg.Role != model.RoleAssistant {
			return fmt.Errorf("conversation %s: tool calls must ride on an assistant message", c.id)
		}
		for _, tc := range msg.ToolCalls {
			if tc.ID == "" {
				return fmt.Errorf("conversation %s: tool call without an identifier", c.id)
			}
			if c.pending[tc.ID] {
				return fmt.Errorf("conversation %s: duplicate tool call identifier %q", c.id, tc.ID)
			}
			c.pending[tc.ID] = true
		}
	}

	c.messages = append(c.messages, msg)
	return nil
}

// Snapshot returns a copy of the message sequence safe to hand to a model
// client. The copy shares message internals; messages are treated as
// immutable once appended.
func (c *Conversation) Snapshot() []model.Message {
	out := make([]model.Message, len(c.messages))
	copy(out, c.messages)
	return out
}
