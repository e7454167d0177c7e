// Package model defines the provider-neutral types the tool-use loop speaks:
// conversation messages, tool declarations, and the streaming completion
// client interface. Provider SDK types never leak past this boundary.
package model

import "context"

// Role identifies the author of a conversation message.
type Role string

// Conversation roles. Tool results travel on user messages, matching the
// Messages API convention.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation entry. An assistant message may carry tool
// calls alongside its text; a user message may carry tool results instead of
// text. Exactly one of those shapes is populated at a time in practice, but
// the type does not enforce it.
type Message struct {
	Role        Role
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolCall is a model request to invoke a declared tool.
type ToolCall struct {
	// ID is the provider-assigned invocation identifier. The matching
	// ToolResult must carry the same value.
	ID string

	// Name is the declared tool name.
	Name string

	// Arguments holds the decoded argument object. When the provider
	// produced arguments that could not be parsed, Arguments is an empty
	// map, never nil and never a decode failure.
	Arguments map[string]interface{}
}

// ToolResult is the outcome of one tool invocation, delivered back to the
// model on the next turn.
type ToolResult struct {
	// CallID matches the ToolCall.ID this result answers.
	CallID string

	// Content is the serialized result payload, JSON text by convention.
	Content string

	// IsError marks results for invocations that could not be attempted at
	// all. Failures of an attempted lookup are encoded in Content instead so
	// the model can read them.
	IsError bool
}

// Tool declares a tool the model may request during a turn.
type Tool struct {
	Name        string
	Description string
	InputSchema InputSchema
}

// InputSchema is a JSON-Schema-shaped description of a tool's argument
// object.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a single argument in an InputSchema.
type Property struct {
	Type        string        `json:"type"`
	Description string        `json:"description,omitempty"`
	Enum        []interface{} `json:"enum,omitempty"`
}

// StopReason explains why the model ended a turn.
type StopReason string

// Stop reasons the loop branches on. Providers may report others; the loop
// treats anything unrecognized as a failed turn.
const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
	StopRefusal   StopReason = "refusal"
)

// Turn is one complete assistant turn after streaming has finished.
type Turn struct {
	// Text is the concatenated text content of the turn. May be empty on a
	// pure tool-use turn.
	Text string

	// ToolCalls lists the tool invocations the model requested, in the
	// order they appeared in the turn.
	ToolCalls []ToolCall

	// StopReason is the provider's reason for ending the turn.
	StopReason StopReason
}

// TurnRequest is the input for one model turn.
type TurnRequest struct {
	System    string
	Messages  []Message
	Tools     []Tool
	MaxTokens int
}

// StreamFunc receives text deltas as the model produces them. Returning a
// non-nil error aborts the stream and surfaces that error from StreamTurn.
type StreamFunc func(delta string) error

// Client produces model turns. Implementations must deliver text deltas
// through the StreamFunc as they arrive and return the accumulated turn once
// the provider finishes. A nil StreamFunc disables delta delivery without
// changing the returned turn.
type Client interface {
	StreamTurn(ctx context.Context, req TurnRequest, fn StreamFunc) (*Turn, error)
}
