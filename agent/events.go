// Package agent implements the bounded tool-use loop that answers questions
// by letting a model drive Wikipedia lookups, streaming its output as it is
// produced.
package agent

// EventType discriminates stream events delivered to the consumer.
type EventType string

// Stream event types. Every answer stream carries zero or more deltas
// followed by exactly one terminal event, either done or error.
const (
	EventDelta EventType = "delta"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// Event is one unit of the answer stream. The JSON encoding is the wire
// format used by both the SSE and WebSocket transports.
type Event struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
}

// EmitFunc delivers one stream event to the consumer. Returning a non-nil
// error tells the loop the consumer is gone; the loop abandons all further
// model and tool turns and emits nothing else.
type EmitFunc func(Event) error

// User-visible fixed messages and notices.
const (
	// BudgetExceededMessage terminates a conversation that requested more
	// lookups than the ceiling permits.
	BudgetExceededMessage = "This question needed more Wikipedia lookups than allowed. Please try a simpler question."

	// GenericFailureMessage covers model failures the user cannot act on.
	GenericFailureMessage = "Something went wrong. Please try again."

	// TruncationNotice is appended when the model ran out of output tokens.
	TruncationNotice = "\n\n*(Response truncated due to length)*"
)
