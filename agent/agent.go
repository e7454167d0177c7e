package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/localrivet/wikichat/logx"
	"github.com/localrivet/wikichat/model"
	"github.com/localrivet/wikichat/types"
)

// Defaults for the loop limits.
const (
	DefaultMaxToolCalls = 5
	DefaultMaxTokens    = 4096
)

// Sentinel errors callers branch on.
var (
	// ErrEmptyQuestion is returned by Answer when the question is empty
	// after trimming. Nothing is emitted.
	ErrEmptyQuestion = errors.New("agent: question must not be empty")

	// ErrToolBudgetExceeded is returned when the model requested more tool
	// invocations than the ceiling permits. The fixed budget message has
	// been emitted as the terminal error event.
	ErrToolBudgetExceeded = errors.New("agent: tool invocation budget exceeded")
)

// Agent owns the tool-use loop: it calls the model with the conversation and
// the search tool declaration, executes requested lookups one at a time, and
// streams model text to the consumer. An Agent is stateless across questions
// and safe for concurrent use; every Answer call runs on its own
// conversation.
type Agent struct {
	model        model.Client
	searcher     Searcher
	tools        []model.Tool
	systemPrompt string
	maxToolCalls int
	maxTokens    int
	logger       types.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithSystemPrompt replaces the built-in system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		if prompt != "" {
			a.systemPrompt = prompt
		}
	}
}

// WithMaxToolCalls sets the ceiling on executed tool invocations per
// conversation.
func WithMaxToolCalls(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxToolCalls = n
		}
	}
}

// WithMaxTokens sets the per-turn output token limit requested from the
// model.
func WithMaxTokens(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// WithLogger sets the logger for the agent.
func WithLogger(l types.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Agent around a model client and a searcher.
func New(mc model.Client, searcher Searcher, opts ...Option) *Agent {
	a := &Agent{
		model:        mc,
		searcher:     searcher,
		tools:        []model.Tool{SearchTool()},
		systemPrompt: DefaultSystemPrompt,
		maxToolCalls: DefaultMaxToolCalls,
		maxTokens:    DefaultMaxTokens,
		logger:       logx.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnswerOptions collects the per-call settings of one Answer invocation. The
// fields are exported so transports and test doubles can resolve the options
// they are handed.
type AnswerOptions struct {
	// ConversationID correlates log lines; a UUID is assigned when empty.
	ConversationID string
	// Emit receives the stream events. Nil discards them.
	Emit EmitFunc
}

// AnswerOption configures a single Answer call.
type AnswerOption func(*AnswerOptions)

// WithConversationID attaches a caller-chosen conversation identifier, used
// for log correlation. When absent a UUID is assigned.
func WithConversationID(id string) AnswerOption {
	return func(o *AnswerOptions) { o.ConversationID = id }
}

// WithEmit sets the event callback for this answer. Without one the answer
// still runs; its events are discarded.
func WithEmit(fn EmitFunc) AnswerOption {
	return func(o *AnswerOptions) { o.Emit = fn }
}

// Answer runs one tool-use loop for the question, delivering stream events
// through the emit callback. Exactly one terminal event (done or error) ends
// every emitted stream, except when the callback itself reports the consumer
// gone, in which case nothing more is emitted and the callback's error is
// returned.
func (a *Agent) Answer(ctx context.Context, question string, opts ...AnswerOption) error {
	var o AnswerOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.Emit == nil {
		o.Emit = func(Event) error { return nil }
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return ErrEmptyQuestion
	}

	conv := NewConversation(o.ConversationID)
	if err := conv.Append(model.Message{Role: model.RoleUser, Content: question}); err != nil {
		return err
	}

	a.logger.Info("conversation %s: answering question (%d chars)", conv.ID(), len(question))
	return a.run(ctx, conv, o.Emit)
}

// run drives the loop until a terminal state: model finished, budget
// exceeded, model call failed, or consumer gone.
func (a *Agent) run(ctx context.Context, conv *Conversation, emit EmitFunc) error {
	invocations := 0

	for {
		var emitFailed error
		stream := func(delta string) error {
			if err := emit(Event{Type: EventDelta, Content: delta}); err != nil {
				emitFailed = err
				return err
			}
			return nil
		}

		turn, err := a.model.StreamTurn(ctx, model.TurnRequest{
			System:    a.systemPrompt,
			Messages:  conv.Snapshot(),
			Tools:     a.tools,
			MaxTokens: a.maxTokens,
		}, stream)
		if err != nil {
			if emitFailed != nil {
				a.logger.Info("conversation %s: consumer went away mid-stream", conv.ID())
				return emitFailed
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				a.logger.Info("conversation %s: canceled: %v", conv.ID(), err)
				return err
			}
			a.logger.Error("conversation %s: model turn failed: %v", conv.ID(), err)
			a.emitError(conv, emit, GenericFailureMessage)
			return fmt.Errorf("agent: model turn: %w", err)
		}

		switch {
		case turn.StopReason == model.StopToolUse && len(turn.ToolCalls) > 0:
			if err := a.runToolTurn(ctx, conv, turn, emit, &invocations); err != nil {
				return err
			}

		case turn.StopReason == model.StopEndTurn:
			if err := emit(Event{Type: EventDone}); err != nil {
				return err
			}
			a.logger.Info("conversation %s: finished after %d tool calls", conv.ID(), invocations)
			return nil

		case turn.StopReason == model.StopMaxTokens:
			if err := emit(Event{Type: EventDelta, Content: TruncationNotice}); err != nil {
				return err
			}
			if err := emit(Event{Type: EventDone}); err != nil {
				return err
			}
			a.logger.Warn("conversation %s: answer truncated at the token limit", conv.ID())
			return nil

		default:
			a.logger.Error("conversation %s: unexpected stop reason %q", conv.ID(), turn.StopReason)
			a.emitError(conv, emit, GenericFailureMessage)
			return fmt.Errorf("agent: unexpected stop reason %q", turn.StopReason)
		}
	}
}

// runToolTurn records the assistant turn, executes its requested invocations
// in order against the budget, and appends their results as one user
// message. A nil return means the loop should run another model turn.
func (a *Agent) runToolTurn(ctx context.Context, conv *Conversation, turn *model.Turn, emit EmitFunc, invocations *int) error {
	if err := conv.Append(model.Message{
		Role:      model.RoleAssistant,
		Content:   turn.Text,
		ToolCalls: turn.ToolCalls,
	}); err != nil {
		a.emitError(conv, emit, GenericFailureMessage)
		return fmt.Errorf("agent: recording assistant turn: %w", err)
	}

	results := make([]model.ToolResult, 0, len(turn.ToolCalls))
	for _, call := range turn.ToolCalls {
		if *invocations >= a.maxToolCalls {
			a.logger.Warn("conversation %s: tool budget of %d exhausted", conv.ID(), a.maxToolCalls)
			a.emitError(conv, emit, BudgetExceededMessage)
			return ErrToolBudgetExceeded
		}
		*invocations++
		a.logger.Info("conversation %s: tool call %d/%d: %s", conv.ID(), *invocations, a.maxToolCalls, call.Name)
		results = append(results, a.executeToolCall(ctx, call))
	}

	if err := conv.Append(model.Message{Role: model.RoleUser, ToolResults: results}); err != nil {
		a.emitError(conv, emit, GenericFailureMessage)
		return fmt.Errorf("agent: recording tool results: %w", err)
	}
	return nil
}

// emitError delivers a terminal error event, best effort. The primary error
// is what the caller returns; a consumer that vanished at the same moment is
// only worth a debug line.
func (a *Agent) emitError(conv *Conversation, emit EmitFunc, message string) {
	if err := emit(Event{Type: EventError, Content: message}); err != nil {
		a.logger.Debug("conversation %s: could not deliver error event: %v", conv.ID(), err)
	}
}
