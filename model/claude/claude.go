// Package claude implements the model.Client interface against the Anthropic
// Messages API using the official Go SDK.
package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/localrivet/wikichat/logx"
	"github.com/localrivet/wikichat/model"
	"github.com/localrivet/wikichat/types"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "claude-haiku-4-5-20251001"

// ErrMissingAPIKey is returned by New when no API key was provided.
var ErrMissingAPIKey = errors.New("claude: API key is required")

// Client talks to the Anthropic Messages API. It is safe for concurrent use.
type Client struct {
	api    anthropic.Client
	model  anthropic.Model
	logger types.Logger
}

// Option configures a Client.
type Option func(*options)

type options struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     types.Logger
}

// WithAPIKey sets the Anthropic API key. Required.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithModel overrides the default model name.
func WithModel(name string) Option {
	return func(o *options) {
		if name != "" {
			o.model = name
		}
	}
}

// WithBaseURL overrides the API base URL. Used for proxies and tests.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLogger sets the logger for the client.
func WithLogger(l types.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates a Client for the Anthropic Messages API.
func New(opts ...Option) (*Client, error) {
	o := options{
		model:  DefaultModel,
		logger: logx.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(o.apiKey)}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}

	return &Client{
		api:    anthropic.NewClient(reqOpts...),
		model:  anthropic.Model(o.model),
		logger: o.logger,
	}, nil
}

// StreamTurn runs one streamed model turn. Text deltas are forwarded through
// fn as they arrive; the accumulated turn is returned once the provider
// finishes. An error returned by fn aborts the stream and is returned
// unwrapped so the caller can recognize it.
func (c *Client) StreamTurn(ctx context.Context, req model.TurnRequest, fn model.StreamFunc) (*model.Turn, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(req.MaxTokens),
		Messages:  toMessageParams(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = toToolParams(req.Tools)
	}

	stream := c.api.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	var acc anthropic.Message
	for stream.Next() {
		event := stream.Current()
		if err := acc.Accumulate(event); err != nil {
			return nil, fmt.Errorf("claude: accumulating stream event: %w", err)
		}
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if fn != nil && delta.Text != "" {
					if err := fn(delta.Text); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("claude: streaming turn: %w", err)
	}

	return c.turnFromMessage(acc), nil
}

// turnFromMessage converts an accumulated API message into a model.Turn.
func (c *Client) turnFromMessage(msg anthropic.Message) *model.Turn {
	turn := &model.Turn{StopReason: fromStopReason(msg.StopReason)}
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			turn.Text += b.Text
		case anthropic.ToolUseBlock:
			args := make(map[string]interface{})
			if raw := b.JSON.Input.Raw(); raw != "" && raw != "null" {
				if err := json.Unmarshal([]byte(raw), &args); err != nil {
					c.logger.Warn("tool call %s carried unparsable arguments: %v", b.ID, err)
					args = make(map[string]interface{})
				}
			}
			turn.ToolCalls = append(turn.ToolCalls, model.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: args,
			})
		}
	}
	return turn
}

// toMessageParams converts conversation messages into API message params.
// Tool results ride on user messages; assistant messages carry their text
// and any tool_use blocks in request order.
func toMessageParams(msgs []model.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		var blocks []anthropic.ContentBlockParamUnion
		if len(m.ToolResults) > 0 {
			for _, tr := range m.ToolResults {
				blocks = append(blocks, anthropic.NewToolResultBlock(tr.CallID, tr.Content, tr.IsError))
			}
		} else {
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    tc.ID,
						Name:  tc.Name,
						Input: tc.Arguments,
					},
				})
			}
		}
		if m.Role == model.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

// toToolParams converts tool declarations into API tool params.
func toToolParams(tools []model.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]interface{}, len(t.InputSchema.Properties))
		for name, p := range t.InputSchema.Properties {
			props[name] = p
		}
		tool := anthropic.ToolParam{
			Name: t.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: props,
				Required:   t.InputSchema.Required,
			},
		}
		if t.Description != "" {
			tool.Description = anthropic.String(t.Description)
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return out
}

// fromStopReason maps the provider stop reason onto the loop's taxonomy.
// Values the loop does not branch on pass through as-is.
func fromStopReason(r anthropic.StopReason) model.StopReason {
	switch r {
	case anthropic.StopReasonEndTurn:
		return model.StopEndTurn
	case anthropic.StopReasonToolUse:
		return model.StopToolUse
	case anthropic.StopReasonMaxTokens:
		return model.StopMaxTokens
	case anthropic.StopReasonRefusal:
		return model.StopRefusal
	default:
		return model.StopReason(r)
	}
}

var _ model.Client = (*Client)(nil)
