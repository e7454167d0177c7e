package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrivet/wikichat/logx"
	"github.com/localrivet/wikichat/model"
)

// sseHandler replays a scripted event stream and captures the request body.
func sseHandler(t *testing.T, events []string, capture *[]byte) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if capture != nil {
			*capture = body
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, ev := range events {
			_, err := fmt.Fprint(w, ev)
			require.NoError(t, err)
		}
	}
}

func event(name, data string) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", name, data)
}

func textTurnEvents() []string {
	return []string{
		event("message_start", `{"type":"message_start","message":{"id":"msg_01","type":"message","role":"assistant","model":"claude-haiku-4-5-20251001","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":12,"output_tokens":1}}}`),
		event("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`),
		event("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`),
		event("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" world"}}`),
		event("content_block_stop", `{"type":"content_block_stop","index":0}`),
		event("message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":4}}`),
		event("message_stop", `{"type":"message_stop"}`),
	}
}

func toolTurnEvents() []string {
	return []string{
		event("message_start", `{"type":"message_start","message":{"id":"msg_02","type":"message","role":"assistant","model":"claude-haiku-4-5-20251001","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":30,"output_tokens":1}}}`),
		event("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_01","name":"wikipedia_search","input":{}}}`),
		event("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"query\":\"Mount "}}`),
		event("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"Fuji\",\"language\":\"ja\"}"}}`),
		event("content_block_stop", `{"type":"content_block_stop","index":0}`),
		event("message_delta", `{"type":"message_delta","delta":{"stop_reason":"tool_use","stop_sequence":null},"usage":{"output_tokens":18}}`),
		event("message_stop", `{"type":"message_stop"}`),
	}
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(
		WithAPIKey("test-key"),
		WithBaseURL(url),
		WithLogger(logx.NewNoopLogger()),
	)
	require.NoError(t, err)
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New()
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestStreamTurnText(t *testing.T) {
	var captured []byte
	srv := httptest.NewServer(sseHandler(t, textTurnEvents(), &captured))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	var deltas []string
	turn, err := c.StreamTurn(context.Background(), model.TurnRequest{
		System:    "You answer questions.",
		Messages:  []model.Message{{Role: model.RoleUser, Content: "hi"}},
		Tools:     []model.Tool{{Name: "wikipedia_search", Description: "Search Wikipedia."}},
		MaxTokens: 512,
	}, func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello", " world"}, deltas)
	assert.Equal(t, "Hello world", turn.Text)
	assert.Equal(t, model.StopEndTurn, turn.StopReason)
	assert.Empty(t, turn.ToolCalls)

	// The outbound request carries the system prompt, tools, and limits.
	var req map[string]interface{}
	require.NoError(t, json.Unmarshal(captured, &req))
	assert.Equal(t, float64(512), req["max_tokens"])
	assert.Equal(t, "claude-haiku-4-5-20251001", req["model"])
	system := req["system"].([]interface{})
	assert.Equal(t, "You answer questions.", system[0].(map[string]interface{})["text"])
	tools := req["tools"].([]interface{})
	assert.Equal(t, "wikipedia_search", tools[0].(map[string]interface{})["name"])
	msgs := req["messages"].([]interface{})
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]interface{})["role"])
}

func TestStreamTurnToolUse(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, toolTurnEvents(), nil))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	turn, err := c.StreamTurn(context.Background(), model.TurnRequest{
		Messages:  []model.Message{{Role: model.RoleUser, Content: "tallest mountain in Japan?"}},
		MaxTokens: 512,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, model.StopToolUse, turn.StopReason)
	require.Len(t, turn.ToolCalls, 1)
	call := turn.ToolCalls[0]
	assert.Equal(t, "toolu_01", call.ID)
	assert.Equal(t, "wikipedia_search", call.Name)
	assert.Equal(t, "Mount Fuji", call.Arguments["query"])
	assert.Equal(t, "ja", call.Arguments["language"])
}

func TestStreamTurnEmitErrorAborts(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, textTurnEvents(), nil))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	sentinel := errors.New("consumer gone")
	_, err := c.StreamTurn(context.Background(), model.TurnRequest{
		Messages:  []model.Message{{Role: model.RoleUser, Content: "hi"}},
		MaxTokens: 512,
	}, func(string) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}

func TestStreamTurnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	_, err := c.StreamTurn(context.Background(), model.TurnRequest{
		Messages:  []model.Message{{Role: model.RoleUser, Content: "hi"}},
		MaxTokens: 512,
	}, nil)
	assert.Error(t, err)
}

func TestToMessageParamsShapes(t *testing.T) {
	msgs := []model.Message{
		{Role: model.RoleUser, Content: "question"},
		{
			Role:    model.RoleAssistant,
			Content: "let me check",
			ToolCalls: []model.ToolCall{
				{ID: "toolu_01", Name: "wikipedia_search", Arguments: map[string]interface{}{"query": "go"}},
			},
		},
		{
			Role: model.RoleUser,
			ToolResults: []model.ToolResult{
				{CallID: "toolu_01", Content: `{"results":[]}`},
			},
		},
	}

	params := toMessageParams(msgs)
	require.Len(t, params, 3)

	raw, err := json.Marshal(params)
	require.NoError(t, err)
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "user", decoded[0]["role"])
	assert.Equal(t, "assistant", decoded[1]["role"])
	assert.Equal(t, "user", decoded[2]["role"])

	// Assistant content interleaves text then the tool_use block.
	content := decoded[1]["content"].([]interface{})
	require.Len(t, content, 2)
	assert.Equal(t, "text", content[0].(map[string]interface{})["type"])
	toolUse := content[1].(map[string]interface{})
	assert.Equal(t, "tool_use", toolUse["type"])
	assert.Equal(t, "toolu_01", toolUse["id"])

	// Tool results ride on a user message referencing the call ID.
	result := decoded[2]["content"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "tool_result", result["type"])
	assert.Equal(t, "toolu_01", result["tool_use_id"])
}

func TestFromStopReason(t *testing.T) {
	tests := []struct {
		in   anthropic.StopReason
		want model.StopReason
	}{
		{anthropic.StopReasonEndTurn, model.StopEndTurn},
		{anthropic.StopReasonToolUse, model.StopToolUse},
		{anthropic.StopReasonMaxTokens, model.StopMaxTokens},
		{anthropic.StopReasonRefusal, model.StopRefusal},
		{anthropic.StopReason("pause_turn"), model.StopReason("pause_turn")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fromStopReason(tt.in))
	}
}
