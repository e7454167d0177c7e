package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/localrivet/wikichat/model"
	"github.com/localrivet/wikichat/util/schema"
	"github.com/localrivet/wikichat/wikipedia"
)

// SearchToolName is the tool name declared to the model.
const SearchToolName = "wikipedia_search"

// SearchArgs is the argument object of the wikipedia_search tool. Its schema
// is generated from the struct tags.
type SearchArgs struct {
	Query    string  `json:"query" description:"The search query to look up on Wikipedia."`
	Language *string `json:"language" description:"Wikipedia language edition code (e.g. 'en' for English, 'ja' for Japanese, 'ta' for Tamil, 'zh' for Chinese, 'es' for Spanish, 'hi' for Hindi, 'ms' for Malay). Defaults to 'en'."`
}

// SearchTool returns the wikipedia_search tool declaration.
func SearchTool() model.Tool {
	return model.Tool{
		Name:        SearchToolName,
		Description: "Search Wikipedia for information on a topic. Returns article titles, URLs, snippets, and introductory extracts for the top results. Supports searching different language editions of Wikipedia.",
		InputSchema: schema.FromStruct(SearchArgs{}),
	}
}

// Searcher runs Wikipedia lookups for the loop. *wikipedia.Client satisfies
// it; tests substitute fakes.
type Searcher interface {
	Search(ctx context.Context, query, language string) ([]wikipedia.Article, error)
}

// searchPayload is the JSON document delivered to the model as a tool
// result. Results is always present: an empty list means the search ran and
// found nothing, while Error marks a lookup that could not be completed.
type searchPayload struct {
	Error   string              `json:"error,omitempty"`
	Results []wikipedia.Article `json:"results"`
}

// Fixed payload messages the model reads.
const (
	searchFailedPayload = "Wikipedia search failed. Please try again."
	badArgumentsPayload = "The search query was missing or invalid."
	unknownToolPayload  = "Unknown tool."
)

func encodePayload(p searchPayload) string {
	if p.Results == nil {
		p.Results = []wikipedia.Article{}
	}
	raw, err := json.Marshal(p)
	if err != nil {
		// Payload fields are plain strings; this cannot happen in practice.
		return `{"error":"internal encoding failure","results":[]}`
	}
	return string(raw)
}

// executeToolCall runs one requested tool invocation and produces its result
// message content. Lookup failures are encoded into the payload so the model
// can react; only invocations that could not be attempted at all are flagged
// IsError.
func (a *Agent) executeToolCall(ctx context.Context, call model.ToolCall) model.ToolResult {
	if call.Name != SearchToolName {
		a.logger.Warn("tool call %s requested undeclared tool %q", call.ID, call.Name)
		return model.ToolResult{
			CallID:  call.ID,
			Content: encodePayload(searchPayload{Error: unknownToolPayload}),
			IsError: true,
		}
	}

	args, err := schema.DecodeArgs[SearchArgs](call.Arguments)
	if err != nil || strings.TrimSpace(args.Query) == "" {
		a.logger.Warn("tool call %s carried unusable arguments: %v", call.ID, err)
		return model.ToolResult{
			CallID:  call.ID,
			Content: encodePayload(searchPayload{Error: badArgumentsPayload}),
			IsError: true,
		}
	}

	language := ""
	if args.Language != nil {
		language = *args.Language
	}

	articles, err := a.searcher.Search(ctx, args.Query, language)
	if err != nil {
		a.logger.Error("wikipedia search for tool call %s failed: %v", call.ID, err)
		return model.ToolResult{
			CallID:  call.ID,
			Content: encodePayload(searchPayload{Error: searchFailedPayload}),
		}
	}
	return model.ToolResult{
		CallID:  call.ID,
		Content: encodePayload(searchPayload{Results: articles}),
	}
}
