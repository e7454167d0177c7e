// Package wikichat provides a Wikipedia-grounded question answering service
// driven by a bounded tool-use loop against the Anthropic Messages API.
//
// # Overview
//
// wikichat answers free-text questions by letting a large language model drive
// a small number of live Wikipedia lookups. Each question runs one loop: the
// model is called with the conversation so far and a single declared search
// tool; when the model requests a lookup, the search runs and its outcome is
// appended to the conversation as a tool result, and the model is called
// again. The loop ends when the model finishes with text, when an error
// occurs, or when the tool-invocation budget is exhausted. All model output
// is streamed to the caller as it is generated.
//
// # Core Features
//
// - Bounded tool-use loop with a hard ceiling on executed lookups
// - Streaming responses end-to-end (model deltas through to SSE/WebSocket)
// - Two-step Wikipedia search: ranked title discovery, then one batched
//   extract fetch, against any language edition
// - Client-side rate limiting and polite User-Agent handling for Wikipedia
// - Optional bearer-token authentication (static tokens or JWKS)
// - A Go client for the streaming chat endpoint
//
// # Organization
//
// The library is organized into the following main packages:
//
//   - github.com/localrivet/wikichat/agent: the tool-use loop and conversation session
//   - github.com/localrivet/wikichat/wikipedia: the Wikipedia search client
//   - github.com/localrivet/wikichat/model: provider-neutral completion types
//   - github.com/localrivet/wikichat/model/claude: Anthropic implementation
//   - github.com/localrivet/wikichat/server: HTTP surface (SSE and WebSocket chat)
//   - github.com/localrivet/wikichat/client: Go client for the chat endpoint
//   - github.com/localrivet/wikichat/config: file/env configuration
//
// # Basic Usage
//
// ## Answering a question programmatically
//
//	import (
//	  "github.com/localrivet/wikichat/agent"
//	  "github.com/localrivet/wikichat/model/claude"
//	  "github.com/localrivet/wikichat/wikipedia"
//	)
//
//	llm, err := claude.New(claude.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")))
//	if err != nil {
//	  log.Fatalf("failed to create model client: %v", err)
//	}
//	a := agent.New(llm, wikipedia.NewClient())
//	err = a.Answer(ctx, "Who designed the Eiffel Tower?", agent.WithEmit(
//	  func(ev agent.Event) error {
//	    if ev.Type == agent.EventDelta {
//	      fmt.Print(ev.Content)
//	    }
//	    return nil
//	  },
//	))
//
// ## Running the server
//
//	import "github.com/localrivet/wikichat/server"
//
//	srv := server.New(a)
//	if err := http.ListenAndServe(":8080", srv.Handler()); err != nil {
//	  log.Fatalf("server exited: %v", err)
//	}
//
// ## Consuming the stream from Go
//
//	import "github.com/localrivet/wikichat/client"
//
//	c := client.New("http://localhost:8080")
//	answer, err := c.Ask(ctx, "What is the tallest mountain in Japan?")
//
// # Versioning
//
// wikichat follows semantic versioning. The current version is available
// through the Version constant.
package wikichat

// Version is the current version of the wikichat library
const Version = "0.1.0"
