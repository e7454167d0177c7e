// Package client is a programmatic consumer of the chat API: it posts a
// question, parses the SSE answer stream, and hands each event to the
// caller.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/localrivet/wikichat/agent"
	"github.com/localrivet/wikichat/logx"
	"github.com/localrivet/wikichat/types"
)

// APIError is a non-200 response from the server, carrying its error
// message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: server returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to a wikichat server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	backoff    BackoffStrategy
	logger     types.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. The default has no timeout, since
// answer streams are long-lived.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithToken attaches a bearer token to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger for the client.
func WithLogger(l types.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBackoff replaces the connect retry strategy.
func WithBackoff(b BackoffStrategy) Option {
	return func(c *Client) {
		if b != nil {
			c.backoff = b
		}
	}
}

// New creates a Client for the server at baseURL (e.g.
// "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		backoff:    NewExponentialBackoff(500*time.Millisecond, 10*time.Second, 3),
		logger:     logx.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat asks one question and invokes fn for every stream event until the
// terminal event, which ends the call with a nil error. Connection failures
// and 5xx responses are retried with backoff, but only while nothing has
// streamed yet; 4xx responses return an *APIError immediately.
func (c *Client) Chat(ctx context.Context, message string, fn func(agent.Event) error) error {
	payload, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return fmt.Errorf("client: encoding request: %w", err)
	}

	attempt := 0
	for {
		streamed, err := c.stream(ctx, payload, fn)
		if err == nil {
			return nil
		}
		if streamed || !retriable(err) || ctx.Err() != nil {
			return err
		}

		attempt++
		if attempt >= c.backoff.MaxAttempts() {
			return fmt.Errorf("client: giving up after %d attempts: %w", attempt, err)
		}
		delay := c.backoff.NextDelay(attempt)
		c.logger.Debug("chat attempt %d failed (%v), retrying in %s", attempt, err, delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Ask asks one question and returns the assembled answer text. An error
// event in the stream becomes the returned error.
func (c *Client) Ask(ctx context.Context, message string) (string, error) {
	var sb strings.Builder
	var failure string

	err := c.Chat(ctx, message, func(ev agent.Event) error {
		switch ev.Type {
		case agent.EventDelta:
			sb.WriteString(ev.Content)
		case agent.EventError:
			failure = ev.Content
			if failure == "" {
				failure = "the answer stream reported an error"
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if failure != "" {
		return "", fmt.Errorf("client: answer failed: %s", failure)
	}
	return sb.String(), nil
}

// retriable reports whether a fresh connection attempt could help: transport
// errors and server-side 5xx qualify, client-side rejections do not.
func retriable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return true
}

// stream performs one POST and consumes its SSE body. streamed reports
// whether any event reached fn, which disqualifies the call from retrying.
func (c *Client) stream(ctx context.Context, payload []byte, fn func(agent.Event) error) (streamed bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("client: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("client: connecting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, newAPIError(resp)
	}

	reader := bufio.NewReader(resp.Body)
	for {
		ev, err := readEvent(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return streamed, fmt.Errorf("client: stream ended without a terminal event")
			}
			return streamed, fmt.Errorf("client: reading stream: %w", err)
		}

		streamed = true
		if err := fn(*ev); err != nil {
			return streamed, err
		}
		if ev.Type == agent.EventDone || ev.Type == agent.EventError {
			return streamed, nil
		}
	}
}

// newAPIError builds an APIError from a non-200 response, decoding the
// {"error": ...} body when present.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if err == nil {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// readEvent reads one SSE frame: data lines accumulated until a blank line,
// comments and unknown fields skipped. The data payload is decoded as an
// agent.Event.
func readEvent(reader *bufio.Reader) (*agent.Event, error) {
	var data bytes.Buffer

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil, err
		}
		line = bytes.TrimSuffix(line, []byte("\n"))
		line = bytes.TrimSuffix(line, []byte("\r"))

		// Blank line ends a frame.
		if len(line) == 0 {
			if data.Len() == 0 {
				continue
			}
			var ev agent.Event
			if err := json.Unmarshal(data.Bytes(), &ev); err != nil {
				return nil, fmt.Errorf("decoding event %q: %w", data.String(), err)
			}
			return &ev, nil
		}

		switch {
		case bytes.HasPrefix(line, []byte("data:")):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.Write(bytes.TrimSpace(bytes.TrimPrefix(line, []byte("data:"))))
		case bytes.HasPrefix(line, []byte(":")):
			// Comment line, ignore.
		}
	}
}
