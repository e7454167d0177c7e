// Package wikipedia provides a search client for the MediaWiki API across
// Wikipedia language editions. A search runs in two steps: a ranked title
// discovery query, then a single batched introductory-extract fetch for all
// discovered titles.
package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/localrivet/wikichat/logx"
	"github.com/localrivet/wikichat/types"
)

const (
	// apiURLTemplate is the MediaWiki API endpoint, parameterized by
	// language edition subdomain.
	apiURLTemplate = "https://%s.wikipedia.org/w/api.php"

	// articleURLTemplate is the canonical article URL, parameterized by
	// language and escaped title.
	articleURLTemplate = "https://%s.wikipedia.org/wiki/%s"

	// DefaultLimit is the number of ranked titles fetched per search.
	DefaultLimit = 3

	// DefaultUserAgent identifies the client to Wikimedia, per their
	// User-Agent policy.
	DefaultUserAgent = "wikichat/0.1 (https://github.com/localrivet/wikichat)"

	defaultTimeout       = 10 * time.Second
	defaultRatePerSecond = 5
	defaultRateBurst     = 5
)

// ErrEmptyQuery is returned by Search when the query is empty after trimming.
var ErrEmptyQuery = errors.New("wikipedia: query must not be empty")

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Article is one search result: a ranked title with its URL, the
// HTML-stripped search snippet, and the introductory extract when available.
type Article struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Extract string `json:"extract"`
}

// Client queries the MediaWiki API. It is safe for concurrent use.
type Client struct {
	httpClient      *http.Client
	userAgent       string
	limit           int
	limiter         *rate.Limiter
	defaultLanguage string
	endpoint        string // overrides the per-language endpoint when set
	logger          types.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLimit sets how many ranked titles a search returns.
func WithLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithRateLimit sets the client-side request rate limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithDefaultLanguage sets the language edition used when a search does not
// name one.
func WithDefaultLanguage(code string) Option {
	return func(c *Client) {
		if lang := NormalizeLanguage(code); lang != "" {
			c.defaultLanguage = lang
		}
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithEndpoint overrides the API endpoint for every language edition.
// Used in tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithLogger sets the logger for the client.
func WithLogger(l types.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Wikipedia search client with sensible defaults: three
// results per search, a 10 second timeout, and a polite request rate.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:      &http.Client{Timeout: defaultTimeout},
		userAgent:       DefaultUserAgent,
		limit:           DefaultLimit,
		limiter:         rate.NewLimiter(rate.Limit(defaultRatePerSecond), defaultRateBurst),
		defaultLanguage: "en",
		logger:          logx.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeLanguage reduces a language edition code to lowercase letters,
// at most three of them. Anything that leaves nothing behind becomes "en".
func NormalizeLanguage(code string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(code)) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
			if b.Len() == 3 {
				break
			}
		}
	}
	if b.Len() == 0 {
		return "en"
	}
	return b.String()
}

// ArticleURL returns the canonical URL for an article title in the given
// language edition. Spaces become underscores, then the title is escaped.
func ArticleURL(language, title string) string {
	escaped := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	return fmt.Sprintf(articleURLTemplate, NormalizeLanguage(language), escaped)
}

// Search looks up the query in the given language edition and returns ranked
// articles with snippets and introductory extracts. An empty result slice
// with a nil error means the search ran and found nothing; a non-nil error
// means the lookup itself failed.
func (c *Client) Search(ctx context.Context, query, language string) ([]Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	lang := c.language(language)

	hits, err := c.discover(ctx, lang, query)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		c.logger.Debug("wikipedia search for %q (%s) found nothing", query, lang)
		return []Article{}, nil
	}

	titles := make([]string, len(hits))
	for i, h := range hits {
		titles[i] = h.Title
	}
	extracts, err := c.fetchExtracts(ctx, lang, titles)
	if err != nil {
		return nil, err
	}

	articles := make([]Article, len(hits))
	for i, h := range hits {
		articles[i] = Article{
			Title:   h.Title,
			URL:     ArticleURL(lang, h.Title),
			Snippet: tagPattern.ReplaceAllString(h.Snippet, ""),
			Extract: extracts[h.Title],
		}
	}
	c.logger.Debug("wikipedia search for %q (%s) returned %d articles", query, lang, len(articles))
	return articles, nil
}

func (c *Client) language(code string) string {
	if strings.TrimSpace(code) == "" {
		return c.defaultLanguage
	}
	return NormalizeLanguage(code)
}

type searchHit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type searchResponse struct {
	Query struct {
		Search []searchHit `json:"search"`
	} `json:"query"`
	Error *apiError `json:"error"`
}

type extractResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
	Error *apiError `json:"error"`
}

// discover runs the ranked title search.
func (c *Client) discover(ctx context.Context, lang, query string) ([]searchHit, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {strconv.Itoa(c.limit)},
		"format":   {"json"},
	}
	var out searchResponse
	if err := c.get(ctx, lang, params, &out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, fmt.Errorf("wikipedia: search rejected: %s (%s)", out.Error.Info, out.Error.Code)
	}
	return out.Query.Search, nil
}

// fetchExtracts fetches introductory extracts for all titles in one batched
// request. Titles missing from the response simply have no extract.
func (c *Client) fetchExtracts(ctx context.Context, lang string, titles []string) (map[string]string, error) {
	params := url.Values{
		"action":      {"query"},
		"titles":      {strings.Join(titles, "|")},
		"prop":        {"extracts"},
		"exintro":     {"1"},
		"explaintext": {"1"},
		"format":      {"json"},
	}
	var out extractResponse
	if err := c.get(ctx, lang, params, &out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, fmt.Errorf("wikipedia: extract fetch rejected: %s (%s)", out.Error.Info, out.Error.Code)
	}
	extracts := make(map[string]string, len(out.Query.Pages))
	for _, page := range out.Query.Pages {
		extracts[page.Title] = page.Extract
	}
	return extracts, nil
}

func (c *Client) get(ctx context.Context, lang string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wikipedia: waiting for rate limiter: %w", err)
	}

	endpoint := c.endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf(apiURLTemplate, lang)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("wikipedia: building request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wikipedia: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wikipedia: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("wikipedia: decoding response: %w", err)
	}
	return nil
}
