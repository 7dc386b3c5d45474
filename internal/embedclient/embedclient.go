// Package embedclient implements E1 (Embedder): an HTTP client for the
// external embedding collaborator, with per-call timeouts, retry-with-
// exponential-backoff on batch failure, and jinaMaxChars truncation (§7).
package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultMaxChars is jinaMaxChars: text longer than this is truncated before
// it is sent for embedding. This is documented, expected behavior, not an
// error condition.
const DefaultMaxChars = 8000

// DefaultTimeout is the per-call HTTP timeout for embedding requests.
const DefaultTimeout = 15 * time.Second

// DefaultMaxRetries is the number of attempts (including the first) made
// before a batch is given up on.
const DefaultMaxRetries = 3

// Mode mirrors query-vs-passage embedding intent, since an asymmetric model
// may embed search queries and indexed content differently.
type Mode string

const (
	ModeQuery   Mode = "query"
	ModePassage Mode = "passage"
)

// Client is the Embedder (E1) HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxChars   int
	maxRetries int
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-call HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMaxChars overrides jinaMaxChars.
func WithMaxChars(n int) Option {
	return func(c *Client) { c.maxChars = n }
}

// WithMaxRetries overrides the retry budget.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// New creates an Embedder client against baseURL (e.g. "http://127.0.0.1:8121").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxChars:   DefaultMaxChars,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dimensions returns the dimensionality of vectors this client's backing
// model produces.
func (c *Client) Dimensions() int {
	return 384
}

type embedRequest struct {
	Texts []string `json:"texts"`
	Mode  Mode     `json:"mode"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed embeds a single string, truncating it to maxChars first.
func (c *Client) Embed(ctx context.Context, text string, mode Mode) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text}, mode)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}
	return vectors[0], nil
}

// EmbedBatch embeds a batch of strings, retrying the whole batch up to
// maxRetries times with exponential backoff on failure. Each text is
// truncated to maxChars before being sent.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	truncated := make([]string, len(texts))
	for i, t := range texts {
		truncated[i] = truncate(t, c.maxChars)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff(attempt)):
			}
		}

		vectors, err := c.doEmbed(ctx, truncated, mode)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("EmbedderFailed: %w", lastErr)
}

func (c *Client) doEmbed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Texts: texts, Mode: mode})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed server returned status %d", resp.StatusCode)
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	return decoded.Embeddings, nil
}

func truncate(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars]
}

func backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * 200 * time.Millisecond
}
