package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"geotale/pkg/tracker"
)

// maxSnippet caps how much of an upstream error body is logged or carried
// in an error.
const maxSnippet = 1536

// Cooldown bounds after consecutive failures of one provider.
const (
	baseCooldown = 250 * time.Millisecond
	maxCooldown  = 10 * time.Second
)

// StatusError is returned for non-2xx upstream responses. Code preserves
// the upstream status so terminal failures can surface it to the caller.
type StatusError struct {
	Provider string
	Code     int
	Snippet  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Code, e.Snippet)
}

// Client handles outbound HTTP with per-provider queuing, per-call
// timeouts, backoff and tracking. External providers are stateless; all
// shared state lives here.
type Client struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	tracker    *tracker.Tracker

	queues map[string]chan job
	mu     sync.Mutex // protects queues map
}

type job struct {
	req      *http.Request
	headers  map[string]string
	respChan chan jobResult
}

type jobResult struct {
	body []byte
	err  error
}

// New creates a Client. timeout bounds each individual call; callers may
// pass a shorter deadline through ctx.
func New(timeout time.Duration, userAgent string, t *tracker.Tracker) *Client {
	if timeout <= 0 {
		timeout = 6500 * time.Millisecond
	}
	return &Client{
		// The transport-level timeout is a safety net; the real bound is
		// the per-call context below.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		userAgent:  userAgent,
		timeout:    timeout,
		tracker:    t,
		queues:     make(map[string]chan job),
	}
}

// Get performs a GET request with the default per-call timeout.
func (c *Client) Get(ctx context.Context, u string, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, u, nil, headers)
}

// Post performs a POST request with the default per-call timeout.
func (c *Client) Post(ctx context.Context, u string, body []byte, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodPost, u, body, headers)
}

func (c *Client) do(ctx context.Context, method, u string, body []byte, headers map[string]string) ([]byte, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	provider := normalizeProvider(parsed.Host)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(callCtx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	respChan := make(chan jobResult, 1)
	c.dispatch(provider, job{req: req, headers: headers, respChan: respChan})

	select {
	case <-callCtx.Done():
		return nil, callCtx.Err()
	case res := <-respChan:
		return res.body, res.err
	}
}

// dispatch sends the job to the provider's queue, creating the worker on
// first use. A full queue throttles the caller.
func (c *Client) dispatch(provider string, j job) {
	c.mu.Lock()
	q, ok := c.queues[provider]
	if !ok {
		q = make(chan job, 100)
		c.queues[provider] = q
		go c.worker(provider, q)
	}
	c.mu.Unlock()

	select {
	case q <- j:
	case <-j.req.Context().Done():
		j.respChan <- jobResult{err: j.req.Context().Err()}
	}
}

// worker processes requests for one provider sequentially. After a failure
// it pauses before the next call; the pause doubles with every consecutive
// failure and eases off again as calls succeed. The worker owns its
// cooldown state, so no locking is needed.
func (c *Client) worker(provider string, q <-chan job) {
	failures := 0
	var coolUntil time.Time

	for j := range q {
		if err := j.req.Context().Err(); err != nil {
			j.respChan <- jobResult{err: err}
			continue
		}

		uaSet := false
		for k, v := range j.headers {
			j.req.Header.Set(k, v)
			if http.CanonicalHeaderKey(k) == "User-Agent" {
				uaSet = true
			}
		}
		if !uaSet {
			j.req.Header.Set("User-Agent", c.userAgent)
		}

		if wait := time.Until(coolUntil); wait > 0 {
			time.Sleep(wait)
		}

		body, err := c.execute(provider, j.req)
		if err == nil {
			c.tracker.TrackAPISuccess(provider)
			if failures > 0 {
				failures--
			}
			if failures == 0 {
				coolUntil = time.Time{}
			}
		} else {
			c.tracker.TrackAPIFailure(provider)
			failures++
			coolUntil = time.Now().Add(cooldownAfter(failures))
		}

		j.respChan <- jobResult{body: body, err: err}
	}
}

// cooldownAfter doubles the pause per consecutive failure, capped at
// maxCooldown, with up to 10% jitter so recovering workers spread out.
func cooldownAfter(failures int) time.Duration {
	d := baseCooldown
	for i := 1; i < failures && d < maxCooldown; i++ {
		d *= 2
	}
	if d > maxCooldown {
		d = maxCooldown
	}
	return d + time.Duration(rand.Float64()*0.1*float64(d))
}

func (c *Client) execute(provider string, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxSnippet {
			snippet = snippet[:maxSnippet]
		}
		slog.Warn("Upstream error", "provider", provider, "status", resp.StatusCode, "body", snippet)
		return nil, &StatusError{Provider: provider, Code: resp.StatusCode, Snippet: snippet}
	}

	return body, nil
}

func normalizeProvider(host string) string {
	switch {
	case strings.HasSuffix(host, "wikidata.org"):
		return "wikidata"
	case strings.HasSuffix(host, "wikipedia.org"):
		return "wikipedia"
	case strings.HasSuffix(host, "googleapis.com"):
		return "google"
	case strings.Contains(host, "overpass"):
		return "overpass"
	case strings.HasSuffix(host, "openai.com"):
		return "openai"
	default:
		return host
	}
}
