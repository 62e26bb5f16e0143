package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"geotale/pkg/model"
	"geotale/pkg/request"
)

// maxExtractLen truncates very long articles before sentence mining.
const maxExtractLen = 12000

// Client fetches plain-text article extracts from a Wikipedia instance.
type Client struct {
	request *request.Client

	// BaseURLFormat takes the language subdomain. Overridable for tests.
	BaseURLFormat string
}

// NewClient creates a new Wikipedia client.
func NewClient(r *request.Client) *Client {
	return &Client{
		request:       r,
		BaseURLFormat: "https://%s.wikipedia.org/w/api.php",
	}
}

// Extract fetches the plain-text body of an article, following
// redirects. Returns "" without error when the page does not exist.
func (c *Client) Extract(ctx context.Context, ref model.EncyclopediaRef) (string, error) {
	u, err := url.Parse(fmt.Sprintf(c.BaseURLFormat, ref.Lang))
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Add("action", "query")
	q.Add("prop", "extracts")
	q.Add("explaintext", "1")
	q.Add("redirects", "1")
	q.Add("format", "json")
	q.Add("titles", ref.Title)
	u.RawQuery = q.Encode()

	body, err := c.request.Get(ctx, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("wikipedia extract failed for %q: %w", ref.Title, err)
	}

	var resp struct {
		Query struct {
			Pages map[string]struct {
				Missing *string `json:"missing"`
				Extract string  `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode wikipedia json: %w", err)
	}

	for id, page := range resp.Query.Pages {
		if id == "-1" || page.Missing != nil {
			continue
		}
		return truncate(page.Extract, maxExtractLen), nil
	}
	return "", nil
}

// truncate cuts at a byte budget without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}

// ArticleURL builds the canonical page URL for a reference, used when
// recording sources.
func ArticleURL(ref model.EncyclopediaRef) string {
	return fmt.Sprintf("https://%s.wikipedia.org/wiki/%s", ref.Lang, url.PathEscape(ref.Title))
}
