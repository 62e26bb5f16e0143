package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"geotale/pkg/model"
)

// Sitelink resolves the best encyclopedia article for an entity via
// wbgetentities, preferring the requested language and falling back
// through he, en and fr.
func (c *Client) Sitelink(ctx context.Context, qid, lang string) (*model.EncyclopediaRef, error) {
	u, err := url.Parse(c.APIEndpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Add("action", "wbgetentities")
	q.Add("ids", qid)
	q.Add("props", "sitelinks")
	q.Add("format", "json")
	u.RawQuery = q.Encode()

	body, err := c.request.Get(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("wbgetentities failed for %s: %w", qid, err)
	}

	var resp struct {
		Entities map[string]struct {
			Sitelinks map[string]struct {
				Title string `json:"title"`
			} `json:"sitelinks"`
		} `json:"entities"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode wbgetentities json: %w", err)
	}

	entity, ok := resp.Entities[qid]
	if !ok || len(entity.Sitelinks) == 0 {
		return nil, nil
	}

	for _, l := range sitelinkChain(lang) {
		if link, ok := entity.Sitelinks[l+"wiki"]; ok && link.Title != "" {
			return &model.EncyclopediaRef{Lang: l, Title: link.Title}, nil
		}
	}
	return nil, nil
}

func sitelinkChain(lang string) []string {
	lang = strings.ToLower(lang)
	chain := []string{lang}
	for _, fb := range []string{"he", "en", "fr"} {
		if fb != lang {
			chain = append(chain, fb)
		}
	}
	return chain
}
