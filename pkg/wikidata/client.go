package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"geotale/pkg/request"
)

const (
	sparqlEndpoint = "https://query.wikidata.org/sparql"
	apiEndpoint    = "https://www.wikidata.org/w/api.php"
)

// Client handles SPARQL queries and entity-data lookups.
type Client struct {
	request        *request.Client
	APIEndpoint    string
	SPARQLEndpoint string
}

// NewClient creates a new Wikidata client.
func NewClient(r *request.Client) *Client {
	return &Client{
		request:        r,
		APIEndpoint:    apiEndpoint,
		SPARQLEndpoint: sparqlEndpoint,
	}
}

// querySPARQL executes a SPARQL query and returns the raw binding rows.
func (c *Client) querySPARQL(ctx context.Context, query string) ([]binding, error) {
	u, err := url.Parse(c.SPARQLEndpoint)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Add("query", query)
	q.Add("format", "json")
	u.RawQuery = q.Encode()

	headers := map[string]string{
		"Accept": "application/sparql-results+json",
	}

	body, err := c.request.Get(ctx, u.String(), headers)
	if err != nil {
		return nil, err
	}

	var result sparqlResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode sparql json: %w", err)
	}
	return result.Results.Bindings, nil
}

type sparqlResponse struct {
	Results struct {
		Bindings []binding `json:"bindings"`
	} `json:"results"`
}

type binding map[string]struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// val returns the value of a bound variable, or "".
func (b binding) val(name string) string {
	if v, ok := b[name]; ok {
		return v.Value
	}
	return ""
}

// qidFromURI extracts "Q42" from an entity URI.
func qidFromURI(uri string) string {
	idx := strings.LastIndex(uri, "/")
	if idx < 0 {
		return uri
	}
	return uri[idx+1:]
}

// labelChain builds the wikibase:label fallback list for a language.
func labelChain(lang string) string {
	chain := []string{lang}
	for _, fb := range []string{"he", "en", "fr"} {
		if fb != lang {
			chain = append(chain, fb)
		}
	}
	return strings.Join(chain, ",")
}
