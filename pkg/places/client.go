package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"geotale/pkg/model"
	"geotale/pkg/request"
)

// interestingTypes limits the nearby search to categories that can
// plausibly carry a story.
var interestingTypes = []string{
	"tourist_attraction",
	"museum",
	"place_of_worship",
	"park",
}

// Client is the commercial-places fallback source. It only fires when
// an API key is configured.
type Client struct {
	request  *request.Client
	apiKey   string
	Endpoint string
}

// NewClient creates a places client. An empty key disables the source.
func NewClient(r *request.Client, apiKey string) *Client {
	return &Client{
		request:  r,
		apiKey:   apiKey,
		Endpoint: "https://maps.googleapis.com/maps/api/place/nearbysearch/json",
	}
}

func (c *Client) Name() string { return model.SourcePlaces }

// Enabled reports whether the source has credentials.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// Fetch runs one nearby search per interesting type and merges the
// results. Duplicate place IDs across types are collapsed.
func (c *Client) Fetch(ctx context.Context, lat, lng float64, radiusM int, _ string) ([]model.POI, error) {
	if !c.Enabled() {
		return nil, nil
	}

	seen := map[string]bool{}
	var pois []model.POI
	for _, typ := range interestingTypes {
		results, err := c.search(ctx, lat, lng, radiusM, typ)
		if err != nil {
			return nil, err
		}
		for _, res := range results {
			if res.PlaceID == "" || res.Name == "" || seen[res.PlaceID] {
				continue
			}
			seen[res.PlaceID] = true
			pois = append(pois, model.POI{
				Key:       "places:" + res.PlaceID,
				Source:    model.SourcePlaces,
				Label:     res.Name,
				Lat:       res.Geometry.Location.Lat,
				Lng:       res.Geometry.Location.Lng,
				KindHints: res.Types,
			})
		}
	}
	return pois, nil
}

type searchResult struct {
	PlaceID  string   `json:"place_id"`
	Name     string   `json:"name"`
	Types    []string `json:"types"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

func (c *Client) search(ctx context.Context, lat, lng float64, radiusM int, typ string) ([]searchResult, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Add("location", fmt.Sprintf("%.6f,%.6f", lat, lng))
	q.Add("radius", fmt.Sprintf("%d", radiusM))
	q.Add("type", typ)
	q.Add("key", c.apiKey)
	u.RawQuery = q.Encode()

	body, err := c.request.Get(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("places nearby search failed: %w", err)
	}

	var resp struct {
		Status  string         `json:"status"`
		Results []searchResult `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode places json: %w", err)
	}
	switch resp.Status {
	case "OK", "ZERO_RESULTS":
		return resp.Results, nil
	default:
		return nil, fmt.Errorf("places search returned status %s", resp.Status)
	}
}
