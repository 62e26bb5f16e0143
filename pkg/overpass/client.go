package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"geotale/pkg/model"
	"geotale/pkg/request"
)

// maxElements caps the Overpass result set.
const maxElements = 180

// Client fetches POIs from an Overpass (OSM) endpoint.
type Client struct {
	request  *request.Client
	Endpoint string
}

// NewClient creates a new Overpass client.
func NewClient(r *request.Client, endpoint string) *Client {
	if endpoint == "" {
		endpoint = "https://overpass-api.de/api/interpreter"
	}
	return &Client{request: r, Endpoint: endpoint}
}

func (c *Client) Name() string { return model.SourceOSM }

// Fetch runs a single union query over historic/tourism/memorial/natural/
// place features around the point and maps elements to POIs.
func (c *Client) Fetch(ctx context.Context, lat, lng float64, radiusM int, _ string) ([]model.POI, error) {
	query := buildQuery(lat, lng, radiusM)

	headers := map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	}
	form := url.Values{"data": {query}}
	body, err := c.request.Post(ctx, c.Endpoint, []byte(form.Encode()), headers)
	if err != nil {
		return nil, fmt.Errorf("overpass query failed: %w", err)
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode overpass json: %w", err)
	}

	pois := make([]model.POI, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		if poi, ok := mapElement(el); ok {
			pois = append(pois, poi)
		}
	}
	return pois, nil
}

func buildQuery(lat, lng float64, radiusM int) string {
	around := fmt.Sprintf("(around:%d,%.6f,%.6f)", radiusM, lat, lng)
	var b strings.Builder
	b.WriteString("[out:json][timeout:6];(")
	for _, sel := range []string{
		`nwr["historic"]`,
		`nwr["tourism"="attraction"]`,
		`nwr["tourism"="viewpoint"]`,
		`nwr["memorial"]`,
		`nwr["natural"]`,
		`nwr["place"]`,
	} {
		b.WriteString(sel)
		b.WriteString(around)
		b.WriteString(";")
	}
	fmt.Fprintf(&b, ");out center tags %d;", maxElements)
	return b.String()
}

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center"`
	Tags map[string]string `json:"tags"`
}

// mapElement converts an Overpass element into a POI. Ways and relations
// carry their coordinates in "center".
func mapElement(el element) (model.POI, bool) {
	lat, lng := el.Lat, el.Lon
	if lat == 0 && lng == 0 && el.Center != nil {
		lat, lng = el.Center.Lat, el.Center.Lon
	}
	if lat == 0 && lng == 0 {
		return model.POI{}, false
	}

	poi := model.POI{
		Key:     fmt.Sprintf("osm:%s/%d", el.Type, el.ID),
		Source:  model.SourceOSM,
		Lat:     lat,
		Lng:     lng,
		RawTags: el.Tags,
	}

	poi.Label = pickLabel(el.Tags)
	poi.GraphID = el.Tags["wikidata"]
	poi.Ref = parseWikipediaTag(el.Tags["wikipedia"])
	if poi.Label == "" && poi.Ref != nil {
		poi.Label = poi.Ref.Title
	}
	poi.KindHints = kindHints(el.Tags)

	// A POI with no label, no graph pointer and no encyclopedia page can
	// never ground a story.
	if poi.Label == "" && poi.GraphID == "" && poi.Ref == nil {
		return model.POI{}, false
	}
	return poi, true
}

func pickLabel(tags map[string]string) string {
	for _, k := range []string{"name", "name:he", "name:en"} {
		if v := tags[k]; v != "" {
			return v
		}
	}
	return ""
}

// parseWikipediaTag parses OSM's "lang:Title" wikipedia tag format.
func parseWikipediaTag(tag string) *model.EncyclopediaRef {
	if tag == "" {
		return nil
	}
	parts := strings.SplitN(tag, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil
	}
	return &model.EncyclopediaRef{Lang: parts[0], Title: parts[1]}
}

func kindHints(tags map[string]string) []string {
	var hints []string
	if v := tags["historic"]; v != "" {
		hints = append(hints, "historic:"+v)
	}
	if v := tags["tourism"]; v != "" {
		hints = append(hints, "tourism:"+v)
	}
	if v := tags["memorial"]; v != "" {
		hints = append(hints, "memorial:"+v)
	}
	if v := tags["natural"]; v != "" {
		hints = append(hints, "natural:"+v)
	}
	if v := tags["place"]; v != "" {
		hints = append(hints, "place:"+v)
	}
	return hints
}
