package wikidata

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"geotale/pkg/model"
)

// nearbyLimit caps the proximity query result set.
const nearbyLimit = 40

func (c *Client) Name() string { return model.SourceGraph }

// Fetch runs a structured proximity query around the point and maps
// entities to POIs. The radius is translated to the service's native
// kilometers.
func (c *Client) Fetch(ctx context.Context, lat, lng float64, radiusM int, lang string) ([]model.POI, error) {
	query := fmt.Sprintf(`SELECT ?item ?itemLabel ?itemDescription ?location WHERE {
  SERVICE wikibase:around {
    ?item wdt:P625 ?location .
    bd:serviceParam wikibase:center "Point(%.6f %.6f)"^^geo:wktLiteral .
    bd:serviceParam wikibase:radius "%.2f" .
  }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "%s". }
} LIMIT %d`, lng, lat, float64(radiusM)/1000.0, labelChain(lang), nearbyLimit)

	rows, err := c.querySPARQL(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("wikidata proximity query failed: %w", err)
	}

	pois := make([]model.POI, 0, len(rows))
	for _, row := range rows {
		qid := qidFromURI(row.val("item"))
		if qid == "" {
			continue
		}
		plat, plng, ok := parseWKTPoint(row.val("location"))
		if !ok {
			continue
		}

		label := row.val("itemLabel")
		if label == qid {
			// wikibase:label falls back to the QID when no label exists in
			// the chain; such entities cannot anchor a story.
			label = ""
		}

		pois = append(pois, model.POI{
			Key:         "graph:" + qid,
			Source:      model.SourceGraph,
			Label:       label,
			Description: row.val("itemDescription"),
			Lat:         plat,
			Lng:         plng,
			GraphID:     qid,
		})
	}
	return pois, nil
}

// parseWKTPoint parses "Point(lng lat)".
func parseWKTPoint(wkt string) (lat, lng float64, ok bool) {
	wkt = strings.TrimSpace(wkt)
	if !strings.HasPrefix(wkt, "Point(") || !strings.HasSuffix(wkt, ")") {
		return 0, 0, false
	}
	inner := wkt[len("Point(") : len(wkt)-1]
	parts := strings.Fields(inner)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lng, err1 := strconv.ParseFloat(parts[0], 64)
	lat, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lng, true
}
