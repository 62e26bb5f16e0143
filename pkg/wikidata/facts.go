package wikidata

import (
	"context"
	"fmt"
	"strconv"
)

// EntityFacts holds the structured statements we pull for one entity.
type EntityFacts struct {
	QID           string
	Description   string
	Types         []string
	InceptionYear int
	NamedAfter    string
	Heritage      string
	Events        []string
}

// FetchEntityFacts runs one structured query per entity: description,
// instance-of labels, inception, named-after, heritage designation and
// significant events. Multi-valued properties come back as extra rows
// and are aggregated here.
func (c *Client) FetchEntityFacts(ctx context.Context, qid, lang string) (*EntityFacts, error) {
	query := fmt.Sprintf(`SELECT ?desc ?typeLabel ?inception ?namedAfterLabel ?heritageLabel ?eventLabel WHERE {
  OPTIONAL { wd:%s schema:description ?desc . FILTER(LANG(?desc) IN ("%s", "en")) }
  OPTIONAL { wd:%s wdt:P31 ?type . }
  OPTIONAL { wd:%s wdt:P571 ?inception . }
  OPTIONAL { wd:%s wdt:P138 ?namedAfter . }
  OPTIONAL { wd:%s wdt:P1435 ?heritage . }
  OPTIONAL { wd:%s wdt:P793 ?event . }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "%s". }
} LIMIT 60`, qid, lang, qid, qid, qid, qid, qid, labelChain(lang))

	rows, err := c.querySPARQL(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("wikidata entity query failed for %s: %w", qid, err)
	}

	facts := &EntityFacts{QID: qid}
	seenType := map[string]bool{}
	seenEvent := map[string]bool{}
	for _, row := range rows {
		if facts.Description == "" {
			facts.Description = row.val("desc")
		}
		if t := row.val("typeLabel"); t != "" && !looksLikeQID(t) && !seenType[t] {
			seenType[t] = true
			facts.Types = append(facts.Types, t)
		}
		if y := inceptionYear(row.val("inception")); y != 0 {
			// Multiple inception statements happen; keep the earliest.
			if facts.InceptionYear == 0 || y < facts.InceptionYear {
				facts.InceptionYear = y
			}
		}
		if facts.NamedAfter == "" {
			if n := row.val("namedAfterLabel"); n != "" && !looksLikeQID(n) {
				facts.NamedAfter = n
			}
		}
		if facts.Heritage == "" {
			if h := row.val("heritageLabel"); h != "" && !looksLikeQID(h) {
				facts.Heritage = h
			}
		}
		if e := row.val("eventLabel"); e != "" && !looksLikeQID(e) && !seenEvent[e] {
			seenEvent[e] = true
			facts.Events = append(facts.Events, e)
		}
	}
	return facts, nil
}

// inceptionYear extracts the year from an xsd:dateTime value such as
// "1863-01-10T00:00:00Z". Negative (BCE) timestamps are ignored.
func inceptionYear(ts string) int {
	if len(ts) < 4 || ts[0] == '-' {
		return 0
	}
	y, err := strconv.Atoi(ts[:4])
	if err != nil {
		return 0
	}
	return y
}

// looksLikeQID reports whether the label service fell back to the raw
// entity ID.
func looksLikeQID(s string) bool {
	if len(s) < 2 || s[0] != 'Q' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}
