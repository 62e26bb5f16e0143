package wikidata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotale/pkg/request"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	rc := request.New(time.Second, "test-agent", nil)
	c := NewClient(rc)
	c.SPARQLEndpoint = srv.URL
	c.APIEndpoint = srv.URL
	return c
}

const nearbyResponse = `{
	"results": {"bindings": [
		{"item": {"type": "uri", "value": "http://www.wikidata.org/entity/Q41225"},
		 "itemLabel": {"type": "literal", "value": "Big Ben"},
		 "itemDescription": {"type": "literal", "value": "clock tower in London"},
		 "location": {"type": "literal", "value": "Point(-0.1246 51.5007)"}},
		{"item": {"type": "uri", "value": "http://www.wikidata.org/entity/Q999999"},
		 "itemLabel": {"type": "literal", "value": "Q999999"},
		 "location": {"type": "literal", "value": "Point(-0.125 51.501)"}},
		{"item": {"type": "uri", "value": "http://www.wikidata.org/entity/Q1"},
		 "itemLabel": {"type": "literal", "value": "broken"},
		 "location": {"type": "literal", "value": "not-a-point"}}
	]}
}`

func TestFetchNearby(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(nearbyResponse))
	})

	pois, err := c.Fetch(context.Background(), 51.5007, -0.1246, 900, "en")
	require.NoError(t, err)
	require.Len(t, pois, 2)

	assert.Equal(t, "graph:Q41225", pois[0].Key)
	assert.Equal(t, "graph", pois[0].Source)
	assert.Equal(t, "Big Ben", pois[0].Label)
	assert.Equal(t, "clock tower in London", pois[0].Description)
	assert.InDelta(t, 51.5007, pois[0].Lat, 1e-9)
	assert.InDelta(t, -0.1246, pois[0].Lng, 1e-9)
	assert.Equal(t, "Q41225", pois[0].GraphID)

	// Label-service QID fallback is treated as unlabeled.
	assert.Equal(t, "", pois[1].Label)

	assert.Contains(t, gotQuery, `wikibase:radius "0.90"`)
	assert.Contains(t, gotQuery, `Point(-0.124600 51.500700)`)
	assert.Contains(t, gotQuery, `"en,he,fr"`)
}

func TestFetchNearbyLabelChainHebrew(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(`{"results":{"bindings":[]}}`))
	})

	_, err := c.Fetch(context.Background(), 31.776, 35.234, 500, "he")
	require.NoError(t, err)
	assert.Contains(t, gotQuery, `"he,en,fr"`)
}

const entityResponse = `{
	"results": {"bindings": [
		{"desc": {"type": "literal", "value": "clock tower in London", "xml:lang": "en"},
		 "typeLabel": {"type": "literal", "value": "clock tower"},
		 "inception": {"type": "literal", "value": "1859-05-31T00:00:00Z"},
		 "namedAfterLabel": {"type": "literal", "value": "Benjamin Hall"},
		 "heritageLabel": {"type": "literal", "value": "Grade I listed building"},
		 "eventLabel": {"type": "literal", "value": "2017 renovation"}},
		{"typeLabel": {"type": "literal", "value": "tourist attraction"},
		 "inception": {"type": "literal", "value": "1859-05-31T00:00:00Z"},
		 "eventLabel": {"type": "literal", "value": "Q555"}},
		{"typeLabel": {"type": "literal", "value": "clock tower"}}
	]}
}`

func TestFetchEntityFacts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(entityResponse))
	})

	facts, err := c.FetchEntityFacts(context.Background(), "Q41225", "en")
	require.NoError(t, err)

	assert.Equal(t, "clock tower in London", facts.Description)
	assert.Equal(t, []string{"clock tower", "tourist attraction"}, facts.Types)
	assert.Equal(t, 1859, facts.InceptionYear)
	assert.Equal(t, "Benjamin Hall", facts.NamedAfter)
	assert.Equal(t, "Grade I listed building", facts.Heritage)
	// QID-shaped event labels are dropped.
	assert.Equal(t, []string{"2017 renovation"}, facts.Events)
}

func TestInceptionYear(t *testing.T) {
	assert.Equal(t, 1859, inceptionYear("1859-05-31T00:00:00Z"))
	assert.Equal(t, 0, inceptionYear("-0500-01-01T00:00:00Z"))
	assert.Equal(t, 0, inceptionYear("bad"))
	assert.Equal(t, 0, inceptionYear(""))
}

const sitelinksResponse = `{
	"entities": {"Q41225": {"sitelinks": {
		"enwiki": {"title": "Big Ben"},
		"frwiki": {"title": "Big Ben (fr)"}
	}}}
}`

func TestSitelink(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "wbgetentities", r.URL.Query().Get("action"))
		assert.Equal(t, "Q41225", r.URL.Query().Get("ids"))
		w.Write([]byte(sitelinksResponse))
	})

	// Hebrew has no article; falls through to English.
	ref, err := c.Sitelink(context.Background(), "Q41225", "he")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "en", ref.Lang)
	assert.Equal(t, "Big Ben", ref.Title)
}

func TestSitelinkNone(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"entities":{"Q1":{"sitelinks":{}}}}`))
	})

	ref, err := c.Sitelink(context.Background(), "Q1", "en")
	require.NoError(t, err)
	assert.Nil(t, ref)
}

func TestQidFromURI(t *testing.T) {
	assert.Equal(t, "Q42", qidFromURI("http://www.wikidata.org/entity/Q42"))
	assert.Equal(t, "Q42", qidFromURI("Q42"))
}

func TestParseWKTPoint(t *testing.T) {
	lat, lng, ok := parseWKTPoint("Point(35.2345 31.7767)")
	require.True(t, ok)
	assert.InDelta(t, 31.7767, lat, 1e-9)
	assert.InDelta(t, 35.2345, lng, 1e-9)

	_, _, ok = parseWKTPoint("POLYGON((0 0))")
	assert.False(t, ok)
}
