package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotale/pkg/model"
	"geotale/pkg/narrator"
	"geotale/pkg/request"
	"geotale/pkg/taste"
)

type fakeOrch struct {
	decision *model.Decision
	err      error
	lastReq  narrator.Request
}

func (f *fakeOrch) Tell(_ context.Context, req narrator.Request) (*model.Decision, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.decision, nil
}

func speakingDecision() *model.Decision {
	return &model.Decision{
		ShouldSpeak: true,
		Reason:      model.ReasonOK,
		POI: &model.POI{
			Key: "graph:Q1", Source: "graph", Label: "Big Ben",
			Lat: 51.5007, Lng: -0.1246,
		},
		Facts:                []model.Fact{{Text: "It dates from 1859.", HasYear: true}},
		StoryText:            "The tower rose in 1859.",
		DistanceMetersApprox: 350,
		Audio:                bytes.Repeat([]byte{7}, 1500),
		AudioContentType:     "audio/mpeg",
	}
}

func newServer(t *testing.T, orch *fakeOrch) *httptest.Server {
	t.Helper()
	ts := taste.New(nil)
	srv := NewServer(":0",
		NewStoryHandler(orch, ts),
		NewTasteHandler(ts),
		[]string{"*"},
		prometheus.NewRegistry(),
	)
	server := httptest.NewServer(srv.Handler)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestStoryHappyPath(t *testing.T) {
	orch := &fakeOrch{decision: speakingDecision()}
	server := newServer(t, orch)

	resp, out := postJSON(t, server.URL+"/api/story-both",
		`{"lat": 51.5, "lng": -0.12, "lang": "en", "userId": "u1"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["shouldSpeak"])
	assert.Equal(t, "ok", out["reason"])
	assert.Equal(t, out["text"], out["storyText"])
	assert.NotEmpty(t, out["audioBase64"])

	audio := out["audio"].(map[string]any)
	assert.Equal(t, "audio/mpeg", audio["contentType"])
	assert.Equal(t, float64(1500), audio["bytes"])
	assert.Equal(t, out["audioBase64"], audio["base64"])

	poi := out["poi"].(map[string]any)
	assert.Equal(t, "Big Ben", poi["label"])
	assert.NotNil(t, poi["anchor"])

	assert.Equal(t, "en", out["lang"])
	assert.NotEmpty(t, out["version"])
	assert.Contains(t, out, "timingMs")

	assert.Equal(t, "u1", orch.lastReq.UserKey)
	assert.InDelta(t, 51.5, orch.lastReq.Lat, 1e-9)
}

func TestStoryFieldAliases(t *testing.T) {
	orch := &fakeOrch{decision: speakingDecision()}
	server := newServer(t, orch)

	resp, _ := postJSON(t, server.URL+"/api/story-both",
		`{"Latitude": 51.5, "longitude": -0.12, "locale": "HE-il", "prompt": "ignored client text"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 51.5, orch.lastReq.Lat, 1e-9)
	assert.InDelta(t, -0.12, orch.lastReq.Lng, 1e-9)
	assert.Equal(t, "he-il", orch.lastReq.Lang)
}

func TestStoryMissingCoordinates(t *testing.T) {
	server := newServer(t, &fakeOrch{decision: speakingDecision()})

	resp, out := postJSON(t, server.URL+"/api/story-both", `{"lang": "en"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "location_missing", out["error"])
}

func TestStoryInvalidCoordinates(t *testing.T) {
	server := newServer(t, &fakeOrch{decision: speakingDecision()})

	resp, _ := postJSON(t, server.URL+"/api/story-both", `{"lat": 123.0, "lng": -0.12}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStorySilentDecisionIs200(t *testing.T) {
	orch := &fakeOrch{decision: &model.Decision{ShouldSpeak: false, Reason: model.ReasonNoStrongPOI}}
	server := newServer(t, orch)

	resp, out := postJSON(t, server.URL+"/api/story-both", `{"lat": 51.5, "lng": -0.12}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, out["shouldSpeak"])
	assert.Equal(t, "no_strong_poi", out["reason"])
	assert.NotContains(t, out, "audioBase64")
}

func TestStoryUpstreamStatusPassthrough(t *testing.T) {
	orch := &fakeOrch{err: &request.StatusError{Provider: "openai", Code: 503, Snippet: "overloaded"}}
	server := newServer(t, orch)

	resp, out := postJSON(t, server.URL+"/api/story-both", `{"lat": 51.5, "lng": -0.12}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "generation_failed", out["error"])
}

func TestStoryUserKeyFromHeader(t *testing.T) {
	orch := &fakeOrch{decision: speakingDecision()}
	server := newServer(t, orch)

	req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/story-both",
		strings.NewReader(`{"lat": 51.5, "lng": -0.12}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Key", "header-user")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "header-user", orch.lastReq.UserKey)
}

func TestHealth(t *testing.T) {
	server := newServer(t, &fakeOrch{})

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsExposed(t *testing.T) {
	server := newServer(t, &fakeOrch{})

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
