package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSetsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(time.Second, "geotale-test/1.0 (test@example.com)", nil)
	body, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "geotale-test/1.0 (test@example.com)", gotUA)
}

func TestCustomHeaderOverridesUA(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	c := New(time.Second, "default-ua", nil)
	_, err := c.Get(context.Background(), srv.URL, map[string]string{"User-Agent": "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", gotUA)
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(strings.Repeat("x", 5000)))
	}))
	defer srv.Close()

	c := New(time.Second, "ua", nil)
	_, err := c.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)

	se, ok := err.(*StatusError)
	require.True(t, ok, "expected *StatusError, got %T", err)
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.LessOrEqual(t, len(se.Snippet), maxSnippet)
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(50*time.Millisecond, "ua", nil)
	start := time.Now()
	_, err := c.Get(context.Background(), srv.URL, nil)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		w.Write([]byte("posted"))
	}))
	defer srv.Close()

	c := New(time.Second, "ua", nil)
	body, err := c.Post(context.Background(), srv.URL, []byte("data=1"),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	require.NoError(t, err)
	assert.Equal(t, "posted", string(body))
}

func TestCooldownAfterFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(5*time.Second, "ua", nil)
	_, err := c.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)

	// The worker must pause before the next call to the same provider.
	start := time.Now()
	body, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.GreaterOrEqual(t, time.Since(start), baseCooldown)
}

func TestCooldownAfterGrowth(t *testing.T) {
	assert.GreaterOrEqual(t, cooldownAfter(1), baseCooldown)
	assert.Less(t, cooldownAfter(1), 2*baseCooldown)
	assert.GreaterOrEqual(t, cooldownAfter(3), 4*baseCooldown)
	// Deep failure counts stay capped (plus jitter).
	assert.LessOrEqual(t, cooldownAfter(60), maxCooldown+maxCooldown/10)
}

func TestNormalizeProvider(t *testing.T) {
	cases := map[string]string{
		"query.wikidata.org":     "wikidata",
		"en.wikipedia.org":       "wikipedia",
		"places.googleapis.com":  "google",
		"overpass-api.de":        "overpass",
		"api.openai.com":         "openai",
		"example.com":            "example.com",
	}
	for host, want := range cases {
		assert.Equal(t, want, normalizeProvider(host), host)
	}
}
