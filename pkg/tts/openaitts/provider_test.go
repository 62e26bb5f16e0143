package openaitts

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotale/pkg/request"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	rc := request.New(time.Second, "test-agent", nil)
	p, err := New(rc, "sk-test", srv.URL, "", "")
	require.NoError(t, err)
	return p
}

func TestSynthesize(t *testing.T) {
	payload := bytes.Repeat([]byte{0xFF}, 2048)
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		raw, _ := io.ReadAll(r.Body)
		var req speechRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		assert.Equal(t, "gpt-4o-mini-tts", req.Model)
		assert.Equal(t, "alloy", req.Voice)
		assert.Equal(t, "a story", req.Input)
		assert.Equal(t, "mp3", req.ResponseFormat)

		w.Write(payload)
	})

	audio, contentType, err := p.Synthesize(context.Background(), "a story", "en")
	require.NoError(t, err)
	assert.Equal(t, payload, audio)
	assert.Equal(t, "audio/mpeg", contentType)
}

func TestSynthesizeTooSmall(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tiny"))
	})

	_, _, err := p.Synthesize(context.Background(), "a story", "en")
	assert.Error(t, err)
}

func TestSynthesizeUpstreamStatusPreserved(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, _, err := p.Synthesize(context.Background(), "a story", "en")
	var se *request.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
}

func TestSynthesizeMissingKey(t *testing.T) {
	rc := request.New(time.Second, "test-agent", nil)
	p, err := New(rc, "", "http://localhost:1", "", "")
	require.NoError(t, err)
	_, _, err = p.Synthesize(context.Background(), "x", "en")
	assert.Error(t, err)
}
