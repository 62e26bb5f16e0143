package openaitts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"geotale/pkg/request"
	"geotale/pkg/tts"
)

// Provider implements tts.Provider against an OpenAI-compatible
// /audio/speech endpoint.
type Provider struct {
	rc      *request.Client
	apiKey  string
	baseURL string
	model   string
	voice   string
}

// New creates a provider. model and voice fall back to sane defaults.
func New(rc *request.Client, apiKey, baseURL, model, voice string) (*Provider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	if model == "" {
		model = "gpt-4o-mini-tts"
	}
	if voice == "" {
		voice = "alloy"
	}
	return &Provider{
		rc:      rc,
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		voice:   voice,
	}, nil
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize posts the text and returns the mp3 payload. Upstream status
// errors pass through unwrapped so callers can surface the code.
func (p *Provider) Synthesize(ctx context.Context, text, lang string) ([]byte, string, error) {
	if p.apiKey == "" {
		return nil, "", fmt.Errorf("tts api key is missing")
	}

	body, err := json.Marshal(speechRequest{
		Model:          p.model,
		Input:          text,
		Voice:          p.voice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal tts request: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + p.apiKey,
		"Content-Type":  "application/json",
	}
	audio, err := p.rc.Post(ctx, p.baseURL+"/audio/speech", body, headers)
	if err != nil {
		return nil, "", err
	}
	if len(audio) < tts.MinAudioSize {
		return nil, "", fmt.Errorf("tts returned %d bytes, below the plausible minimum", len(audio))
	}
	return audio, "audio/mpeg", nil
}
