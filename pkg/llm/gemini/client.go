package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"geotale/pkg/llm"
	"geotale/pkg/tracker"
)

// Client implements llm.Provider for Google Gemini.
type Client struct {
	genaiClient *genai.Client
	modelName   string
	tracker     *tracker.Tracker
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey, modelName string, t *tracker.Tracker) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is missing")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Client{genaiClient: client, modelName: modelName, tracker: t}, nil
}

// GenerateText sends a prompt and returns the text response.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), &genai.GenerateContentConfig{})
	if err != nil {
		c.tracker.TrackAPIFailure("gemini")
		return "", fmt.Errorf("generate text error: %w", err)
	}

	text, err := getResponseText(resp)
	if err != nil {
		c.tracker.TrackAPIFailure("gemini")
		return "", err
	}
	c.tracker.TrackAPISuccess("gemini")
	return text, nil
}

// GenerateJSON sends a prompt and unmarshals the response into the target
// struct.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, target any) error {
	config := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), config)
	if err != nil {
		c.tracker.TrackAPIFailure("gemini")
		return fmt.Errorf("generate json error: %w", err)
	}

	text, err := getResponseText(resp)
	if err != nil {
		c.tracker.TrackAPIFailure("gemini")
		return err
	}

	cleaned := llm.CleanJSONBlock(text)
	if err := json.Unmarshal([]byte(cleaned), target); err != nil {
		c.tracker.TrackAPIFailure("gemini")
		return fmt.Errorf("failed to unmarshal JSON response: %w. Response: %s", err, cleaned)
	}
	c.tracker.TrackAPISuccess("gemini")
	return nil
}

func getResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}
