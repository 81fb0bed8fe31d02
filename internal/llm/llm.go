package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"verseatlas/internal/config"
	"verseatlas/internal/logger"

	"google.golang.org/genai"
)

// DefaultModel is the default Gemini model used for location extraction.
const DefaultModel = "gemini-2.0-flash"

// Client wraps the Gemini SDK for location extraction.
type Client struct {
	modelName string
	timeout   time.Duration
	gClient   *genai.Client
}

// NewClient creates a new extraction client from explicit configuration.
func NewClient(cfg config.Gemini) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}

	gClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		modelName: modelName,
		timeout:   cfg.Timeout,
		gClient:   gClient,
	}, nil
}

// locationListSchema constrains the model to a JSON array of strings.
func locationListSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeString,
		},
	}
}

// ExtractPoemLocations asks the model for the locations mentioned in or
// associated with a poem. A response the model mangled beyond parsing is
// treated as "no locations found", not as an error; transport and API errors
// propagate to the caller.
func (c *Client) ExtractPoemLocations(ctx context.Context, title, body string) ([]string, error) {
	return c.extract(ctx, BuildPoemLocationsPrompt(title, body))
}

// ExtractAuthorLocations asks the model for the locations tied to a poet's
// life and work. Same soft-failure contract as ExtractPoemLocations.
func (c *Client) ExtractAuthorLocations(ctx context.Context, name, bio string) ([]string, error) {
	return c.extract(ctx, BuildAuthorLocationsPrompt(name, bio))
}

func (c *Client) extract(ctx context.Context, prompt string) ([]string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   locationListSchema(),
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, c.modelName, contents, genConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	return ParseLocationList(text), nil
}

// ParseLocationList parses the raw model response into a list of location
// descriptions. Markdown code fences are stripped before parsing. Anything
// that does not parse as a JSON array of strings yields an empty list, which
// callers treat as "no locations found for this run".
func ParseLocationList(raw string) []string {
	cleaned := stripCodeFence(raw)

	var locations []string
	if err := json.Unmarshal([]byte(cleaned), &locations); err != nil {
		logger.Warn("model response is not a JSON array of strings", "response", truncate(raw, 200))
		return nil
	}
	return locations
}

// stripCodeFence removes a surrounding ```json ... ``` (or bare ```) wrapper
// the model sometimes adds despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ModelName returns the model this client extracts with.
func (c *Client) ModelName() string {
	return c.modelName
}
