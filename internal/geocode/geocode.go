package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"verseatlas/internal/config"
	"verseatlas/internal/core"
)

// DefaultEndpoint is the Google Geocoding API endpoint.
const DefaultEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// Error is returned when a description could not be geocoded. It carries the
// description and the API status (or transport reason) so callers can log a
// useful skip message.
type Error struct {
	Description string
	Status      string
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("geocoding %q: %v", e.Description, e.cause)
	}
	return fmt.Sprintf("geocoding %q: status %s", e.Description, e.Status)
}

func (e *Error) Unwrap() error { return e.cause }

// Client calls the Google Geocoding API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
}

// NewClient creates a geocoding client from explicit configuration.
func NewClient(cfg config.Geocoding) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("geocoding API key is required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
	}, nil
}

// geocodeResponse mirrors the subset of the API response we read.
type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves one free-text location description to a coordinate pair.
// Any non-OK status, empty result set, or transport failure is returned as a
// *Error. No retries and no caching; a description that resolves once never
// comes back here because its locations row already exists.
func (c *Client) Geocode(ctx context.Context, description string) (core.Point, error) {
	params := url.Values{}
	params.Set("address", description)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return core.Point{}, &Error{Description: description, cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.Point{}, &Error{Description: description, cause: err}
	}
	defer resp.Body.Close()

	var data geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return core.Point{}, &Error{Description: description, cause: fmt.Errorf("decoding response: %w", err)}
	}

	if data.Status != "OK" || len(data.Results) == 0 {
		return core.Point{}, &Error{Description: description, Status: data.Status}
	}

	loc := data.Results[0].Geometry.Location
	return core.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
