package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"verseatlas/internal/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.Geocoding{
		APIKey:   "test-key",
		Endpoint: server.URL,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, server
}

func TestGeocode_Success(t *testing.T) {
	var gotAddress, gotKey string
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAddress = r.URL.Query().Get("address")
		gotKey = r.URL.Query().Get("key")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"geometry": {"location": {"lat": 48.8566, "lng": 2.3522}}},
				{"geometry": {"location": {"lat": 0, "lng": 0}}}
			]
		}`))
	})

	point, err := client.Geocode(context.Background(), "Paris, France")
	if err != nil {
		t.Fatalf("Geocode failed: %v", err)
	}
	if point.Lat != 48.8566 || point.Lng != 2.3522 {
		t.Errorf("expected first result's coordinates, got %+v", point)
	}
	if gotAddress != "Paris, France" {
		t.Errorf("expected address param, got %q", gotAddress)
	}
	if gotKey != "test-key" {
		t.Errorf("expected key param, got %q", gotKey)
	}
}

func TestGeocode_ZeroResultsStatus(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})

	_, err := client.Geocode(context.Background(), "Nowhereville")
	if err == nil {
		t.Fatal("expected an error for ZERO_RESULTS")
	}
	var geoErr *Error
	if !errors.As(err, &geoErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if geoErr.Description != "Nowhereville" {
		t.Errorf("error should carry the description, got %q", geoErr.Description)
	}
	if geoErr.Status != "ZERO_RESULTS" {
		t.Errorf("error should carry the API status, got %q", geoErr.Status)
	}
}

func TestGeocode_OKStatusButEmptyResults(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "OK", "results": []}`))
	})

	if _, err := client.Geocode(context.Background(), "somewhere"); err == nil {
		t.Fatal("expected an error when results are empty")
	}
}

func TestGeocode_TransportError(t *testing.T) {
	client, server := testClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.Geocode(context.Background(), "Paris, France")
	if err == nil {
		t.Fatal("expected a transport error")
	}
	var geoErr *Error
	if !errors.As(err, &geoErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if geoErr.Unwrap() == nil {
		t.Error("transport errors should be wrapped as the cause")
	}
}

func TestGeocode_MalformedBody(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	if _, err := client.Geocode(context.Background(), "Paris, France"); err == nil {
		t.Fatal("expected an error for a malformed body")
	}
}

func TestNewClient_MissingAPIKey(t *testing.T) {
	if _, err := NewClient(config.Geocoding{}); err == nil {
		t.Fatal("expected an error when no API key is configured")
	}
}

func TestNewClient_DefaultEndpoint(t *testing.T) {
	client, err := NewClient(config.Geocoding{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.endpoint != DefaultEndpoint {
		t.Errorf("expected default endpoint, got %q", client.endpoint)
	}
}
