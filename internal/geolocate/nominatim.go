package geolocate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Geocoder turns coordinates into a human-readable place name.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, c Coordinates) (string, error)
}

// NominatimClient calls a Nominatim-compatible reverse geocoding endpoint.
// No API key, best-effort, failure tolerated by the resolver.
type NominatimClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewNominatimClient builds a client for baseURL (scheme://host, no path).
func NewNominatimClient(baseURL string, timeout time.Duration) *NominatimClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NominatimClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
}

// ReverseGeocode returns the full display name for the coordinates, or an
// error on network, HTTP or parse failure. An empty display name is returned
// as-is; the resolver decides what to show.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, coords Coordinates) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build reverse geocode request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode: unexpected status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode reverse geocode response: %w", err)
	}
	return body.DisplayName, nil
}
