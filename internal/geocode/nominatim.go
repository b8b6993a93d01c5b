package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// UnknownRegion is what every resolver failure degrades to; a failed lookup
// never fails the job, it only changes the output namespace.
const UnknownRegion = "unknown"

// Resolver maps a point to an administrative region label used for output
// namespacing
type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) (string, error)
}

// NominatimResolver reverse-geocodes against the OSM Nominatim API
type NominatimResolver struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// NewNominatimResolver creates a resolver against the public Nominatim endpoint
func NewNominatimResolver() *NominatimResolver {
	return &NominatimResolver{
		BaseURL:   "https://nominatim.openstreetmap.org/reverse",
		UserAgent: "geo-app",
		Client:    &http.Client{},
	}
}

// Resolve returns the country containing the point, or UnknownRegion when
// the lookup has no answer for it
func (r *NominatimResolver) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("format", "json")
	params.Set("accept-language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build reverse geocode request: %w", err)
	}
	req.Header.Set("User-Agent", r.UserAgent)

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read reverse geocode response: %w", err)
	}

	var payload struct {
		Address struct {
			Country string `json:"country"`
		} `json:"address"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode reverse geocode response: %w", err)
	}

	if payload.Address.Country == "" {
		return UnknownRegion, nil
	}
	return payload.Address.Country, nil
}
