// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jcodagnone/geoconv/spatial"
)

// DefaultGoogleMapsURL is the Google Maps Geocoding API endpoint.
const DefaultGoogleMapsURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleMapsGeocoder uses Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	apiKey     string
	language   string
	endpoint   string
	httpClient *http.Client
}

// GoogleOptions configures GoogleMapsGeocoder.
type GoogleOptions struct {
	// UserAgent identifies the application
	UserAgent string

	// Language of the returned addresses, optional
	Language string

	// Timeout for each request
	Timeout time.Duration

	// TraceWriter receives a dump of every request and response when set
	TraceWriter io.Writer

	// TraceBody includes bodies in the dump
	TraceBody bool
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder.
func NewGoogleMapsGeocoder(apiKey string, options *GoogleOptions) *GoogleMapsGeocoder {
	if options == nil {
		options = &GoogleOptions{}
	}

	timeout := options.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &GoogleMapsGeocoder{
		apiKey:     apiKey,
		language:   options.Language,
		endpoint:   DefaultGoogleMapsURL,
		httpClient: newHTTPClient(timeout, options.UserAgent, map[string]string{"Accept": "application/json"}, options.TraceWriter, options.TraceBody),
	}
}

// Name implements ReverseGeocoder.
func (g *GoogleMapsGeocoder) Name() string {
	return "google_maps"
}

type googleMapsResponse struct {
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string `json:"error_message"`
}

// Reverse implements ReverseGeocoder.
func (g *GoogleMapsGeocoder) Reverse(ctx context.Context, p spatial.Point) (*Result, error) {
	params := url.Values{}
	params.Set("latlng",
		strconv.FormatFloat(p.Lat, 'f', -1, 64)+","+strconv.FormatFloat(p.Lng, 'f', -1, 64))
	params.Set("key", g.apiKey)

	if g.language != "" {
		params.Set("language", g.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, requestError(g.Name(), err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(g.Name(), resp.StatusCode)
	}

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	switch gmResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNotFound
	default:
		return nil, classifyGoogleStatus(g.Name(), gmResp.Status, gmResp.ErrorMessage)
	}

	if len(gmResp.Results) == 0 {
		return nil, ErrNotFound
	}

	return &Result{
		Address:  gmResp.Results[0].FormattedAddress,
		Provider: g.Name(),
	}, nil
}
