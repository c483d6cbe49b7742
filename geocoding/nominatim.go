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
	"github.com/jcodagnone/geoconv/utils/httputils"
)

// DefaultNominatimURL is the public OpenStreetMap instance.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimOptions configures NominatimGeocoder.
type NominatimOptions struct {
	// BaseURL of the Nominatim instance
	BaseURL string

	// UserAgent identifies the application, required by the usage policy
	UserAgent string

	// Language sent as Accept-Language, optional
	Language string

	// Timeout for each request
	Timeout time.Duration

	// TraceWriter receives a dump of every request and response when set
	TraceWriter io.Writer

	// TraceBody includes bodies in the dump
	TraceBody bool
}

// NominatimGeocoder uses the OpenStreetMap Nominatim reverse endpoint.
type NominatimGeocoder struct {
	baseURL    string
	httpClient *http.Client
}

// NewNominatimGeocoder creates a new Nominatim geocoder.
func NewNominatimGeocoder(options *NominatimOptions) *NominatimGeocoder {
	if options == nil {
		options = &NominatimOptions{}
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}

	timeout := options.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	headers := map[string]string{
		"Accept": "application/json",
	}
	if options.Language != "" {
		headers["Accept-Language"] = options.Language
	}

	return &NominatimGeocoder{
		baseURL:    baseURL,
		httpClient: newHTTPClient(timeout, options.UserAgent, headers, options.TraceWriter, options.TraceBody),
	}
}

// DefaultUserAgent is sent when no User-Agent is configured.
const DefaultUserAgent = "geoconv/unknown"

// newHTTPClient builds a client that identifies itself with userAgent and
// optionally dumps its traffic to trace.
func newHTTPClient(
	timeout time.Duration,
	userAgent string,
	headers map[string]string,
	trace io.Writer,
	traceBody bool,
) *http.Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	all := map[string]string{"User-Agent": userAgent}
	for k, v := range headers {
		all[k] = v
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &httputils.AppendRequestHeadersRoundTripper{
			Headers: all,
			Transport: &httputils.LoggingRoundTripper{
				Writer:    trace,
				DumpBody:  traceBody,
				Transport: http.DefaultTransport,
			},
		},
	}
}

// Name implements ReverseGeocoder.
func (n *NominatimGeocoder) Name() string {
	return "nominatim"
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Reverse implements ReverseGeocoder.
func (n *NominatimGeocoder) Reverse(ctx context.Context, p spatial.Point) (*Result, error) {
	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(p.Lng, 'f', -1, 64))
	params.Set("zoom", "18")

	reqURL := n.baseURL + "/reverse?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, requestError(n.Name(), err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(n.Name(), resp.StatusCode)
	}

	var nResp nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&nResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	// Nominatim answers 200 with an error member for points in the ocean
	if nResp.Error != "" || nResp.DisplayName == "" {
		return nil, ErrNotFound
	}

	return &Result{
		Address:  nResp.DisplayName,
		Provider: n.Name(),
	}, nil
}
