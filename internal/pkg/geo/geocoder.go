package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrNoAddress = errors.New("geocoder returned no address")

// Geocoder resolves coordinates to a human-readable place label.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, p Point) (string, error)
}

// HTTPGeocoder calls a Nominatim-compatible reverse endpoint:
// GET {baseURL}?lat=..&lon=..&format=jsonv2 -> {"display_name": "..."}.
type HTTPGeocoder struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

func NewHTTPGeocoder(baseURL string, timeout time.Duration) *HTTPGeocoder {
	return &HTTPGeocoder{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:   baseURL,
		userAgent: "wishery-crm-attendance/1.0",
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
}

// ReverseGeocode implements Geocoder.
func (g *HTTPGeocoder) ReverseGeocode(ctx context.Context, p Point) (string, error) {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid geocoder url: %w", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(p.Latitude, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(p.Longitude, 'f', 6, 64))
	q.Set("format", "jsonv2")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create geocoder request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocoder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	if body.DisplayName == "" {
		return "", ErrNoAddress
	}

	return body.DisplayName, nil
}
