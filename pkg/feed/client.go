// Package feed pulls aircraft reports from remote ADS-B data sources.
// Each configured source gets its own background worker that publishes
// snapshots through a mutex-guarded cell; the frame loop reads whatever
// snapshot is currently available and never blocks on the network.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/unklstewy/airscope/pkg/geo"
	"github.com/unklstewy/airscope/pkg/track"
)

// MaxRadiusNM is the largest search radius the aggregator APIs accept.
const MaxRadiusNM = 250.0

// Client fetches aircraft reports from one HTTP aggregator endpoint.
// Requests are rate limited client-side so a misbehaving poll loop
// cannot get the source banned.
type Client struct {
	// source is the configured feed name, carried into reports' origin.
	source string

	// baseURL is the API base URL without a trailing slash.
	baseURL string

	// apiKey is sent as the x-apikey header when set. The public
	// aggregators do not require one.
	apiKey string

	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for the named source. requestsPerSecond
// caps the outbound request rate (1.0 for the public aggregators).
func NewClient(source, baseURL string, requestsPerSecond float64) *Client {
	return &Client{
		source:  source,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Source returns the configured feed name.
func (c *Client) Source() string {
	return c.source
}

// SetAPIKey enables API key authentication for sources that require it.
func (c *Client) SetAPIKey(key string) {
	c.apiKey = key
}

// Fetch returns all aircraft within radiusNM of center. The radius is
// capped at MaxRadiusNM. Blocks on the rate limiter if called faster
// than the configured request rate.
func (c *Client) Fetch(ctx context.Context, center geo.Point, radiusNM float64) ([]track.Report, error) {
	if radiusNM > MaxRadiusNM {
		radiusNM = MaxRadiusNM
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	url := fmt.Sprintf("%s/point/%.4f/%.4f/%.0f", c.baseURL, center.Latitude, center.Longitude, radiusNM)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-apikey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch aircraft data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header),
		}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("parse API response: %w", err)
	}

	reports := make([]track.Report, 0, len(apiResp.Aircraft))
	for _, ac := range apiResp.Aircraft {
		if ac.Hex == "" {
			continue
		}
		reports = append(reports, convertWireAircraft(ac))
	}
	return reports, nil
}

// feedResponse is the JSON envelope shared by the readsb-style
// aggregator APIs.
type feedResponse struct {
	// Aircraft is the array of aircraft records.
	Aircraft []wireAircraft `json:"ac"`

	// Total is the number of aircraft in the response.
	Total int `json:"total"`

	// Now is the server timestamp.
	Now float64 `json:"now"`
}

// wireAircraft is a single aircraft record on the wire. Pointer fields
// are omitted by the API when the aircraft has not broadcast the value.
type wireAircraft struct {
	// Hex is the ICAO Mode S hex code (e.g., "a12345").
	Hex string `json:"hex"`

	// Flight is the callsign, padded with trailing spaces.
	Flight *string `json:"flight"`

	// Lat and Lon are the position in decimal degrees.
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`

	// AltBaro is barometric altitude in feet, or the string "ground".
	AltBaro interface{} `json:"alt_baro"`

	// Gs is ground speed in knots.
	Gs *float64 `json:"gs"`

	// Track is ground track in degrees (0-360).
	Track *float64 `json:"track"`

	// BaroRate is barometric vertical rate in feet/minute.
	BaroRate *float64 `json:"baro_rate"`

	// Squawk is the transponder code.
	Squawk *string `json:"squawk"`

	// Emergency is the emergency state ("none" when clear).
	Emergency *string `json:"emergency"`

	// Alert and SPI are transponder status flags (0 or 1).
	Alert *int `json:"alert"`
	SPI   *int `json:"spi"`
}

// convertWireAircraft maps a wire record to a sparse report, keeping the
// supplied/omitted distinction intact.
func convertWireAircraft(ac wireAircraft) track.Report {
	r := track.Report{
		ICAO:      ac.Hex,
		Latitude:  ac.Lat,
		Longitude: ac.Lon,
		Squawk:    ac.Squawk,
	}

	if ac.Flight != nil {
		cs := trimCallsign(*ac.Flight)
		r.Callsign = &cs
	}

	// "ground" means the aircraft is on the surface; only numeric
	// values become an altitude.
	switch v := ac.AltBaro.(type) {
	case float64:
		alt := int(v)
		r.Altitude = &alt
	case string:
		if v == "ground" {
			onGround := true
			r.OnGround = &onGround
		}
	}

	if ac.Track != nil {
		r.Heading = ac.Track
	}
	r.GroundSpeed = ac.Gs
	if ac.BaroRate != nil {
		vr := int(*ac.BaroRate)
		r.VerticalRate = &vr
	}
	if ac.Emergency != nil {
		emergency := *ac.Emergency != "" && *ac.Emergency != "none"
		r.Emergency = &emergency
	}
	if ac.Alert != nil {
		alert := *ac.Alert != 0
		r.Alert = &alert
	}
	if ac.SPI != nil {
		spi := *ac.SPI != 0
		r.SPI = &spi
	}
	return r
}

// trimCallsign strips the trailing space padding aggregators leave on
// callsigns.
func trimCallsign(s string) string {
	end := len(s)
	for end > 0 && s[end-1] == ' ' {
		end--
	}
	return s[:end]
}
