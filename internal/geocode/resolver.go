// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

// Package geocode resolves free-text addresses to coordinates through an
// external geocoding provider.
//
// The provider call is guarded three ways: a client-side rate limiter
// (free geocoding tiers typically allow 1 req/s), a circuit breaker that
// fast-fails while the provider is down, and a bounded per-call timeout.
// A provider outage therefore degrades into quick ErrUnavailable results
// instead of piling up blocked requests.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/placemark-app/placemark/internal/config"
	"github.com/placemark-app/placemark/internal/logging"
	"github.com/placemark-app/placemark/internal/metrics"
	"github.com/placemark-app/placemark/internal/models"
)

// Sentinel errors for resolver outcomes.
var (
	// ErrNoMatch means the provider answered but found no coordinates for
	// the address. This is a caller problem, not a provider failure, and
	// does not count against the circuit breaker.
	ErrNoMatch = errors.New("no match for address")

	// ErrUnavailable means the provider could not be reached, answered
	// with an error, timed out, or the circuit breaker rejected the call.
	ErrUnavailable = errors.New("geocoding provider unavailable")
)

// Resolver translates an address into coordinates.
type Resolver interface {
	Resolve(ctx context.Context, address string) (models.Location, error)
}

// Client is the HTTP resolver for a maps.co-compatible geocoding API.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[models.Location]
}

// result is one entry of the provider's response array. The provider
// serializes coordinates as strings.
type result struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// NewClient creates a resolver from the geocode configuration.
func NewClient(cfg *config.GeocodeConfig) *Client {
	cb := gobreaker.NewCircuitBreaker[models.Location](gobreaker.Settings{
		Name:        "geocode-provider",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		// Open after a 60% failure rate with at least 5 calls in the window.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},

		// ErrNoMatch is a successful provider round trip.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoMatch)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Geocoder circuit breaker state transition")
			metrics.GeocodeBreakerState.Set(stateToFloat(to))
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		cb:      cb,
	}
}

// Resolve translates address into coordinates. The whole call, including
// any wait imposed by the rate limiter, is bounded by the configured
// timeout; exceeding it returns ErrUnavailable.
func (c *Client) Resolve(ctx context.Context, address string) (models.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.GeocodeRequests.WithLabelValues("unavailable").Inc()
		return models.Location{}, fmt.Errorf("%w: rate limiter wait: %v", ErrUnavailable, err)
	}

	start := time.Now()
	loc, err := c.cb.Execute(func() (models.Location, error) {
		return c.fetch(ctx, address)
	})
	metrics.GeocodeDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.GeocodeRequests.WithLabelValues("success").Inc()
		return loc, nil
	case errors.Is(err, ErrNoMatch):
		metrics.GeocodeRequests.WithLabelValues("no_match").Inc()
		return models.Location{}, err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.GeocodeRequests.WithLabelValues("rejected").Inc()
		return models.Location{}, fmt.Errorf("%w: circuit open", ErrUnavailable)
	default:
		metrics.GeocodeRequests.WithLabelValues("unavailable").Inc()
		if errors.Is(err, ErrUnavailable) {
			return models.Location{}, err
		}
		return models.Location{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// fetch performs the actual provider round trip.
func (c *Client) fetch(ctx context.Context, address string) (models.Location, error) {
	q := url.Values{}
	q.Set("q", address)
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return models.Location{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Location{}, fmt.Errorf("%w: provider returned %d", ErrUnavailable, resp.StatusCode)
	}

	var results []result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return models.Location{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	if len(results) == 0 {
		return models.Location{}, ErrNoMatch
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: bad latitude %q", ErrUnavailable, results[0].Lat)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: bad longitude %q", ErrUnavailable, results[0].Lon)
	}

	return models.Location{Lat: lat, Lng: lng}, nil
}

// stateToFloat maps breaker states onto the gauge's encoding.
func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
