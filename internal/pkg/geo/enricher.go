package geo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Location is what a punch event records about where it happened.
type Location struct {
	Point
	Label           *string
	OfficeDistanceM *float64
}

// Enricher attaches office distance and a reverse-geocoded label to a
// coordinate pair. It never fails: upstream problems only drop the label.
type Enricher struct {
	geocoder Geocoder
	cb       *gobreaker.CircuitBreaker
	timeout  time.Duration
	office   *Point
}

type EnricherConfig struct {
	// Office is the reference point for distance; nil disables distance.
	Office *Point
	// Timeout bounds a single geocoder call.
	Timeout time.Duration
}

// NewEnricher wraps geocoder (may be nil) in a circuit breaker.
func NewEnricher(geocoder Geocoder, cfg EnricherConfig) *Enricher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "Reverse-Geocoder",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &Enricher{
		geocoder: geocoder,
		cb:       gobreaker.NewCircuitBreaker(settings),
		timeout:  cfg.Timeout,
		office:   cfg.Office,
	}
}

// Enrich resolves p. The returned Location always carries p itself.
func (e *Enricher) Enrich(ctx context.Context, p Point) Location {
	loc := Location{Point: p}

	if e.office != nil {
		d := HaversineDistance(*e.office, p)
		loc.OfficeDistanceM = &d
	}

	if e.geocoder == nil {
		return loc
	}

	label, err := e.cb.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		return e.geocoder.ReverseGeocode(callCtx, p)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			slog.Debug("reverse geocoder skipped, circuit open")
		} else {
			slog.Warn("reverse geocoding failed", "error", err)
		}
		return loc
	}

	s := label.(string)
	loc.Label = &s
	return loc
}

// State exposes the breaker state for tests and diagnostics.
func (e *Enricher) State() gobreaker.State {
	return e.cb.State()
}
