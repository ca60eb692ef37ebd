package geolocate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"cleanghana/internal/platform/metrics"
	"cleanghana/internal/report"
	"cleanghana/pkg/circuit"
)

// Demo fallback: Legon, Accra. Used whenever no real fix can be obtained so
// the flow stays demonstrable on devices without GPS.
var fallbackCoords = Coordinates{Latitude: 5.6037, Longitude: -0.1870}

const (
	defaultFallbackAddress = "Legon, Accra (Default Fallback)"
	demoFallbackAddress    = "Legon, Accra (Demo Location Fallback)"
)

// Resolver produces a usable location no matter what fails underneath. The
// degradation ladder:
//
//  1. no positioning capability       -> demo coordinates, default fallback address
//  2. position ok, geocode ok         -> first 3 segments of the display name
//  3. position ok, geocode failed     -> "Lat: x, Lng: y (Geocoding Failed)"
//  4. position denied/unavailable     -> demo coordinates, demo fallback address
//
// Resolve never returns an error and the address is never empty.
type Resolver struct {
	provider     PositionProvider
	geocoder     Geocoder
	breaker      *circuit.Breaker
	probeCounter atomic.Uint64
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

const probeInterval = 10

// New builds a Resolver. provider may be nil, modeling a platform without a
// positioning capability. metrics may be nil.
func New(provider PositionProvider, geocoder Geocoder, m *metrics.Metrics, logger *slog.Logger) *Resolver {
	return &Resolver{
		provider: provider,
		geocoder: geocoder,
		breaker:  circuit.New("geocoder", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(1)),
		metrics:  m,
		logger:   logger,
	}
}

// Resolve produces the current location, degrading through the ladder above.
// Each call is single-shot; a newer call simply supersedes whatever an older
// one returns.
func (r *Resolver) Resolve(ctx context.Context) report.Location {
	if r.provider == nil {
		r.countFallback()
		return report.Location{
			Latitude:       fallbackCoords.Latitude,
			Longitude:      fallbackCoords.Longitude,
			DisplayAddress: defaultFallbackAddress,
		}
	}

	coords, err := r.provider.Position(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "position request failed, using demo fallback", "error", err)
		r.countFallback()
		return report.Location{
			Latitude:       fallbackCoords.Latitude,
			Longitude:      fallbackCoords.Longitude,
			DisplayAddress: demoFallbackAddress,
		}
	}

	return report.Location{
		Latitude:       coords.Latitude,
		Longitude:      coords.Longitude,
		DisplayAddress: r.displayAddress(ctx, coords),
	}
}

func (r *Resolver) displayAddress(ctx context.Context, coords Coordinates) string {
	if r.geocoder == nil {
		r.countFallback()
		return geocodeFailedAddress(coords)
	}
	if r.breaker.IsOpen() && !r.shouldProbe() {
		r.countFallback()
		return geocodeFailedAddress(coords)
	}

	name, err := r.geocoder.ReverseGeocode(ctx, coords)
	if err != nil {
		if _, change := r.breaker.RecordFailure(); change.Opened {
			r.logger.WarnContext(ctx, "geocoder circuit opened", "error", err)
		}
		if r.metrics != nil {
			r.metrics.GeocodeFailures.Inc()
		}
		r.countFallback()
		return geocodeFailedAddress(coords)
	}
	r.breaker.RecordSuccess()

	if name == "" {
		return coordinateAddress(coords)
	}
	return shortDisplayName(name)
}

// shortDisplayName keeps the first three comma-separated components of the
// geocoder's full result, e.g. "Street, City, Region".
func shortDisplayName(full string) string {
	parts := strings.Split(full, ",")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, ",")
}

func coordinateAddress(c Coordinates) string {
	return fmt.Sprintf("Lat: %.4f, Lng: %.4f", c.Latitude, c.Longitude)
}

func geocodeFailedAddress(c Coordinates) string {
	return coordinateAddress(c) + " (Geocoding Failed)"
}

// shouldProbe lets one in every probeInterval calls through an open breaker
// so it can close again once the geocoder recovers.
func (r *Resolver) shouldProbe() bool {
	return r.probeCounter.Add(1)%probeInterval == 0
}

func (r *Resolver) countFallback() {
	if r.metrics != nil {
		r.metrics.GeocodeFallbacks.Inc()
	}
}
