package geolocate

import (
	"context"
	"fmt"
)

// Coordinates is a bare GPS fix.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// PositionErrorCode mirrors the error classes a device positioning API
// reports.
type PositionErrorCode int

const (
	PositionPermissionDenied PositionErrorCode = iota + 1
	PositionUnavailable
	PositionTimeout
)

// PositionError is a failed single-shot position request.
type PositionError struct {
	Code PositionErrorCode
}

func (e *PositionError) Error() string {
	switch e.Code {
	case PositionPermissionDenied:
		return "position request: permission denied"
	case PositionUnavailable:
		return "position request: position unavailable"
	case PositionTimeout:
		return "position request: timed out"
	default:
		return fmt.Sprintf("position request: error code %d", e.Code)
	}
}

// PositionProvider abstracts the device positioning capability: one-shot
// "get current position", no continuous tracking.
type PositionProvider interface {
	Position(ctx context.Context) (Coordinates, error)
}

// StaticProvider always reports a fixed position. Used for demo deployments
// and tests.
type StaticProvider struct {
	Coords Coordinates
}

func (p StaticProvider) Position(context.Context) (Coordinates, error) {
	return p.Coords, nil
}

// FailingProvider simulates a device that has the capability but cannot
// produce a fix (denied permission, no signal, timeout).
type FailingProvider struct {
	Code PositionErrorCode
}

func (p FailingProvider) Position(context.Context) (Coordinates, error) {
	return Coordinates{}, &PositionError{Code: p.Code}
}
