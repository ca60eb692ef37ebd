// Package view holds the per-role projections over the shared report
// collection. Each view owns a live subscription and a read-only cached
// snapshot; all mutation goes back through the report service.
package view

import (
	"context"

	"cleanghana/internal/report"
)

// ReportService is the slice of the report service the views need.
type ReportService interface {
	Submit(ctx context.Context, n report.NewRecord) (report.Record, error)
	Transition(ctx context.Context, id string, target report.Status, role report.Role) (report.Record, error)
	Watch(ctx context.Context, f report.Filter) (*report.Subscription, error)
}

// Locator produces the current location, never failing outward.
type Locator interface {
	Resolve(ctx context.Context) report.Location
}
