package report

import (
	"context"
)

// Store is the sole gateway to the shared report collection. Implementations
// own record identity and persistence; everything above holds read-only
// projections refreshed by subscription pushes.
//
// Subscription guarantees: every committed Create or UpdateStatus is
// eventually reflected in all active subscriptions matching the filter, as an
// at-least-once push of the full current snapshot. There is no causal
// ordering between a subscriber's own writes and its next push; momentarily
// stale views are acceptable.
type Store interface {
	// Create persists a fully formed record, assigning ID, CreatedAt and the
	// initial status for its type. Rejects invalid submissions defensively
	// even though the service validates first.
	Create(ctx context.Context, n NewRecord) (Record, error)

	// Get returns one record or sentinel.ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// List returns the current snapshot for the filter, ordered by CreatedAt
	// descending.
	List(ctx context.Context, f Filter) (Snapshot, error)

	// UpdateStatus overwrites exactly the status field, last writer wins.
	// Returns the updated record, or sentinel.ErrNotFound. It does not
	// re-validate other fields and does not consult the lifecycle table;
	// that is the service's job.
	UpdateStatus(ctx context.Context, id string, status Status) (Record, error)

	// Subscribe registers a live snapshot feed for the filter. The initial
	// snapshot is pushed immediately. Unsubscribe stops delivery; no pushes
	// are observable after it returns.
	Subscribe(ctx context.Context, f Filter) (*Subscription, error)

	// Close tears down all subscriptions and background work.
	Close() error
}
