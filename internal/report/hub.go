package report

import (
	"context"
	"sync"
	"time"

	"cleanghana/internal/platform/metrics"
	"cleanghana/pkg/sentinel"
)

// Subscription is a cancellable live snapshot feed. The channel carries one
// Snapshot per backend change; an undelivered stale snapshot is replaced by
// a newer one rather than queued. The channel is closed on Unsubscribe and
// on store shutdown.
type Subscription struct {
	ch     chan Snapshot
	filter Filter
	hub    *hub
}

// Updates is the snapshot channel. It closes when the subscription ends.
func (s *Subscription) Updates() <-chan Snapshot { return s.ch }

// Filter returns the type filter this subscription was opened with.
func (s *Subscription) Filter() Filter { return s.filter }

// Unsubscribe stops delivery. After it returns no further snapshot is
// observable on Updates.
func (s *Subscription) Unsubscribe() {
	s.hub.remove(s)
}

// hub fans snapshots out to subscribers. Both store implementations embed
// one; they differ only in how a snapshot is fetched.
type hub struct {
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	metrics *metrics.Metrics
	closed  bool
}

func newHub(m *metrics.Metrics) *hub {
	return &hub{subs: make(map[*Subscription]struct{}), metrics: m}
}

// subscribe registers a feed and pushes the initial snapshot before the
// hub lock drops, so no Unsubscribe, Close or broadcast can interleave
// between registration and first delivery. fetch runs under the hub lock
// and must not call back into the hub.
func (h *hub) subscribe(ctx context.Context, f Filter, fetch func(context.Context, Filter) (Snapshot, error)) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, sentinel.ErrClosed
	}
	snap, err := fetch(ctx, f)
	if err != nil {
		return nil, err
	}
	s := &Subscription{ch: make(chan Snapshot, 1), filter: f, hub: h}
	h.subs[s] = struct{}{}
	if h.metrics != nil {
		h.metrics.ActiveSubscriptions.Inc()
	}
	push(s.ch, snap)
	return s, nil
}

// broadcast pushes a fresh snapshot to every subscriber. fetch is called per
// distinct filter under the hub lock, so it must not call back into the hub.
func (h *hub) broadcast(ctx context.Context, fetch func(context.Context, Filter) (Snapshot, error)) error {
	start := time.Now()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return sentinel.ErrClosed
	}

	var firstErr error
	byFilter := make(map[Filter]Snapshot)
	for s := range h.subs {
		snap, ok := byFilter[s.filter]
		if !ok {
			var err error
			snap, err = fetch(ctx, s.filter)
			if err != nil {
				// Subscribers keep their last good snapshot on fetch errors.
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			byFilter[s.filter] = snap
		}
		push(s.ch, snap)
	}

	if h.metrics != nil {
		h.metrics.SnapshotFanoutMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}
	return firstErr
}

// push delivers latest-wins: a snapshot the subscriber has not consumed yet
// is dropped in favor of the new one.
func push(ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func (h *hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	// Drain before closing so a blocked receiver observes the close, not a
	// stale buffered snapshot.
	select {
	case <-s.ch:
	default:
	}
	close(s.ch)
	if h.metrics != nil {
		h.metrics.ActiveSubscriptions.Dec()
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		select {
		case <-s.ch:
		default:
		}
		close(s.ch)
		if h.metrics != nil {
			h.metrics.ActiveSubscriptions.Dec()
		}
	}
}
