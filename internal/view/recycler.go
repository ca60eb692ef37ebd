package view

import (
	"context"
	"sync"

	"cleanghana/internal/report"
)

// RecyclerView streams recycling requests and lets a recycler mark
// pickups as collected.
type RecyclerView struct {
	svc ReportService
	sub *report.Subscription

	mu       sync.RWMutex
	snapshot report.Snapshot

	done      chan struct{}
	closeOnce sync.Once
}

func NewRecyclerView(ctx context.Context, svc ReportService) (*RecyclerView, error) {
	sub, err := svc.Watch(ctx, report.Filter{Type: report.TypeRecyclingRequest})
	if err != nil {
		return nil, err
	}
	v := &RecyclerView{
		svc:  svc,
		sub:  sub,
		done: make(chan struct{}),
	}
	go v.consume()
	return v, nil
}

func (v *RecyclerView) consume() {
	defer close(v.done)
	for snap := range v.sub.Updates() {
		v.mu.Lock()
		v.snapshot = snap
		v.mu.Unlock()
	}
}

// Requests returns the latest snapshot, newest first.
func (v *RecyclerView) Requests() report.Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(report.Snapshot, len(v.snapshot))
	copy(out, v.snapshot)
	return out
}

// Ready counts requests still awaiting collection.
func (v *RecyclerView) Ready() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n := 0
	for _, r := range v.snapshot {
		if r.Status == report.StatusReady {
			n++
		}
	}
	return n
}

// CanCollect reports whether the collect action applies to the record.
func (v *RecyclerView) CanCollect(r report.Record) bool {
	return report.CanTransition(r, report.RoleRecycler)
}

// Collect marks a recycling request collected on behalf of the recycler.
func (v *RecyclerView) Collect(ctx context.Context, id string) (report.Record, error) {
	return v.svc.Transition(ctx, id, report.StatusCollected, report.RoleRecycler)
}

func (v *RecyclerView) Close() {
	v.closeOnce.Do(func() {
		v.sub.Unsubscribe()
		<-v.done
	})
}
