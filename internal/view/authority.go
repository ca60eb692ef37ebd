package view

import (
	"context"
	"sync"

	"cleanghana/internal/report"
)

// Counts summarises the authority dashboard header.
type Counts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Resolved int `json:"resolved"`
}

// AuthorityView streams waste reports and lets an authority resolve them.
type AuthorityView struct {
	svc ReportService
	sub *report.Subscription

	mu       sync.RWMutex
	snapshot report.Snapshot

	done      chan struct{}
	closeOnce sync.Once
}

// NewAuthorityView subscribes to waste reports and starts consuming
// snapshots. Close must be called to release the subscription.
func NewAuthorityView(ctx context.Context, svc ReportService) (*AuthorityView, error) {
	sub, err := svc.Watch(ctx, report.Filter{Type: report.TypeWasteReport})
	if err != nil {
		return nil, err
	}
	v := &AuthorityView{
		svc:  svc,
		sub:  sub,
		done: make(chan struct{}),
	}
	go v.consume()
	return v, nil
}

func (v *AuthorityView) consume() {
	defer close(v.done)
	for snap := range v.sub.Updates() {
		v.mu.Lock()
		v.snapshot = snap
		v.mu.Unlock()
	}
}

// Reports returns the latest snapshot, newest first.
func (v *AuthorityView) Reports() report.Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(report.Snapshot, len(v.snapshot))
	copy(out, v.snapshot)
	return out
}

// Counts derives the summary counters from the cached snapshot.
func (v *AuthorityView) Counts() Counts {
	v.mu.RLock()
	defer v.mu.RUnlock()
	c := Counts{Total: len(v.snapshot)}
	for _, r := range v.snapshot {
		switch r.Status {
		case report.StatusPending:
			c.Pending++
		case report.StatusResolved:
			c.Resolved++
		}
	}
	return c
}

// CanResolve reports whether the resolve action applies to the record.
func (v *AuthorityView) CanResolve(r report.Record) bool {
	return report.CanTransition(r, report.RoleAuthority)
}

// Resolve marks a waste report resolved on behalf of the authority.
func (v *AuthorityView) Resolve(ctx context.Context, id string) (report.Record, error) {
	return v.svc.Transition(ctx, id, report.StatusResolved, report.RoleAuthority)
}

// Close tears the subscription down and waits for the consumer to stop.
func (v *AuthorityView) Close() {
	v.closeOnce.Do(func() {
		v.sub.Unsubscribe()
		<-v.done
	})
}
