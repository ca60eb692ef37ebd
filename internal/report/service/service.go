package service

import (
	"context"
	"errors"
	"log/slog"

	"cleanghana/internal/platform/metrics"
	"cleanghana/internal/platform/middleware"
	"cleanghana/internal/report"
	"cleanghana/pkg/domainerrors"
	"cleanghana/pkg/platform/audit"
	"cleanghana/pkg/sentinel"
)

// Store is the gateway subset the service needs.
type Store interface {
	Create(ctx context.Context, n report.NewRecord) (report.Record, error)
	Get(ctx context.Context, id string) (report.Record, error)
	List(ctx context.Context, f report.Filter) (report.Snapshot, error)
	UpdateStatus(ctx context.Context, id string, status report.Status) (report.Record, error)
	Subscribe(ctx context.Context, f report.Filter) (*report.Subscription, error)
}

// Service validates submissions and enforces the lifecycle before any store
// write. It keeps orchestration out of handlers and domain logic thin.
type Service struct {
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	audit   *audit.Publisher
}

func New(store Store, m *metrics.Metrics, logger *slog.Logger, auditPub *audit.Publisher) *Service {
	return &Service{store: store, metrics: m, logger: logger, audit: auditPub}
}

// Submit creates a record. Validation happens before any store call; a
// missing location or required field never reaches the backend. Waste
// reports without a photo get the documented placeholder reference.
func (s *Service) Submit(ctx context.Context, n report.NewRecord) (report.Record, error) {
	if n.Type == report.TypeWasteReport && n.ImageRef == "" {
		n.ImageRef = report.PlaceholderImageRef
	}
	if err := n.Validate(); err != nil {
		return report.Record{}, err
	}

	rec, err := s.store.Create(ctx, n)
	if err != nil {
		s.logger.ErrorContext(ctx, "record create failed",
			"request_id", middleware.GetRequestID(ctx),
			"type", n.Type,
			"error", err,
		)
		return report.Record{}, domainerrors.Wrap(domainerrors.CodeUnavailable, "could not save the record, please retry", err)
	}

	if s.metrics != nil {
		s.metrics.RecordsCreated.WithLabelValues(string(rec.Type)).Inc()
	}
	s.emit(ctx, audit.Event{
		Action:     audit.ActionRecordCreated,
		RecordID:   rec.ID,
		RecordType: string(rec.Type),
		IdentityID: rec.ReporterID,
		Role:       string(report.RoleCitizen),
	})
	return rec, nil
}

// Transition moves a record to its terminal status on behalf of role. A
// repeat of an already-applied transition returns the record unchanged with
// no error and no side effects.
func (s *Service) Transition(ctx context.Context, id string, target report.Status, role report.Role) (report.Record, error) {
	rec, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return report.Record{}, domainerrors.New(domainerrors.CodeNotFound, "record not found: "+id)
	}
	if err != nil {
		return report.Record{}, domainerrors.Wrap(domainerrors.CodeUnavailable, "could not load the record", err)
	}

	apply, err := report.Transition(rec, target, role)
	if err != nil {
		return report.Record{}, err
	}
	if !apply {
		return rec, nil
	}

	updated, err := s.store.UpdateStatus(ctx, id, target)
	if errors.Is(err, sentinel.ErrNotFound) {
		return report.Record{}, domainerrors.New(domainerrors.CodeNotFound, "record not found: "+id)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "status update failed",
			"request_id", middleware.GetRequestID(ctx),
			"record_id", id,
			"error", err,
		)
		return report.Record{}, domainerrors.Wrap(domainerrors.CodeUnavailable, "could not update the record, please retry", err)
	}

	if s.metrics != nil {
		s.metrics.TransitionsApplied.WithLabelValues(string(updated.Type), string(updated.Status)).Inc()
	}
	s.emit(ctx, audit.Event{
		Action:     transitionAction(updated.Type),
		RecordID:   updated.ID,
		RecordType: string(updated.Type),
		IdentityID: middleware.GetIdentityID(ctx),
		Role:       string(role),
	})
	return updated, nil
}

// List returns the current snapshot for the filter.
func (s *Service) List(ctx context.Context, f report.Filter) (report.Snapshot, error) {
	snap, err := s.store.List(ctx, f)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeUnavailable, "could not load records", err)
	}
	return snap, nil
}

// Watch opens a live snapshot subscription.
func (s *Service) Watch(ctx context.Context, f report.Filter) (*report.Subscription, error) {
	sub, err := s.store.Subscribe(ctx, f)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeUnavailable, "could not open live feed", err)
	}
	return sub, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.RequestID = middleware.GetRequestID(ctx)
	s.audit.Emit(ctx, event)
}

func transitionAction(t report.Type) audit.Action {
	if t == report.TypeRecyclingRequest {
		return audit.ActionRecordCollected
	}
	return audit.ActionRecordResolved
}
