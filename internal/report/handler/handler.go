// Package handler exposes the report gateway over HTTP: JSON CRUD plus a
// server-sent-events stream carrying one full snapshot per change.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cleanghana/internal/platform/middleware"
	"cleanghana/internal/report"
	"cleanghana/internal/transport/http/shared"
	"cleanghana/pkg/domainerrors"
)

// Service defines the interface for report operations.
type Service interface {
	Submit(ctx context.Context, n report.NewRecord) (report.Record, error)
	Transition(ctx context.Context, id string, target report.Status, role report.Role) (report.Record, error)
	List(ctx context.Context, f report.Filter) (report.Snapshot, error)
	Watch(ctx context.Context, f report.Filter) (*report.Subscription, error)
}

// Locator resolves the caller's position, never failing outward.
type Locator interface {
	Resolve(ctx context.Context) report.Location
}

// Handler wires report endpoints to the report service.
type Handler struct {
	service   Service
	locator   Locator
	validator middleware.TokenValidator
	logger    *slog.Logger
}

func New(service Service, locator Locator, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		locator:   locator,
		validator: validator,
		logger:    logger,
	}
}

// Register mounts the report routes. The stream endpoint lives outside
// the timeout wrapper because it holds the connection open.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(api chi.Router) {
		api.With(middleware.RequireAuth(h.validator, h.logger)).
			Get("/reports/stream", h.handleStream)

		api.Group(func(g chi.Router) {
			g.Use(middleware.Timeout(30 * time.Second))
			g.Use(middleware.ContentTypeJSON)
			g.Use(middleware.RequireAuth(h.validator, h.logger))
			g.Post("/reports", h.handleCreate)
			g.Get("/reports", h.handleList)
			g.Post("/reports/{id}/status", h.handleStatus)
			g.Get("/locate", h.handleLocate)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	reporterID := middleware.GetIdentityID(ctx)
	if reporterID == "" {
		h.logger.ErrorContext(ctx, "identity missing from context despite auth middleware",
			"request_id", requestID,
		)
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInternal, "authentication context error"))
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid create request",
			"request_id", requestID,
			"error", err,
		)
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	rec, err := h.service.Submit(ctx, req.ToNewRecord(reporterID))
	if err != nil {
		if !domainerrors.Is(err, domainerrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "record create failed",
				"request_id", requestID,
				"type", req.Type,
				"error", err,
			)
		}
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "record created",
		"request_id", requestID,
		"record_id", rec.ID,
		"type", rec.Type,
	)
	shared.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	f, err := parseFilter(r.URL.Query().Get("type"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	snap, err := h.service.List(ctx, f)
	if err != nil {
		h.logger.ErrorContext(ctx, "record list failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, NewListResponse(snap))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	id := chi.URLParam(r, "id")

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}
	target, role, err := req.Parse()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	rec, err := h.service.Transition(ctx, id, target, role)
	if err != nil {
		if domainerrors.Is(err, domainerrors.CodeUnavailable) || domainerrors.Is(err, domainerrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "record transition failed",
				"request_id", requestID,
				"record_id", id,
				"error", err,
			)
		}
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "record transitioned",
		"request_id", requestID,
		"record_id", rec.ID,
		"status", rec.Status,
		"role", role,
	)
	shared.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleLocate(w http.ResponseWriter, r *http.Request) {
	loc := h.locator.Resolve(r.Context())
	shared.WriteJSON(w, http.StatusOK, loc)
}

// handleStream pushes one SSE "snapshot" event per change until the
// client disconnects. Each event carries the full filtered result set.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	f, err := parseFilter(r.URL.Query().Get("type"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInternal, "streaming unsupported"))
		return
	}

	sub, err := h.service.Watch(ctx, f)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.InfoContext(ctx, "stream opened",
		"request_id", requestID,
		"type", f.Type,
	)

	for {
		select {
		case <-ctx.Done():
			return
		case snap, open := <-sub.Updates():
			if !open {
				return
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				h.logger.ErrorContext(ctx, "snapshot marshal failed",
					"request_id", requestID,
					"error", err,
				)
				return
			}
			if _, err := w.Write([]byte("event: snapshot\ndata: ")); err != nil {
				return
			}
			if _, err := w.Write(payload); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
