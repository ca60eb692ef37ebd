package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cleanghana/internal/identity"
	"cleanghana/internal/platform/middleware"
	"cleanghana/internal/transport/http/shared"
	"cleanghana/pkg/domainerrors"
)

// IdentityService signs clients in and issues bearer tokens.
type IdentityService interface {
	SignInAnonymously(ctx context.Context) (identity.Identity, string, error)
	SignInWithCustomToken(ctx context.Context, rawToken string) (identity.Identity, string, error)
}

// AuthHandler exposes the sign-in endpoints. They sit outside RequireAuth
// since they are how a client obtains a token in the first place.
type AuthHandler struct {
	identity IdentityService
	logger   *slog.Logger
}

func NewAuthHandler(svc IdentityService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{identity: svc, logger: logger}
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/api/auth/anonymous", h.handleAnonymous)
	r.Post("/api/auth/token", h.handleCustomToken)
}

// SignInResponse returns the signed-in identity and its bearer token.
type SignInResponse struct {
	IdentityID string `json:"identityId"`
	Anonymous  bool   `json:"anonymous"`
	Token      string `json:"token"`
}

func (h *AuthHandler) handleAnonymous(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident, token, err := h.identity.SignInAnonymously(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "anonymous sign-in failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, domainerrors.Wrap(domainerrors.CodeInternal, "sign-in failed", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, SignInResponse{
		IdentityID: ident.ID,
		Anonymous:  ident.Anonymous,
		Token:      token,
	})
}

type customTokenRequest struct {
	Token string `json:"token"`
}

func (h *AuthHandler) handleCustomToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req customTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "token is required"))
		return
	}

	ident, token, err := h.identity.SignInWithCustomToken(ctx, req.Token)
	if err != nil {
		h.logger.WarnContext(ctx, "custom token sign-in rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, domainerrors.Wrap(domainerrors.CodeUnauthorized, "invalid custom token", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, SignInResponse{
		IdentityID: ident.ID,
		Anonymous:  ident.Anonymous,
		Token:      token,
	})
}
