// Package session ties an authenticated identity to a selected role for
// the lifetime of one client session. Role selection is an explicit step
// after sign-in and is cleared again on logout.
package session

import (
	"context"
	"log/slog"
	"sync"

	"cleanghana/internal/identity"
	"cleanghana/internal/report"
	"cleanghana/pkg/domainerrors"
	"cleanghana/pkg/platform/audit"
)

// Session is one signed-in client. The zero role means the role picker
// has not been answered yet; every role-gated surface checks it.
type Session struct {
	provider *identity.Provider
	audit    *audit.Publisher
	logger   *slog.Logger

	mu       sync.Mutex
	identity identity.Identity
	token    string
	role     report.Role
	active   bool
}

func New(provider *identity.Provider, auditPub *audit.Publisher, logger *slog.Logger) *Session {
	return &Session{provider: provider, audit: auditPub, logger: logger}
}

// StartAnonymous signs in a fresh anonymous identity. Starting an
// already-active session is a conflict.
func (s *Session) StartAnonymous(ctx context.Context) (identity.Identity, error) {
	return s.start(ctx, func() (identity.Identity, string, error) {
		return s.provider.SignInAnonymously(ctx)
	})
}

// StartWithToken signs in with an externally issued custom token.
func (s *Session) StartWithToken(ctx context.Context, token string) (identity.Identity, error) {
	return s.start(ctx, func() (identity.Identity, string, error) {
		return s.provider.SignInWithCustomToken(ctx, token)
	})
}

func (s *Session) start(ctx context.Context, signIn func() (identity.Identity, string, error)) (identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return identity.Identity{}, domainerrors.New(domainerrors.CodeConflict, "session already started")
	}

	ident, token, err := signIn()
	if err != nil {
		return identity.Identity{}, err
	}
	s.identity = ident
	s.token = token
	s.role = ""
	s.active = true

	s.logger.InfoContext(ctx, "session started", "identity_id", ident.ID, "anonymous", ident.Anonymous)
	s.emit(ctx, audit.Event{
		Action:     audit.ActionSessionStarted,
		IdentityID: ident.ID,
	})
	return ident, nil
}

// SelectRole answers the role picker. Only valid on an active session.
func (s *Session) SelectRole(role report.Role) error {
	if _, err := report.ParseRole(string(role)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return domainerrors.New(domainerrors.CodeUnauthorized, "no active session")
	}
	s.role = role
	return nil
}

// Role returns the selected role, empty until SelectRole.
func (s *Session) Role() report.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// Identity returns the signed-in identity and whether the session is active.
func (s *Session) Identity() (identity.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.active
}

// Token returns the bearer token issued at sign-in.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// End signs out and clears the selected role, returning the client to
// the role picker. Ending an inactive session is a no-op.
func (s *Session) End(ctx context.Context) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	ident := s.identity
	s.identity = identity.Identity{}
	s.token = ""
	s.role = ""
	s.active = false
	s.mu.Unlock()

	s.provider.SignOut(ctx)
	s.logger.InfoContext(ctx, "session ended", "identity_id", ident.ID)
	s.emit(ctx, audit.Event{
		Action:     audit.ActionSessionEnded,
		IdentityID: ident.ID,
	})
}

func (s *Session) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(ctx, event)
}
