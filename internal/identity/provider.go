// Package identity stands in for the external anonymous-auth provider the
// clients bootstrap against. It hands out opaque identities and bearer
// tokens, and exposes the auth-state change stream the session layer
// consumes. No user management: identities are anonymous unless a custom
// token vouches otherwise.
package identity

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"cleanghana/internal/platform/middleware"
	"cleanghana/pkg/domainerrors"
)

// Identity is the opaque principal an authenticated caller acts as.
type Identity struct {
	ID        string `json:"id"`
	Anonymous bool   `json:"anonymous"`
}

const tokenTTL = 24 * time.Hour

// Provider issues and validates bearer tokens. Tokens are HS256 JWTs; the
// signing key is the configured custom-token key when present, otherwise a
// random per-process key (anonymous-only mode).
type Provider struct {
	signingKey []byte
	customKey  []byte
	now        func() time.Time

	mu        sync.Mutex
	listeners map[chan *Identity]struct{}
}

// NewProvider builds a Provider. customTokenKey may be empty; custom-token
// sign-in is then rejected while anonymous sign-in still works.
func NewProvider(customTokenKey string) *Provider {
	p := &Provider{
		now:       time.Now,
		listeners: make(map[chan *Identity]struct{}),
	}
	if customTokenKey != "" {
		p.customKey = []byte(customTokenKey)
		p.signingKey = p.customKey
	} else {
		key := make([]byte, 32)
		_, _ = rand.Read(key)
		p.signingKey = key
	}
	return p
}

// SignInAnonymously mints a fresh anonymous identity and its bearer token.
func (p *Provider) SignInAnonymously(_ context.Context) (Identity, string, error) {
	ident := Identity{ID: "anon-" + uuid.NewString(), Anonymous: true}
	token, err := p.issueToken(ident.ID)
	if err != nil {
		return Identity{}, "", err
	}
	p.notify(&ident)
	return ident, token, nil
}

// SignInWithCustomToken exchanges a pre-supplied token for a session. The
// token must be signed with the configured custom-token key and carry the
// identity in its subject claim.
func (p *Provider) SignInWithCustomToken(_ context.Context, rawToken string) (Identity, string, error) {
	if len(p.customKey) == 0 {
		return Identity{}, "", domainerrors.New(domainerrors.CodeUnauthorized, "custom token sign-in is not configured")
	}

	parsed, err := jwt.Parse(rawToken, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return p.customKey, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, "", domainerrors.New(domainerrors.CodeUnauthorized, "invalid custom token")
	}
	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return Identity{}, "", domainerrors.New(domainerrors.CodeUnauthorized, "custom token has no subject")
	}

	ident := Identity{ID: subject}
	token, err := p.issueToken(ident.ID)
	if err != nil {
		return Identity{}, "", err
	}
	p.notify(&ident)
	return ident, token, nil
}

// SignOut announces the end of an identity's session on the auth-state
// stream. Tokens are not revoked; they simply expire.
func (p *Provider) SignOut(_ context.Context) {
	p.notify(nil)
}

// ValidateToken implements middleware.TokenValidator.
func (p *Provider) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return p.signingKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, domainerrors.New(domainerrors.CodeUnauthorized, "invalid or expired token")
	}
	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return nil, domainerrors.New(domainerrors.CodeUnauthorized, "token has no subject")
	}
	return &middleware.TokenClaims{IdentityID: subject}, nil
}

// OnAuthStateChanged subscribes to sign-in/sign-out events. A nil Identity
// means signed out. The returned cancel stops delivery.
func (p *Provider) OnAuthStateChanged() (<-chan *Identity, func()) {
	ch := make(chan *Identity, 4)
	p.mu.Lock()
	p.listeners[ch] = struct{}{}
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.listeners[ch]; ok {
			delete(p.listeners, ch)
			close(ch)
		}
	}
	return ch, cancel
}

func (p *Provider) notify(ident *Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.listeners {
		select {
		case ch <- ident:
		default:
			// Slow listener, drop rather than block sign-in.
		}
	}
}

func (p *Provider) issueToken(subject string) (string, error) {
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	})
	signed, err := token.SignedString(p.signingKey)
	if err != nil {
		return "", domainerrors.Wrap(domainerrors.CodeInternal, "could not sign token", err)
	}
	return signed, nil
}
