package auth

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ChangeEvent describes a session transition delivered to subscribers.
type ChangeEvent string

const (
	EventSignedIn  ChangeEvent = "signed_in"
	EventSignedOut ChangeEvent = "signed_out"
	EventRefreshed ChangeEvent = "token_refreshed"
)

// SessionManager tracks the current authenticated identity and fans
// session changes out to subscribers. It wraps the external provider:
// every successful provider call that yields a session updates the
// tracked identity before subscribers are notified.
type SessionManager struct {
	provider  Provider
	jwtSecret []byte

	mu          sync.RWMutex
	current     *Identity
	subscribers map[int]func(ChangeEvent, *Identity)
	nextSubID   int
}

func NewSessionManager(provider Provider, jwtSecret string) *SessionManager {
	return &SessionManager{
		provider:    provider,
		jwtSecret:   []byte(jwtSecret),
		subscribers: make(map[int]func(ChangeEvent, *Identity)),
	}
}

// Current returns the identity of the signed-in user, if any.
func (m *SessionManager) Current() (*Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, false
	}
	cp := *m.current
	return &cp, true
}

// Subscribe registers a callback for every login/logout/refresh event.
// The returned function removes the subscription.
func (m *SessionManager) Subscribe(fn func(ChangeEvent, *Identity)) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

func (m *SessionManager) SignInWithPassword(ctx context.Context, email, password string) (*Identity, error) {
	id, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.setIdentity(id)
	return id, nil
}

func (m *SessionManager) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	id, err := m.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if id != nil {
		// Provider auto-confirmed and issued a session right away.
		m.setIdentity(id)
	}
	return id, nil
}

func (m *SessionManager) VerifyCode(ctx context.Context, email, code string, kind CodeKind) (*Identity, error) {
	id, err := m.provider.VerifyCode(ctx, email, code, kind)
	if err != nil {
		return nil, err
	}
	if id != nil {
		m.setIdentity(id)
	}
	return id, nil
}

func (m *SessionManager) ResendCode(ctx context.Context, email string) error {
	return m.provider.ResendCode(ctx, email)
}

func (m *SessionManager) SignInWithOAuth(provider string) (string, error) {
	return m.provider.OAuthURL(provider)
}

// AdoptSession installs a session obtained out of band, e.g. the token
// pair delivered by an OAuth redirect.
func (m *SessionManager) AdoptSession(accessToken, refreshToken string) (*Identity, error) {
	id, err := m.identityFromToken(accessToken)
	if err != nil {
		return nil, err
	}
	id.RefreshToken = refreshToken
	m.setIdentity(id)
	return id, nil
}

func (m *SessionManager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	current := m.current
	m.current = nil
	m.mu.Unlock()

	m.notify(EventSignedOut, nil)

	if current == nil {
		return nil
	}
	if err := m.provider.SignOut(ctx, current.AccessToken); err != nil {
		// Local sign-out already happened; the provider-side revoke is
		// best effort.
		log.Printf("SessionManager: provider sign-out failed: %v", err)
	}
	return nil
}

// VerifyAccessToken checks a bearer token against the provider's JWT
// secret and returns the identity it encodes.
func (m *SessionManager) VerifyAccessToken(token string) (*Identity, error) {
	return m.identityFromToken(token)
}

func (m *SessionManager) identityFromToken(token string) (*Identity, error) {
	if len(m.jwtSecret) == 0 {
		return nil, fmt.Errorf("auth jwt secret is not configured")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("access token has no subject")
	}
	// GoTrue subjects are user UUIDs and the remote store keys rows by
	// them, so reject anything else before it reaches the database.
	if _, err := uuid.Parse(sub); err != nil {
		return nil, fmt.Errorf("access token subject is not a user id: %w", err)
	}

	email, _ := claims["email"].(string)
	return &Identity{UserID: sub, Email: email, AccessToken: token}, nil
}

func (m *SessionManager) setIdentity(id *Identity) {
	m.mu.Lock()
	wasSignedIn := m.current != nil
	m.current = id
	m.mu.Unlock()

	if wasSignedIn {
		m.notify(EventRefreshed, id)
	} else {
		m.notify(EventSignedIn, id)
	}
}

func (m *SessionManager) notify(event ChangeEvent, id *Identity) {
	m.mu.RLock()
	fns := make([]func(ChangeEvent, *Identity), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(event, id)
	}
}
