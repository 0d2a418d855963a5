// Package authtest provides an in-memory auth provider for tests, so
// flow and sync logic can be exercised without a hosted backend.
package authtest

import (
	"context"
	"fmt"
	"sync"

	"habit21API/internal/auth"
)

// FakeProvider is a scriptable in-memory implementation of
// auth.Provider.
type FakeProvider struct {
	mu sync.Mutex

	// Users maps email to password for password sign-in.
	Users map[string]string
	// UserIDs maps email to the user id returned in identities.
	UserIDs map[string]string
	// PendingCodes maps email to the code accepted by VerifyCode,
	// keyed further by the code kind that accepts it.
	PendingCodes map[string]map[auth.CodeKind]string
	// ConfirmationRequired makes SignUp withhold the session.
	ConfirmationRequired bool
	// FailWith, when set, makes every call fail with this error.
	FailWith error

	ResendCount int
	SignOutced  bool
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		Users:        make(map[string]string),
		UserIDs:      make(map[string]string),
		PendingCodes: make(map[string]map[auth.CodeKind]string),
	}
}

func (p *FakeProvider) SignInWithPassword(_ context.Context, email, password string) (*auth.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailWith != nil {
		return nil, p.FailWith
	}
	if pw, ok := p.Users[email]; !ok || pw != password {
		return nil, auth.ErrInvalidCredentials
	}
	return p.identity(email), nil
}

func (p *FakeProvider) SignUp(_ context.Context, email, password string) (*auth.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailWith != nil {
		return nil, p.FailWith
	}
	if _, exists := p.Users[email]; exists {
		return nil, auth.ErrEmailAlreadyRegistered
	}
	if len(password) < 6 {
		return nil, auth.ErrWeakPassword
	}
	p.Users[email] = password
	if p.ConfirmationRequired {
		return nil, nil
	}
	return p.identity(email), nil
}

func (p *FakeProvider) VerifyCode(_ context.Context, email, code string, kind auth.CodeKind) (*auth.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailWith != nil {
		return nil, p.FailWith
	}
	codes := p.PendingCodes[email]
	if codes == nil || codes[kind] == "" || codes[kind] != code {
		return nil, auth.ErrCodeInvalid
	}
	delete(codes, kind)
	return p.identity(email), nil
}

func (p *FakeProvider) ResendCode(_ context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailWith != nil {
		return p.FailWith
	}
	p.ResendCount++
	return nil
}

func (p *FakeProvider) OAuthURL(provider string) (string, error) {
	return "https://auth.test/authorize?provider=" + provider, nil
}

func (p *FakeProvider) SignOut(_ context.Context, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SignOutced = true
	return nil
}

// SetPendingCode arranges for VerifyCode to accept the code under the
// given kind.
func (p *FakeProvider) SetPendingCode(email string, kind auth.CodeKind, code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PendingCodes[email] == nil {
		p.PendingCodes[email] = make(map[auth.CodeKind]string)
	}
	p.PendingCodes[email][kind] = code
}

func (p *FakeProvider) identity(email string) *auth.Identity {
	id := p.UserIDs[email]
	if id == "" {
		id = "user_" + email
		p.UserIDs[email] = id
	}
	return &auth.Identity{
		UserID:      id,
		Email:       email,
		AccessToken: fmt.Sprintf("token_%s", id),
	}
}
