package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GoTrueProvider talks to a Supabase-compatible GoTrue auth endpoint
// over its REST surface.
type GoTrueProvider struct {
	baseURL string
	anonKey string
	client  *http.Client
}

func NewGoTrueProvider(baseURL, anonKey string) *GoTrueProvider {
	return &GoTrueProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// sessionResponse is the shape GoTrue returns whenever a session is
// issued. Confirmation-required signups return only the user object.
type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	// Top-level user fields when no session is issued.
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (p *GoTrueProvider) SignInWithPassword(ctx context.Context, email, password string) (*Identity, error) {
	body := map[string]string{"email": email, "password": password}

	var resp sessionResponse
	if err := p.post(ctx, "/auth/v1/token?grant_type=password", "", body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, &ProviderError{Message: "provider returned no session"}
	}
	return identityOf(&resp), nil
}

func (p *GoTrueProvider) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	body := map[string]string{"email": email, "password": password}

	var resp sessionResponse
	if err := p.post(ctx, "/auth/v1/signup", "", body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		// Email confirmation pending; no session yet.
		return nil, nil
	}
	return identityOf(&resp), nil
}

func (p *GoTrueProvider) VerifyCode(ctx context.Context, email, code string, kind CodeKind) (*Identity, error) {
	body := map[string]string{"type": string(kind), "email": email, "token": code}

	var resp sessionResponse
	if err := p.post(ctx, "/auth/v1/verify", "", body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, nil
	}
	return identityOf(&resp), nil
}

func (p *GoTrueProvider) ResendCode(ctx context.Context, email string) error {
	// The OTP endpoint re-dispatches a login/confirmation code for the
	// address regardless of which kind is pending.
	body := map[string]string{"email": email}
	return p.post(ctx, "/auth/v1/otp", "", body, nil)
}

func (p *GoTrueProvider) OAuthURL(provider string) (string, error) {
	if provider == "" {
		return "", fmt.Errorf("oauth provider is required")
	}
	q := url.Values{}
	q.Set("provider", provider)
	return p.baseURL + "/auth/v1/authorize?" + q.Encode(), nil
}

func (p *GoTrueProvider) SignOut(ctx context.Context, accessToken string) error {
	return p.post(ctx, "/auth/v1/logout", accessToken, struct{}{}, nil)
}

func (p *GoTrueProvider) post(ctx context.Context, path, bearer string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.anonKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	} else {
		req.Header.Set("Authorization", "Bearer "+p.anonKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return mapProviderError(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to parse provider response: %w", err)
		}
	}
	return nil
}

// mapProviderError turns a GoTrue error payload into one of the typed
// sentinels, falling back to the raw provider message.
func mapProviderError(status int, raw []byte) error {
	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(raw, &body)

	msg := body.Msg
	if msg == "" {
		msg = body.Message
	}
	if msg == "" {
		msg = body.ErrorDescription
	}

	lower := strings.ToLower(msg)
	switch {
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case strings.Contains(lower, "invalid login credentials"):
		return ErrInvalidCredentials
	case strings.Contains(lower, "already registered"):
		return ErrEmailAlreadyRegistered
	case strings.Contains(lower, "password") && (strings.Contains(lower, "weak") || strings.Contains(lower, "at least")):
		return ErrWeakPassword
	case strings.Contains(lower, "token has expired"), strings.Contains(lower, "otp"):
		return ErrCodeInvalid
	}

	log.Printf("GoTrue: unmapped provider error (status %d): %s", status, msg)
	return &ProviderError{Status: status, Message: msg}
}

func identityOf(resp *sessionResponse) *Identity {
	return &Identity{
		UserID:       resp.User.ID,
		Email:        resp.User.Email,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
}
