package services

import (
	"context"
	"log"
	"sync"
	"time"

	"habit21API/internal/auth"
)

// AuthService drives the login/signup flow state machine: it applies
// events, executes the returned effects against the session manager,
// and owns the resend-cooldown ticker and the delayed auto-close.
type AuthService struct {
	sessions *auth.SessionManager

	mu    sync.Mutex
	state auth.FlowState

	cooldownStop chan struct{}
	closeTimer   *time.Timer
}

func NewAuthService(sessions *auth.SessionManager) *AuthService {
	return &AuthService{
		sessions: sessions,
		state:    auth.NewFlowState(),
	}
}

// State returns the current flow state for rendering.
func (s *AuthService) State() auth.FlowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetMode switches between login and signup forms.
func (s *AuthService) SetMode(mode auth.Mode) auth.FlowState {
	return s.apply(auth.EventSetMode{Mode: mode})
}

// Submit handles the form submit for the current mode. The provider
// call runs outside the lock; a concurrent submit sees the loading
// flag and is ignored by the state machine.
func (s *AuthService) Submit(ctx context.Context, email, password string) auth.FlowState {
	state, effect := s.applyWithEffect(auth.EventSubmit{Email: email, Password: password})

	switch eff := effect.(type) {
	case auth.EffectSignIn:
		_, err := s.sessions.SignInWithPassword(ctx, eff.Email, eff.Password)
		return s.apply(auth.EventSignInResult{Err: err})

	case auth.EffectSignUp:
		id, err := s.sessions.SignUp(ctx, eff.Email, eff.Password)
		return s.apply(auth.EventSignUpResult{SessionIssued: id != nil, Err: err})
	}
	return state
}

// Verify submits the one-time code. The effect carries every code kind
// to attempt; trying them in order is a compatibility shim for the
// provider reporting ambiguous code types, and a successful
// verification that still yields no session falls back to a password
// sign-in with the stored credentials.
func (s *AuthService) Verify(ctx context.Context, code string) auth.FlowState {
	state, effect := s.applyWithEffect(auth.EventVerifySubmit{Code: code})

	eff, ok := effect.(auth.EffectVerify)
	if !ok {
		return state
	}

	var id *auth.Identity
	var err error
	for _, kind := range eff.Kinds {
		id, err = s.sessions.VerifyCode(ctx, eff.Email, eff.Code, kind)
		if err == nil {
			break
		}
	}
	if err != nil {
		return s.apply(auth.EventVerifyResult{Err: err})
	}

	sessionIssued := id != nil
	if !sessionIssued && eff.Password != "" {
		if _, signInErr := s.sessions.SignInWithPassword(ctx, eff.Email, eff.Password); signInErr != nil {
			log.Printf("AuthService: post-verify sign-in failed: %v", signInErr)
		} else {
			sessionIssued = true
		}
	}

	return s.apply(auth.EventVerifyResult{SessionIssued: sessionIssued})
}

// Resend requests a new code. A no-op while the cooldown is running.
func (s *AuthService) Resend(ctx context.Context) auth.FlowState {
	state, effect := s.applyWithEffect(auth.EventResend{})

	if eff, ok := effect.(auth.EffectResend); ok {
		err := s.sessions.ResendCode(ctx, eff.Email)
		return s.apply(auth.EventResendResult{Err: err})
	}
	return state
}

// Back returns from the verify screen to the form.
func (s *AuthService) Back() auth.FlowState {
	return s.apply(auth.EventBack{})
}

// OAuthURL starts an OAuth redirect sign-in.
func (s *AuthService) OAuthURL(provider string) (string, error) {
	return s.sessions.SignInWithOAuth(provider)
}

// AdoptSession installs the token pair an OAuth redirect delivered to
// the client.
func (s *AuthService) AdoptSession(accessToken, refreshToken string) (*auth.Identity, error) {
	id, err := s.sessions.AdoptSession(accessToken, refreshToken)
	if err != nil {
		return nil, err
	}
	s.Reset()
	return id, nil
}

// SignOut ends the session and resets the flow.
func (s *AuthService) SignOut(ctx context.Context) error {
	if err := s.sessions.SignOut(ctx); err != nil {
		return err
	}
	s.Reset()
	return nil
}

// Reset restores the initial flow state and stops any timers. Called
// on modal teardown.
func (s *AuthService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCooldownLocked()
	if s.closeTimer != nil {
		s.closeTimer.Stop()
		s.closeTimer = nil
	}
	s.state = auth.NewFlowState()
}

func (s *AuthService) apply(ev auth.Event) auth.FlowState {
	state, _ := s.applyWithEffect(ev)
	return state
}

func (s *AuthService) applyWithEffect(ev auth.Event) (auth.FlowState, auth.Effect) {
	s.mu.Lock()
	next, effect := auth.Apply(s.state, ev)
	s.state = next

	switch eff := effect.(type) {
	case auth.EffectStartCooldown:
		s.startCooldownLocked()
	case auth.EffectStopCooldown:
		s.stopCooldownLocked()
	case auth.EffectClose:
		s.scheduleCloseLocked(eff.AfterSeconds)
	}
	s.mu.Unlock()

	return next, effect
}

// startCooldownLocked runs the 1 Hz countdown until it reaches zero or
// the flow stops it.
func (s *AuthService) startCooldownLocked() {
	s.stopCooldownLocked()
	stop := make(chan struct{})
	s.cooldownStop = stop

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				next, _ := auth.Apply(s.state, auth.EventTick{})
				s.state = next
				done := next.ResendCooldown == 0
				s.mu.Unlock()
				if done {
					return
				}
			}
		}
	}()
}

func (s *AuthService) stopCooldownLocked() {
	if s.cooldownStop != nil {
		close(s.cooldownStop)
		s.cooldownStop = nil
	}
}

func (s *AuthService) scheduleCloseLocked(afterSeconds int) {
	if afterSeconds <= 0 {
		afterSeconds = 0
	}
	s.stopCooldownLocked()
	if s.closeTimer != nil {
		s.closeTimer.Stop()
	}
	s.closeTimer = time.AfterFunc(time.Duration(afterSeconds)*time.Second, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.state = auth.NewFlowState()
		s.closeTimer = nil
	})
}
