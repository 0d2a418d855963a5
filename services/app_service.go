package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"habit21API/internal/auth"
	"habit21API/internal/challenge"
	"habit21API/internal/motivation"
	"habit21API/internal/syncer"
)

// View is the top-level screen the client should render.
type View string

const (
	ViewHome      View = "home"
	ViewSelection View = "selection"
	ViewDashboard View = "dashboard"
)

var (
	ErrNoChallenge          = errors.New("no active challenge")
	ErrChallengeActive      = errors.New("a challenge is already active")
	ErrConfirmationRequired = errors.New("restart requires explicit confirmation")
)

// AppSnapshot is the full client-facing state.
type AppSnapshot struct {
	View      View                `json:"view"`
	Record    *challenge.Record   `json:"record,omitempty"`
	Progress  *challenge.Progress `json:"progress,omitempty"`
	Quote     string              `json:"quote,omitempty"`
	SignedIn  bool                `json:"signed_in"`
	UserEmail string              `json:"user_email,omitempty"`
}

// AppService owns the view state and the in-memory record. All
// mutations run under one lock, so a save issued after a load always
// reflects that load's result as its base.
type AppService struct {
	mu          sync.Mutex
	coordinator *syncer.Coordinator
	sessions    *auth.SessionManager
	motivation  *motivation.Client
	now         func() time.Time

	view   View
	record *challenge.Record
}

func NewAppService(coordinator *syncer.Coordinator, sessions *auth.SessionManager, motiv *motivation.Client) *AppService {
	s := &AppService{
		coordinator: coordinator,
		sessions:    sessions,
		motivation:  motiv,
		now:         time.Now,
		view:        ViewHome,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.reload(ctx)

	// Every login/logout/refresh re-resolves the record through the
	// sync coordinator.
	sessions.Subscribe(func(ev auth.ChangeEvent, _ *auth.Identity) {
		rctx, rcancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer rcancel()
		log.Printf("AppService: session change (%s), reloading challenge data", ev)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.reloadLocked(rctx)
	})

	return s
}

func (s *AppService) reload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
}

func (s *AppService) reloadLocked(ctx context.Context) {
	rec, ok := s.coordinator.Load(ctx)
	if ok {
		s.record = rec
		s.view = ViewDashboard
		return
	}
	s.record = nil
	if s.view == ViewDashboard {
		s.view = ViewHome
	}
}

// Snapshot returns the current app state.
func (s *AppService) Snapshot() AppSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := AppSnapshot{View: s.view}
	if id, ok := s.sessions.Current(); ok {
		snap.SignedIn = true
		snap.UserEmail = id.Email
	}
	if s.record != nil {
		snap.Record = s.record.Clone()
		p := challenge.ProgressOf(s.record)
		snap.Progress = &p
		snap.Quote = challenge.FallbackQuoteFor(s.record)
	}
	return snap
}

// OpenSelection moves from home to the habit selection screen.
func (s *AppService) OpenSelection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record != nil {
		return ErrChallengeActive
	}
	s.view = ViewSelection
	return nil
}

// BackToHome leaves the selection screen.
func (s *AppService) BackToHome() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == ViewSelection {
		s.view = ViewHome
	}
}

// Start creates a fresh challenge for the habit and routes to the
// dashboard.
func (s *AppService) Start(ctx context.Context, habitName string) (*challenge.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.record != nil {
		return nil, ErrChallengeActive
	}

	rec, err := challenge.NewRecord(habitName, s.now())
	if err != nil {
		return nil, err
	}

	s.coordinator.Save(ctx, rec)
	s.record = rec
	s.view = ViewDashboard
	return rec.Clone(), nil
}

// Record returns the active challenge record.
func (s *AppService) Record() (*challenge.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return nil, ErrNoChallenge
	}
	return s.record.Clone(), nil
}

// CompleteDay marks a day done and persists the result.
func (s *AppService) CompleteDay(ctx context.Context, day int) (*challenge.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.record == nil {
		return nil, ErrNoChallenge
	}
	if err := s.record.MarkDay(day, s.now()); err != nil {
		return nil, err
	}

	s.coordinator.Save(ctx, s.record)
	return s.record.Clone(), nil
}

// Restart clears the challenge from every store and returns to the
// home view. It refuses to act without explicit confirmation.
func (s *AppService) Restart(ctx context.Context, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !confirmed {
		return ErrConfirmationRequired
	}
	if s.record == nil {
		return ErrNoChallenge
	}

	s.coordinator.Clear(ctx)
	s.record = nil
	s.view = ViewHome
	return nil
}

// Motivation returns a generated line for the current day, falling
// back to the rotating quote list when generation yields nothing.
func (s *AppService) Motivation(ctx context.Context) (string, error) {
	s.mu.Lock()
	rec := s.record.Clone()
	s.mu.Unlock()

	if rec == nil {
		return "", ErrNoChallenge
	}

	if s.motivation != nil {
		if text := s.motivation.PersonalizedMotivation(ctx, rec.HabitName, rec.CurrentDay()); text != "" {
			return text, nil
		}
	}
	return challenge.FallbackQuoteFor(rec), nil
}

// ShareText returns the progress share message.
func (s *AppService) ShareText() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return "", ErrNoChallenge
	}
	return challenge.ShareText(s.record), nil
}
