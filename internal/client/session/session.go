// Package session holds the single source of truth for "is a user logged
// in". The State object owns the in-memory session; the persisted store only
// mirrors it. isAuthenticated is always a pure derivation of token and user,
// never set directly.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/stayonbrand/gatekeeper/internal/client/api"
	"github.com/stayonbrand/gatekeeper/internal/client/profile"
	"github.com/stayonbrand/gatekeeper/internal/client/services"
	"github.com/stayonbrand/gatekeeper/internal/client/store"
	"github.com/stayonbrand/gatekeeper/internal/logging"
)

// Snapshot is a point-in-time copy of the session's derived fields. Optional
// values are nil when unknown.
type Snapshot struct {
	Authenticated      bool
	Token              string
	User               *api.User
	Username           *string
	UserUUID           *string
	DodoCustomerID     *string
	ActiveTier         *string
	ActiveLength       *string
	SubscriptionStatus *string
	TierExpiresAt      *time.Time
	MemberSince        *time.Time
}

// State is the explicit session-state object passed to guards and views.
// It is safe for concurrent use; asynchronous profile enrichment carries an
// epoch checked before results are applied, so a response landing after a
// logout is discarded.
type State struct {
	mu    sync.Mutex
	token string
	user  *api.User
	epoch uint64

	username           *string
	userUUID           *string
	dodoCustomerID     *string
	activeTier         *string
	activeLength       *string
	subscriptionStatus *string
	tierExpiresAt      *time.Time
	memberSince        *time.Time

	auth     services.AuthService
	profiles profile.Fetcher
	store    store.Repository
	logger   logging.Logger
}

// New constructs the session state and restores it from the persisted store.
// Restore failures are swallowed so application boot never fails; the state
// simply starts logged out.
func New(ctx context.Context, auth services.AuthService, profiles profile.Fetcher, st store.Repository, logger logging.Logger) *State {
	s := &State{auth: auth, profiles: profiles, store: st, logger: logger}
	s.Restore(ctx)
	return s
}

// IsAuthenticated reports token != nil && user != nil.
func (s *State) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && s.user != nil
}

// Snapshot returns a copy of the current session fields.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var u *api.User
	if s.user != nil {
		cp := *s.user
		u = &cp
	}
	return Snapshot{
		Authenticated:      s.token != "" && s.user != nil,
		Token:              s.token,
		User:               u,
		Username:           s.username,
		UserUUID:           s.userUUID,
		DodoCustomerID:     s.dodoCustomerID,
		ActiveTier:         s.activeTier,
		ActiveLength:       s.activeLength,
		SubscriptionStatus: s.subscriptionStatus,
		TierExpiresAt:      s.tierExpiresAt,
		MemberSince:        s.memberSince,
	}
}

// SetToken records the access token.
func (s *State) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// SetUser records the user snapshot and updates the derived username. When
// the user carries an email, profile enrichment runs asynchronously;
// enrichment failures are logged and do not revert the assignment.
func (s *State) SetUser(ctx context.Context, u *api.User) {
	s.mu.Lock()
	s.user = u
	s.username = nil
	if u != nil && u.Username != "" {
		name := u.Username
		s.username = &name
	}
	// Each assignment starts a new epoch so an enrichment still in flight
	// for the previous user cannot land on this one.
	s.epoch++
	epoch := s.epoch
	s.mu.Unlock()

	if u == nil || u.Email == "" {
		return
	}

	go func() {
		if err := s.enrich(ctx, u.Email, epoch); err != nil {
			s.logger.Warn(ctx, "profile enrichment failed", "email", u.Email, "error", err)
		}
	}()
}

// RefreshUserData re-runs profile enrichment for the currently known email.
// It is idempotent and safe to call repeatedly; it is a no-op when no user
// is set.
func (s *State) RefreshUserData(ctx context.Context) error {
	s.mu.Lock()
	email := ""
	if s.user != nil {
		email = s.user.Email
	}
	epoch := s.epoch
	s.mu.Unlock()

	if email == "" {
		return nil
	}
	return s.enrich(ctx, email, epoch)
}

// enrich fetches (or provisions) the profile record and maps it onto the
// derived fields, unless the session epoch moved on while the call was in
// flight.
func (s *State) enrich(ctx context.Context, email string, epoch uint64) error {
	p, err := s.profiles.GetOrCreateUser(ctx, email)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A logout (or a newer login) superseded this call; drop the result.
	if s.epoch != epoch {
		return nil
	}

	uuid := p.UserUUID
	s.userUUID = &uuid
	s.dodoCustomerID = p.DodoCustomerID
	s.activeTier = p.ActiveTier
	s.activeLength = p.ActiveLength
	s.subscriptionStatus = p.SubscriptionStatus
	s.tierExpiresAt = p.TierExpiresAt
	s.memberSince = p.CreatedAt
	return nil
}

// Logout clears the in-memory session and every derived field, then
// delegates persisted cleanup to the session service. Cleanup failure is
// tolerated.
func (s *State) Logout(ctx context.Context) {
	s.mu.Lock()
	s.epoch++
	s.token = ""
	s.user = nil
	s.username = nil
	s.userUUID = nil
	s.dodoCustomerID = nil
	s.activeTier = nil
	s.activeLength = nil
	s.subscriptionStatus = nil
	s.tierExpiresAt = nil
	s.memberSince = nil
	s.mu.Unlock()

	if err := s.auth.Logout(ctx); err != nil {
		s.logger.Warn(ctx, "persisted session cleanup failed", "error", err)
	}
}

// Restore attempts to rebuild the session from the persisted store. It only
// acts while unauthenticated and reports whether a session was restored.
// Every failure resolves to the logged-out state; nothing propagates.
func (s *State) Restore(ctx context.Context) bool {
	if s.IsAuthenticated() {
		return false
	}

	flag, err := s.store.Get(ctx, store.KeyRememberMe)
	if err != nil || flag != "true" {
		return false
	}

	if s.auth.IsAuthExpired(ctx) {
		return false
	}

	token, err := s.store.Get(ctx, store.KeyAccessToken)
	if err != nil || token == "" {
		s.cleanupCorrupt(ctx, "missing access token")
		return false
	}

	raw, err := s.store.Get(ctx, store.KeyUserData)
	if err != nil {
		s.cleanupCorrupt(ctx, "missing user data")
		return false
	}

	var u api.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.cleanupCorrupt(ctx, "unparsable user data")
		return false
	}
	if u.ID == "" || u.Email == "" {
		s.cleanupCorrupt(ctx, "incomplete user data")
		return false
	}

	// Token before user: enrichment triggered by SetUser must observe an
	// authenticated session.
	s.SetToken(token)
	s.SetUser(ctx, &u)
	return true
}

// cleanupCorrupt wipes a persisted record we could not restore from. Best
// effort; a failing cleanup is only logged.
func (s *State) cleanupCorrupt(ctx context.Context, reason string) {
	s.logger.Warn(ctx, "discarding persisted session", "reason", reason)
	if err := s.auth.Logout(ctx); err != nil {
		s.logger.Warn(ctx, "persisted session cleanup failed", "error", err)
	}
}
