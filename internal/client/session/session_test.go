package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stayonbrand/gatekeeper/internal/client/api"
	"github.com/stayonbrand/gatekeeper/internal/client/profile"
	"github.com/stayonbrand/gatekeeper/internal/client/store"
	"github.com/stayonbrand/gatekeeper/internal/common"
	"github.com/stayonbrand/gatekeeper/internal/logging"
)

// ---- fakes ----

// fakeStore is an in-memory store.Repository.
type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStore(seed map[string]string) *fakeStore {
	d := map[string]string{}
	for k, v := range seed {
		d[k] = v
	}
	return &fakeStore{data: d}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", common.ErrorNotFound
	}
	return v, nil
}

func (f *fakeStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = map[string]string{}
	return nil
}

func (f *fakeStore) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}

// fakeAuth implements the slice of services.AuthService the session needs.
type fakeAuth struct {
	expired     bool
	logoutErr   error
	logoutCalls int
	store       *fakeStore
}

func (f *fakeAuth) Login(ctx context.Context, email, password string, rememberMe bool) (*api.LoginResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeAuth) Signup(ctx context.Context, email, password, username string) (*api.SignupResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeAuth) ForgotPassword(ctx context.Context, email string) (*api.MessageResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeAuth) ResetPassword(ctx context.Context, email, code, newPassword string) (*api.MessageResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeAuth) IsAuthExpired(ctx context.Context) bool { return f.expired }

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.logoutCalls++
	if f.logoutErr != nil {
		return f.logoutErr
	}
	if f.store != nil {
		return f.store.Clear(ctx)
	}
	return nil
}

// fakeFetcher implements profile.Fetcher. When gate is non-nil,
// GetOrCreateUser blocks until the gate closes.
type fakeFetcher struct {
	ret   *profile.Profile
	err   error
	gate  chan struct{}
	calls int
	mu    sync.Mutex
}

func (f *fakeFetcher) GetUser(ctx context.Context, email string) (*profile.Profile, error) {
	return f.ret, f.err
}

func (f *fakeFetcher) CreateUser(ctx context.Context, email string) (*profile.Profile, error) {
	return f.ret, f.err
}

func (f *fakeFetcher) GetOrCreateUser(ctx context.Context, email string) (*profile.Profile, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.ret, f.err
}

func testProfile() *profile.Profile {
	tier := "pro"
	status := "active"
	return &profile.Profile{
		UserUUID:           "uuid-1",
		Email:              "a@b.co",
		ActiveTier:         &tier,
		SubscriptionStatus: &status,
	}
}

func newState(t *testing.T, st *fakeStore, auth *fakeAuth, pf profile.Fetcher) *State {
	t.Helper()
	if auth.store == nil {
		auth.store = st
	}
	return New(context.Background(), auth, pf, st, logging.NewText(io.Discard))
}

// ---- TESTS ----

func TestIsAuthenticated_IsPureDerivationOfTokenAndUser(t *testing.T) {
	s := newState(t, newFakeStore(nil), &fakeAuth{}, &fakeFetcher{ret: testProfile()})
	ctx := context.Background()

	require.False(t, s.IsAuthenticated())

	s.SetToken("tok")
	require.False(t, s.IsAuthenticated(), "token alone is not authenticated")

	s.SetUser(ctx, &api.User{ID: "u1", Email: "a@b.co"})
	require.True(t, s.IsAuthenticated())

	s.SetToken("")
	require.False(t, s.IsAuthenticated(), "clearing token de-authenticates")
}

func validRecord(expiry time.Time) map[string]string {
	return map[string]string{
		store.KeyRememberMe:  "true",
		store.KeyAccessToken: "tok-1",
		store.KeyUserData:    `{"id":"u1","email":"a@b.co","username":"brandfan"}`,
		store.KeyAuthExpiry:  expiry.Format(time.RFC3339),
	}
}

func TestRestore_ValidRecord(t *testing.T) {
	st := newFakeStore(validRecord(time.Now().Add(time.Hour)))
	s := newState(t, st, &fakeAuth{}, &fakeFetcher{ret: testProfile()})

	require.True(t, s.IsAuthenticated())
	snap := s.Snapshot()
	require.Equal(t, "tok-1", snap.Token)
	require.Equal(t, "u1", snap.User.ID)
	require.NotNil(t, snap.Username)
	require.Equal(t, "brandfan", *snap.Username)

	// enrichment runs asynchronously after restore
	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.ActiveTier != nil && *snap.ActiveTier == "pro"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRestore_NoRememberFlag_StaysLoggedOut(t *testing.T) {
	rec := validRecord(time.Now().Add(time.Hour))
	delete(rec, store.KeyRememberMe)
	st := newFakeStore(rec)

	s := newState(t, st, &fakeAuth{}, &fakeFetcher{ret: testProfile()})
	require.False(t, s.IsAuthenticated())
}

func TestRestore_Expired_StaysLoggedOut(t *testing.T) {
	st := newFakeStore(validRecord(time.Now().Add(-time.Hour)))
	s := newState(t, st, &fakeAuth{expired: true}, &fakeFetcher{ret: testProfile()})

	require.False(t, s.IsAuthenticated())
	snap := s.Snapshot()
	require.Empty(t, snap.Token, "expired record never sets token")
	require.Nil(t, snap.User, "expired record never sets user")
}

func TestRestore_MalformedUserData_CleansUpAndStaysLoggedOut(t *testing.T) {
	rec := validRecord(time.Now().Add(time.Hour))
	rec[store.KeyUserData] = `{not json`
	st := newFakeStore(rec)
	auth := &fakeAuth{store: st}

	s := newState(t, st, auth, &fakeFetcher{ret: testProfile()})
	require.False(t, s.IsAuthenticated())
	require.Equal(t, 1, auth.logoutCalls, "best-effort cleanup ran")
	require.Zero(t, st.len())
}

func TestRestore_IncompleteUserShape_StaysLoggedOut(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing id", `{"email":"a@b.co"}`},
		{"missing email", `{"id":"u1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord(time.Now().Add(time.Hour))
			rec[store.KeyUserData] = tt.data
			s := newState(t, newFakeStore(rec), &fakeAuth{}, &fakeFetcher{ret: testProfile()})
			require.False(t, s.IsAuthenticated())
		})
	}
}

func TestRestore_CleanupFailureIsSwallowed(t *testing.T) {
	rec := validRecord(time.Now().Add(time.Hour))
	rec[store.KeyUserData] = `{not json`
	auth := &fakeAuth{logoutErr: errors.New("cleanup broke")}

	require.NotPanics(t, func() {
		s := newState(t, newFakeStore(rec), auth, &fakeFetcher{ret: testProfile()})
		require.False(t, s.IsAuthenticated())
	})
}

func TestLogout_ClearsEveryDerivedField(t *testing.T) {
	st := newFakeStore(validRecord(time.Now().Add(time.Hour)))
	s := newState(t, st, &fakeAuth{store: st}, &fakeFetcher{ret: testProfile()})

	require.Eventually(t, func() bool {
		return s.Snapshot().ActiveTier != nil
	}, 2*time.Second, 10*time.Millisecond)

	s.Logout(context.Background())

	snap := s.Snapshot()
	require.False(t, snap.Authenticated)
	require.Empty(t, snap.Token)
	require.Nil(t, snap.User)
	require.Nil(t, snap.Username)
	require.Nil(t, snap.UserUUID)
	require.Nil(t, snap.ActiveTier)
	require.Nil(t, snap.SubscriptionStatus)
	require.Zero(t, st.len(), "persisted record wiped")
}

func TestEnrichment_AfterLogout_IsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	pf := &fakeFetcher{ret: testProfile(), gate: gate}
	s := newState(t, newFakeStore(nil), &fakeAuth{}, pf)
	ctx := context.Background()

	s.SetToken("tok")
	s.SetUser(ctx, &api.User{ID: "u1", Email: "a@b.co"}) // enrichment now blocked on gate

	s.Logout(ctx)
	close(gate) // stale response lands after logout

	// give the goroutine a chance to (incorrectly) apply the result
	require.Never(t, func() bool {
		return s.Snapshot().ActiveTier != nil
	}, 300*time.Millisecond, 20*time.Millisecond)

	snap := s.Snapshot()
	require.Nil(t, snap.UserUUID)
	require.Nil(t, snap.SubscriptionStatus)
}

// slowFirstFetcher serves a distinct profile per email and blocks the
// configured email on a gate, so an older enrichment can be released after
// a newer one already landed.
type slowFirstFetcher struct {
	slowEmail string
	gate      chan struct{}
}

func (f *slowFirstFetcher) profileFor(email string) *profile.Profile {
	return &profile.Profile{UserUUID: "uuid-" + email, Email: email}
}

func (f *slowFirstFetcher) GetUser(ctx context.Context, email string) (*profile.Profile, error) {
	return f.profileFor(email), nil
}

func (f *slowFirstFetcher) CreateUser(ctx context.Context, email string) (*profile.Profile, error) {
	return f.profileFor(email), nil
}

func (f *slowFirstFetcher) GetOrCreateUser(ctx context.Context, email string) (*profile.Profile, error) {
	if email == f.slowEmail {
		<-f.gate
	}
	return f.profileFor(email), nil
}

func TestEnrichment_SupersededByNewerLogin_IsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	pf := &slowFirstFetcher{slowEmail: "slow@b.co", gate: gate}
	s := newState(t, newFakeStore(nil), &fakeAuth{}, pf)
	ctx := context.Background()

	s.SetToken("tok-a")
	s.SetUser(ctx, &api.User{ID: "a", Email: "slow@b.co"}) // enrichment blocked on gate

	s.SetToken("tok-b")
	s.SetUser(ctx, &api.User{ID: "b", Email: "fast@b.co"})

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.UserUUID != nil && *snap.UserUUID == "uuid-fast@b.co"
	}, 2*time.Second, 10*time.Millisecond)

	close(gate) // first login's response lands after the second login

	require.Never(t, func() bool {
		snap := s.Snapshot()
		return snap.UserUUID == nil || *snap.UserUUID != "uuid-fast@b.co"
	}, 300*time.Millisecond, 20*time.Millisecond)

	snap := s.Snapshot()
	require.Equal(t, "b", snap.User.ID)
	require.Equal(t, "uuid-fast@b.co", *snap.UserUUID)
}

func TestRefreshUserData_Idempotent(t *testing.T) {
	pf := &fakeFetcher{ret: testProfile()}
	s := newState(t, newFakeStore(nil), &fakeAuth{}, pf)
	ctx := context.Background()

	s.SetToken("tok")
	s.SetUser(ctx, &api.User{ID: "u1", Email: "a@b.co"})

	require.NoError(t, s.RefreshUserData(ctx))
	require.NoError(t, s.RefreshUserData(ctx))

	snap := s.Snapshot()
	require.NotNil(t, snap.UserUUID)
	require.Equal(t, "uuid-1", *snap.UserUUID)
	require.NotNil(t, snap.ActiveTier)
	require.Equal(t, "pro", *snap.ActiveTier)
}

func TestRefreshUserData_NoUser_NoOp(t *testing.T) {
	pf := &fakeFetcher{ret: testProfile()}
	s := newState(t, newFakeStore(nil), &fakeAuth{}, pf)

	require.NoError(t, s.RefreshUserData(context.Background()))
	require.Zero(t, pf.calls)
}

func TestSetUser_EnrichmentFailureDoesNotRevertUser(t *testing.T) {
	pf := &fakeFetcher{err: errors.New("keycard down")}
	s := newState(t, newFakeStore(nil), &fakeAuth{}, pf)
	ctx := context.Background()

	s.SetToken("tok")
	s.SetUser(ctx, &api.User{ID: "u1", Email: "a@b.co"})

	require.True(t, s.IsAuthenticated())
	require.Eventually(t, func() bool {
		pf.mu.Lock()
		defer pf.mu.Unlock()
		return pf.calls > 0
	}, 2*time.Second, 10*time.Millisecond)
	require.True(t, s.IsAuthenticated(), "user assignment survives enrichment failure")
}
