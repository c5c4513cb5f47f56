package account

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine/storefront/internal/state"
)

type fakeAuthAPI struct {
	session        *Session
	err            error
	logoutTokens   []string
	logoutAllCalls int
}

func (f *fakeAuthAPI) Login(_ context.Context, _, _ string) (*Session, error) {
	return f.session, f.err
}

func (f *fakeAuthAPI) Register(_ context.Context, _ RegisterInput) (*Session, error) {
	return f.session, f.err
}

func (f *fakeAuthAPI) Logout(_ context.Context, refreshToken string) error {
	f.logoutTokens = append(f.logoutTokens, refreshToken)
	return f.err
}

func (f *fakeAuthAPI) LogoutAll(_ context.Context) error {
	f.logoutAllCalls++
	return f.err
}

func testSession() *Session {
	return &Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		User:         User{ID: "u1", Email: "a@example.com", Name: "Ada"},
	}
}

func TestLoginPersistsSession(t *testing.T) {
	local := state.NewMem()
	s := NewStore(&fakeAuthAPI{session: testSession()}, local)

	assert.False(t, s.IsAuthenticated())

	user, err := s.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, s.IsAuthenticated())

	tok, _ := local.Get(state.KeyAccessToken)
	assert.Equal(t, "access-1", tok)
	tok, _ = local.Get(state.KeyRefreshToken)
	assert.Equal(t, "refresh-1", tok)
	raw, ok := local.Get(state.KeyUser)
	require.True(t, ok)
	assert.Contains(t, raw, "a@example.com")
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	local := state.NewMem()
	s := NewStore(&fakeAuthAPI{err: errors.New("invalid credentials")}, local)

	_, err := s.Login(context.Background(), "a@example.com", "wrong")
	require.Error(t, err)
	assert.False(t, s.IsAuthenticated())
	_, ok := local.Get(state.KeyAccessToken)
	assert.False(t, ok)
}

// Logout removes all identity keys; a following cart call resolves a guest
// session id, not the prior user.
func TestLogoutClearsIdentity(t *testing.T) {
	local := state.NewMem()
	api := &fakeAuthAPI{session: testSession()}
	s := NewStore(api, local)

	_, err := s.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)

	// Authenticated: cart identity is the bearer token, no session id.
	id, err := s.CartSession()
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, []string{"refresh-1"}, api.logoutTokens)

	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.CurrentUser())
	for _, key := range []string{state.KeyAccessToken, state.KeyRefreshToken, state.KeyUser} {
		_, ok := local.Get(key)
		assert.False(t, ok, "%s must be removed on logout", key)
	}

	id, err = s.CartSession()
	require.NoError(t, err)
	assert.NotEmpty(t, id, "post-logout cart calls use a guest session id")
}

// Local identity is cleared even when the backend revocation call fails.
func TestLogoutClearsLocallyOnBackendFailure(t *testing.T) {
	local := state.NewMem()
	api := &fakeAuthAPI{session: testSession()}
	s := NewStore(api, local)

	_, err := s.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)

	api.err = errors.New("backend down")
	err = s.Logout(context.Background())
	require.Error(t, err)
	assert.False(t, s.IsAuthenticated())
}

// The guest session id is generated once and stays stable across repeated
// resolver calls until explicitly cleared.
func TestCartSessionStableForGuests(t *testing.T) {
	s := NewStore(&fakeAuthAPI{}, state.NewMem())

	first, err := s.CartSession()
	require.NoError(t, err)
	require.NotEmpty(t, first)

	for range 5 {
		again, err := s.CartSession()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	require.NoError(t, s.ClearGuestSession())
	_, ok := s.GuestSession()
	assert.False(t, ok)

	next, err := s.CartSession()
	require.NoError(t, err)
	assert.NotEqual(t, first, next, "a cleared session id is never resurrected")
}

func TestProfileRehydratedFromState(t *testing.T) {
	local := state.NewMem()
	s := NewStore(&fakeAuthAPI{session: testSession()}, local)
	_, err := s.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)

	// A new store over the same state sees the cached profile.
	reopened := NewStore(&fakeAuthAPI{}, local)
	user := reopened.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "Ada", user.Name)
}

func TestTokenPairRotation(t *testing.T) {
	local := state.NewMem()
	s := NewStore(&fakeAuthAPI{session: testSession()}, local)
	_, err := s.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)

	s.SetPair("access-2", "refresh-2")
	assert.Equal(t, "access-2", s.Access())
	assert.Equal(t, "refresh-2", s.Refresh())

	// A refresh response without a rotated refresh token keeps the old one.
	s.SetPair("access-3", "")
	assert.Equal(t, "access-3", s.Access())
	assert.Equal(t, "refresh-2", s.Refresh())

	s.ClearTokens()
	assert.Empty(t, s.Access())
	assert.Empty(t, s.Refresh())
}

func TestLogoutAll(t *testing.T) {
	local := state.NewMem()
	api := &fakeAuthAPI{session: testSession()}
	s := NewStore(api, local)
	_, err := s.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, s.LogoutAll(context.Background()))
	assert.Equal(t, 1, api.logoutAllCalls)
	assert.False(t, s.IsAuthenticated())
}
