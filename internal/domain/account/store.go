package account

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/vitrine/storefront/internal/state"
)

// AuthAPI is the slice of the backend auth surface the store drives.
// Implemented by api.AuthClient.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context) error
}

// RegisterInput is the payload for creating a new account.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Store owns the client's identity: the persisted token pair, the cached
// user profile, and the guest cart session id. It is application-scoped and
// injected rather than global, so tests run against isolated instances.
type Store struct {
	mu    sync.RWMutex
	api   AuthAPI
	local state.Store
	user  *User
}

// NewStore creates a Store over the given local state. The cached profile
// is rehydrated from a previous run when present. api may be nil at
// construction and supplied later via SetAuthAPI, since the API client in
// turn depends on the store for tokens.
func NewStore(api AuthAPI, local state.Store) *Store {
	s := &Store{api: api, local: local}
	if raw, ok := local.Get(state.KeyUser); ok {
		var u User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			s.user = &u
		}
	}
	return s
}

// SetAuthAPI completes wiring after the API client has been constructed.
func (s *Store) SetAuthAPI(api AuthAPI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.api = api
}

func (s *Store) authAPI() AuthAPI {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.api
}

// Login authenticates and persists the resulting session.
func (s *Store) Login(ctx context.Context, email, password string) (*User, error) {
	sess, err := s.authAPI().Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.adoptSession(sess); err != nil {
		return nil, err
	}
	return &sess.User, nil
}

// Register creates an account and persists the resulting session.
func (s *Store) Register(ctx context.Context, input RegisterInput) (*User, error) {
	sess, err := s.authAPI().Register(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.adoptSession(sess); err != nil {
		return nil, err
	}
	return &sess.User, nil
}

// Logout revokes the refresh token on the backend and clears all local
// identity state. Local state is cleared even when revocation fails: a
// dead backend must not pin the client to a stale identity.
func (s *Store) Logout(ctx context.Context) error {
	refresh, _ := s.local.Get(state.KeyRefreshToken)
	var apiErr error
	if refresh != "" {
		apiErr = s.authAPI().Logout(ctx, refresh)
	}
	if err := s.ClearSession(); err != nil {
		return err
	}
	return apiErr
}

// LogoutAll revokes every session of the user, then clears local state.
func (s *Store) LogoutAll(ctx context.Context) error {
	apiErr := s.authAPI().LogoutAll(ctx)
	if err := s.ClearSession(); err != nil {
		return err
	}
	return apiErr
}

// IsAuthenticated reports whether an access token is present.
func (s *Store) IsAuthenticated() bool {
	tok, _ := s.local.Get(state.KeyAccessToken)
	return tok != ""
}

// CurrentUser returns the cached profile, or nil when unauthenticated.
func (s *Store) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.IsAuthenticated() {
		return nil
	}
	return s.user
}

func (s *Store) adoptSession(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.local.Set(state.KeyAccessToken, sess.AccessToken); err != nil {
		return errors.Wrap(err, "persist access token")
	}
	if err := s.local.Set(state.KeyRefreshToken, sess.RefreshToken); err != nil {
		return errors.Wrap(err, "persist refresh token")
	}
	raw, err := json.Marshal(sess.User)
	if err != nil {
		return errors.Wrap(err, "encode user")
	}
	if err := s.local.Set(state.KeyUser, string(raw)); err != nil {
		return errors.Wrap(err, "persist user")
	}
	s.user = &sess.User
	return nil
}

// ClearSession removes the token pair and cached profile.
func (s *Store) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range []string{state.KeyAccessToken, state.KeyRefreshToken, state.KeyUser} {
		if err := s.local.Delete(key); err != nil {
			return errors.Wrap(err, "clear "+key)
		}
	}
	s.user = nil
	return nil
}

// Access returns the current access token ("" when absent).
func (s *Store) Access() string {
	tok, _ := s.local.Get(state.KeyAccessToken)
	return tok
}

// Refresh returns the current refresh token ("" when absent).
func (s *Store) Refresh() string {
	tok, _ := s.local.Get(state.KeyRefreshToken)
	return tok
}

// SetPair replaces the persisted token pair after a successful refresh.
func (s *Store) SetPair(access, refresh string) {
	_ = s.local.Set(state.KeyAccessToken, access)
	if refresh != "" {
		_ = s.local.Set(state.KeyRefreshToken, refresh)
	}
}

// ClearTokens drops the token pair and profile. Called by the API client
// when a refresh-and-retry cycle ends in a terminal auth failure.
func (s *Store) ClearTokens() {
	_ = s.ClearSession()
}

// CartSession resolves the identity parameter for a cart call: empty when
// authenticated (the backend infers the user from the bearer token), else a
// persisted guest session id, generated lazily on first use.
//
// Resolution is re-evaluated on every call, never cached, so a login that
// happens between two cart actions switches identity on the next call.
func (s *Store) CartSession() (string, error) {
	if s.IsAuthenticated() {
		return "", nil
	}
	if id, ok := s.local.Get(state.KeyCartSessionID); ok && id != "" {
		return id, nil
	}
	id := uuid.New().String()
	if err := s.local.Set(state.KeyCartSessionID, id); err != nil {
		return "", errors.Wrap(err, "persist guest session id")
	}
	return id, nil
}

// GuestSession returns the persisted guest session id without creating one.
func (s *Store) GuestSession() (string, bool) {
	id, ok := s.local.Get(state.KeyCartSessionID)
	return id, ok && id != ""
}

// ClearGuestSession drops the guest session id. Called after the guest cart
// has been merged into the authenticated user's cart.
func (s *Store) ClearGuestSession() error {
	return s.local.Delete(state.KeyCartSessionID)
}
