package api

import (
	"context"

	"github.com/vitrine/storefront/internal/domain/account"
)

// AuthClient covers the /auth surface. All its endpoints are exempt from
// refresh-and-retry; a 401 here is final.
type AuthClient struct {
	c *Client
}

// NewAuthClient creates the auth area client.
func NewAuthClient(c *Client) *AuthClient {
	return &AuthClient{c: c}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session.
func (a *AuthClient) Login(ctx context.Context, email, password string) (*account.Session, error) {
	var sess account.Session
	if err := a.c.post(ctx, "/auth/login", nil, loginRequest{Email: email, Password: password}, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Register creates an account and returns its first session.
func (a *AuthClient) Register(ctx context.Context, input account.RegisterInput) (*account.Session, error) {
	var sess account.Session
	if err := a.c.post(ctx, "/auth/register", nil, input, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Logout revokes one refresh token.
func (a *AuthClient) Logout(ctx context.Context, refreshToken string) error {
	return a.c.post(ctx, "/auth/logout", nil, logoutRequest{RefreshToken: refreshToken}, nil)
}

// LogoutAll revokes every session of the authenticated user.
func (a *AuthClient) LogoutAll(ctx context.Context) error {
	return a.c.post(ctx, "/auth/logout-all", nil, nil, nil)
}
