// Package auth implements the credential flow against the backend's
// login endpoints and owns the persisted session. There is no ambient
// global user: dependents register a change listener and receive the
// session lifecycle explicitly.
package auth

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/conflu/conflu-admin/internal/api"
)

// Client is the auth collaborator: login, register, logout and session
// introspection. All HTTP goes through the shared gateway so failures
// arrive classified.
type Client struct {
	gw  *api.Client
	log zerolog.Logger

	sessions *SessionStore

	mu        sync.RWMutex
	current   *Session
	listeners []func(*User)
}

// New builds the auth client and restores any persisted session.
func New(gw *api.Client, store *SessionStore, log zerolog.Logger) *Client {
	c := &Client{
		gw:       gw,
		sessions: store,
		log:      log.With().Str("component", "auth").Logger(),
	}
	c.restore()
	return c
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registration struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// authResponse is the backend's account payload. Token is absent from
// the current backend; it is honored when present.
type authResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

// Login authenticates with email and password. Bad credentials arrive
// as an HTTPError carrying the backend's message.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	raw, err := c.gw.Post(ctx, "/login/", credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return c.establish(raw)
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	raw, err := c.gw.Post(ctx, "/register/", registration{FirstName: name, Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return c.establish(raw)
}

// Logout clears the session and notifies dependents.
func (c *Client) Logout() error {
	err := c.sessions.Clear()

	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()

	c.notify(nil)
	c.log.Info().Msg("logged out")
	return err
}

// IsAuthenticated reports whether a live session exists. A session
// whose bearer token has expired does not count.
func (c *Client) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current != nil && !tokenExpired(c.current.Token)
}

// CurrentUser returns the signed-in user, nil when logged out or when
// the session token has expired.
func (c *Client) CurrentUser() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil || tokenExpired(c.current.Token) {
		return nil
	}
	user := c.current.User
	return &user
}

// Token returns the session bearer token, empty when none.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return ""
	}
	return c.current.Token
}

// OnChange registers a listener invoked with the new user on login and
// with nil on logout.
func (c *Client) OnChange(fn func(*User)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Client) establish(raw []byte) (*User, error) {
	var resp authResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &api.ParseError{Err: err}
	}

	user := User{ID: resp.ID, Name: resp.Name, Email: resp.Email}
	sess := &Session{User: user, Token: resp.Token, SavedAt: time.Now()}

	if err := c.sessions.Save(sess); err != nil {
		// The in-memory session still works for this process.
		c.log.Warn().Err(err).Msg("session persistence failed")
	}

	c.mu.Lock()
	c.current = sess
	c.mu.Unlock()

	c.notify(&user)
	c.log.Info().Str("email", user.Email).Msg("logged in")
	return &user, nil
}

func (c *Client) restore() {
	sess, err := c.sessions.Load()
	if err != nil {
		c.log.Warn().Err(err).Msg("session restore failed")
		return
	}
	if sess == nil {
		return
	}
	if tokenExpired(sess.Token) {
		c.log.Info().Msg("persisted session expired, clearing")
		_ = c.sessions.Clear()
		return
	}

	c.mu.Lock()
	c.current = sess
	c.mu.Unlock()
	c.notify(&sess.User)
}

func (c *Client) notify(u *User) {
	c.mu.RLock()
	listeners := make([]func(*User), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.RUnlock()

	for _, fn := range listeners {
		fn(u)
	}
}

// tokenExpired inspects a JWT's exp claim without verifying the
// signature. The client holds no key, so the backend stays
// authoritative. Empty or non-JWT tokens are never treated as expired.
func tokenExpired(token string) bool {
	if token == "" {
		return false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return time.Now().After(claims.ExpiresAt.Time)
}
