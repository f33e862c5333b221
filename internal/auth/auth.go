package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/gob"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"

	"github.com/switzbillz/switzbillz/internal/config"
)

const (
	sessionName     = "switzbillz-session"
	sessionUserKey  = "user"
	sessionStateKey = "oauth_state"
)

// User represents the authenticated back office user from the OIDC provider
type User struct {
	ID            string   `json:"sub"`
	Email         string   `json:"email"`
	EmailVerified bool     `json:"email_verified"`
	Name          string   `json:"name"`
	PreferredName string   `json:"preferred_username"`
	Roles         []string `json:"roles"`
}

// HasRole reports whether the user was granted role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// DisplayName returns the best available name for the layout.
func (u *User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.PreferredName != "":
		return u.PreferredName
	default:
		return u.Email
	}
}

// Authenticator handles OIDC authentication of shop staff
type Authenticator struct {
	provider     *oidc.Provider
	oauth2Config oauth2.Config
	verifier     *oidc.IDTokenVerifier
	store        *sessions.CookieStore
	adminRole    string
}

func init() {
	// Register User type for session serialization
	gob.Register(&User{})
}

// New creates a new Authenticator instance
func New(ctx context.Context, cfg *config.Config) (*Authenticator, error) {
	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	oauth2Config := oauth2.Config{
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURL:  cfg.OAuthCallbackURL(),
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email", "roles"},
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: cfg.OIDCClientID,
	})

	return &Authenticator{
		provider:     provider,
		oauth2Config: oauth2Config,
		verifier:     verifier,
		store:        newStore(cfg),
		adminRole:    cfg.AdminRole,
	}, nil
}

func newStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   strings.HasPrefix(cfg.BaseURL, "https"),
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// LoginHandler redirects to the OIDC provider login
func (a *Authenticator) LoginHandler(w http.ResponseWriter, r *http.Request) {
	state := generateState()

	session, _ := a.store.Get(r, sessionName)
	session.Values[sessionStateKey] = state
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, a.oauth2Config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// CallbackHandler handles the OAuth2 callback from the provider
func (a *Authenticator) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	session, err := a.store.Get(r, sessionName)
	if err != nil {
		http.Error(w, "Failed to get session", http.StatusInternalServerError)
		return
	}

	savedState, ok := session.Values[sessionStateKey].(string)
	if !ok || savedState != r.URL.Query().Get("state") {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}
	delete(session.Values, sessionStateKey)

	token, err := a.oauth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		http.Error(w, "No ID token in response", http.StatusInternalServerError)
		return
	}

	idToken, err := a.verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		http.Error(w, "Failed to verify ID token", http.StatusInternalServerError)
		return
	}

	var user User
	if err := idToken.Claims(&user); err != nil {
		http.Error(w, "Failed to parse claims", http.StatusInternalServerError)
		return
	}

	session.Values[sessionUserKey] = &user
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/settings", http.StatusTemporaryRedirect)
}

// LogoutHandler clears the session
func (a *Authenticator) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := a.store.Get(r, sessionName)
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	session.Save(r, w)

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// GetUser returns the authenticated user from session, or nil if not authenticated
func (a *Authenticator) GetUser(r *http.Request) *User {
	session, err := a.store.Get(r, sessionName)
	if err != nil {
		return nil
	}

	user, ok := session.Values[sessionUserKey].(*User)
	if !ok {
		return nil
	}

	return user
}

// IsAdmin reports whether user may manage the module.
func (a *Authenticator) IsAdmin(user *User) bool {
	return user != nil && user.HasRole(a.adminRole)
}

// RequireAuth is a middleware that ensures the user is authenticated
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := a.GetUser(r)
		if user == nil {
			http.Redirect(w, r, "/auth/login", http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// generateState creates a random state string for OAuth2
func generateState() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}
