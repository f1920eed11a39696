package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/ideahub/internal/apperror"
	"github.com/sakif/ideahub/internal/identity"
	"github.com/sakif/ideahub/internal/service"
)

// oauthStateCookie holds the CSRF state nonce between the GitHub redirect
// and the callback.
const oauthStateCookie = "oauth_state"

// sessionDuration matches the token lifetime, so the cookie and the JWT
// expire together.
const sessionDuration = 24 * time.Hour

// AuthHandler exposes sign-up, sign-in, session, and OAuth endpoints. The
// session token travels as an HttpOnly cookie; API clients that prefer
// headers can use the same token as an Authorization bearer.
type AuthHandler struct {
	identities *service.IdentityService
	github     *identity.GitHubOAuth
	logger     *slog.Logger

	// secureCookies should be true behind TLS; local development runs
	// without it.
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler. github may be nil when OAuth is
// not configured; the OAuth endpoints then report 404.
func NewAuthHandler(identities *service.IdentityService, github *identity.GitHubOAuth, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		identities:    identities,
		github:        github,
		logger:        logger,
		secureCookies: secureCookies,
	}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignUp registers a new account.
//
// HTTP: POST /api/auth/signup
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	ident, err := h.identities.SignUp(r.Context(), req.Email, req.Password, service.SignUpData{
		Username: req.Username,
		FullName: req.FullName,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	message := "account created"
	if !ident.Confirmed() {
		message = "account created, confirm your email to sign in"
	}
	writeData(w, http.StatusCreated, map[string]any{
		"id":        ident.ID,
		"email":     ident.Email,
		"confirmed": ident.Confirmed(),
	}, message)
}

// HandleSignIn verifies credentials and sets the session cookie.
//
// HTTP: POST /api/auth/signin
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	sess, err := h.identities.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, sess.Token)
	writeData(w, http.StatusOK, map[string]any{
		"token": sess.Token,
	}, "signed in")
}

// HandleSignOut clears the session cookie. Succeeds whether or not a
// session was active.
//
// HTTP: POST /api/auth/signout
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.identities.SignOut(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.clearSessionCookie(w)
	writeData(w, http.StatusOK, nil, "signed out")
}

// HandleMe returns the caller's profile, or null data when the identity has
// no profile yet. Runs behind RequireAuth.
//
// HTTP: GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.identities.CurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, user, "")
}

// HandleRefresh issues a fresh token for a still-valid session and rotates
// the cookie. Runs behind RequireAuth.
//
// HTTP: POST /api/auth/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	sess, err := h.identities.RefreshSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	h.setSessionCookie(w, sess.Token)
	writeData(w, http.StatusOK, map[string]any{
		"token": sess.Token,
	}, "session refreshed")
}

// HandleGitHubLogin starts the OAuth flow: sets the state cookie and
// redirects to GitHub.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeError(w, apperror.NotFound("route", r.URL.Path))
		return
	}

	state, err := randomState()
	if err != nil {
		h.logger.Error("generating OAuth state failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow: checks the state, trades
// the code for a GitHub user, signs them in, and sets the session cookie.
//
// HTTP: GET /auth/github/callback
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeError(w, apperror.NotFound("route", r.URL.Path))
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		writeError(w, apperror.Forbidden("OAuth state mismatch"))
		return
	}
	// One-shot: the state is spent regardless of what happens next.
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "authorization code is required"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("GitHub code exchange failed", slog.String("error", err.Error()))
		writeError(w, apperror.Forbidden("GitHub authorization failed"))
		return
	}

	sess, err := h.identities.SignInWithGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, sess.Token)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     identity.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     identity.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
	})
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
