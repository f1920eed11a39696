package identity

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sakif/ideahub/internal/apperror"
	"github.com/sakif/ideahub/internal/repository"
)

// Event names the session-change notifications the provider emits.
type Event string

const (
	EventSignedIn       Event = "SIGNED_IN"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
	EventSignedOut      Event = "SIGNED_OUT"
)

// Metadata is the optional profile data a client supplies at sign-up.
type Metadata struct {
	Username string
	FullName string
}

// Identity is the provider's view of an account: who signed up, through
// which provider, and whether their email is confirmed. It is distinct from
// model.User — the profile row is application data keyed by the identity ID
// and created only once the identity confirms.
type Identity struct {
	ID               string
	Email            string
	Username         string
	FullName         string
	Provider         string
	EmailConfirmedAt *time.Time
}

// Confirmed reports whether the identity's email has been confirmed.
// Profile creation is gated on this.
func (i *Identity) Confirmed() bool {
	return i != nil && i.EmailConfirmedAt != nil
}

// Session bundles a signed token with the identity it belongs to.
type Session struct {
	Token    string
	Identity Identity
}

// AuthChange is delivered to session-change subscribers. Identity is nil
// for SIGNED_OUT.
type AuthChange struct {
	Event    Event
	Identity *Identity
}

// Provider is the identity-provider boundary. The local implementation
// stores identities in the application's own database; the surface is kept
// provider-shaped (sign-up / sign-in / sign-out / session events) so a
// hosted provider could be slotted in behind it.
type Provider interface {
	SignUp(ctx context.Context, email, password string, md Metadata) (*Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignInWithGitHub(ctx context.Context, gh *GitHubUser) (*Session, error)
	SignOut(ctx context.Context, identityID string) error
	GetIdentity(ctx context.Context, id string) (*Identity, error)
	ConfirmEmail(ctx context.Context, id string) (*Identity, error)
	RefreshSession(ctx context.Context, identityID string) (*Session, error)
	// OnAuthChange registers a session-change subscriber and returns its
	// unsubscribe function. Events are delivered synchronously.
	OnAuthChange(fn func(AuthChange)) (unsubscribe func())
}

const (
	providerPassword = "password"
	providerGitHub   = "github"
)

// LocalProvider implements Provider on top of the identities table.
type LocalProvider struct {
	identities repository.IdentityRepository
	tokens     *TokenService
	passwords  *PasswordService
	logger     *slog.Logger

	// requireConfirmation defers profile creation until ConfirmEmail runs.
	// When false (the default deployment), sign-ups are confirmed on the
	// spot and SIGNED_IN fires immediately.
	requireConfirmation bool

	mu      sync.Mutex
	subs    map[int]func(AuthChange)
	nextSub int
}

// NewLocalProvider creates a LocalProvider with all required dependencies.
func NewLocalProvider(
	identities repository.IdentityRepository,
	tokens *TokenService,
	passwords *PasswordService,
	requireConfirmation bool,
	logger *slog.Logger,
) *LocalProvider {
	return &LocalProvider{
		identities:          identities,
		tokens:              tokens,
		passwords:           passwords,
		requireConfirmation: requireConfirmation,
		logger:              logger,
		subs:                make(map[int]func(AuthChange)),
	}
}

var _ Provider = (*LocalProvider)(nil)

// SignUp registers a new identity. With confirmation disabled the identity
// comes back already confirmed and a SIGNED_IN event fires; with
// confirmation required, no event fires until ConfirmEmail — callers must
// not assume a usable profile exists either way (the identity service owns
// profile creation).
func (p *LocalProvider) SignUp(ctx context.Context, email, password string, md Metadata) (*Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(password) < 8 {
		return nil, apperror.ValidationFailed("password", "password must be at least 8 characters")
	}

	hash, err := p.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	rec := &repository.IdentityRecord{
		Email:        email,
		PasswordHash: hash,
		Username:     md.Username,
		FullName:     md.FullName,
		Provider:     providerPassword,
	}
	if !p.requireConfirmation {
		now := time.Now()
		rec.EmailConfirmedAt = &now
	}

	if err := p.identities.CreateIdentity(ctx, rec); err != nil {
		return nil, err
	}

	ident := recordToIdentity(rec)
	p.logger.Info("identity signed up",
		slog.String("identityID", ident.ID),
		slog.Bool("confirmed", ident.Confirmed()),
	)

	if ident.Confirmed() {
		p.emit(AuthChange{Event: EventSignedIn, Identity: &ident})
	}

	return &ident, nil
}

// SignInWithPassword verifies credentials and issues a session. Wrong email
// and wrong password report the same error, so probing for registered
// addresses through this endpoint tells the caller nothing. An identity with
// a pending email confirmation is rejected: no session exists for it until
// ConfirmEmail runs, so it can never reach authenticated routes without a
// profile row behind it.
func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	rec, err := p.identities.GetIdentityByEmail(ctx, email)
	if err != nil {
		return nil, invalidCredentials()
	}
	if err := p.passwords.Verify(rec.PasswordHash, password); err != nil {
		return nil, invalidCredentials()
	}
	if rec.EmailConfirmedAt == nil {
		return nil, unconfirmedEmail()
	}

	return p.issueSession(rec, EventSignedIn)
}

// SignInWithGitHub upserts an identity for an authenticated GitHub user and
// issues a session. OAuth identities are pre-confirmed: GitHub already
// verified the email, so this path always reaches the SIGNED_IN event with
// a confirmed identity.
func (p *LocalProvider) SignInWithGitHub(ctx context.Context, gh *GitHubUser) (*Session, error) {
	if gh == nil || gh.ID == 0 {
		return nil, apperror.ValidationFailed("github", "GitHub user must not be empty")
	}

	email := gh.Email
	if email == "" {
		// GitHub users may hide their email; fall back to the stable
		// noreply address so the identity still has a unique key.
		email = gh.Login + "@users.noreply.github.com"
	}

	rec := &repository.IdentityRecord{
		Email:    strings.ToLower(email),
		Username: gh.Login,
		FullName: gh.Login,
		Provider: providerGitHub,
	}
	if err := p.identities.UpsertOAuthIdentity(ctx, rec); err != nil {
		return nil, err
	}

	return p.issueSession(rec, EventSignedIn)
}

// SignOut emits SIGNED_OUT. Sessions are stateless JWTs, so there is
// nothing server-side to revoke; the handler clears the cookie and
// subscribers clear their view of the user.
func (p *LocalProvider) SignOut(ctx context.Context, identityID string) error {
	p.logger.Info("identity signed out", slog.String("identityID", identityID))
	p.emit(AuthChange{Event: EventSignedOut})
	return nil
}

// GetIdentity loads an identity by ID.
func (p *LocalProvider) GetIdentity(ctx context.Context, id string) (*Identity, error) {
	rec, err := p.identities.GetIdentityByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ident := recordToIdentity(rec)
	return &ident, nil
}

// ConfirmEmail marks a deferred sign-up as confirmed and fires SIGNED_IN,
// which is what finally triggers profile creation downstream. Idempotent:
// confirming twice just refreshes the timestamp.
func (p *LocalProvider) ConfirmEmail(ctx context.Context, id string) (*Identity, error) {
	if err := p.identities.ConfirmIdentity(ctx, id, time.Now()); err != nil {
		return nil, err
	}

	rec, err := p.identities.GetIdentityByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ident := recordToIdentity(rec)
	p.emit(AuthChange{Event: EventSignedIn, Identity: &ident})
	return &ident, nil
}

// RefreshSession issues a fresh token for a still-valid session and emits
// TOKEN_REFRESHED.
func (p *LocalProvider) RefreshSession(ctx context.Context, identityID string) (*Session, error) {
	rec, err := p.identities.GetIdentityByID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	return p.issueSession(rec, EventTokenRefreshed)
}

// OnAuthChange registers fn and returns its unsubscribe function.
func (p *LocalProvider) OnAuthChange(fn func(AuthChange)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

func (p *LocalProvider) issueSession(rec *repository.IdentityRecord, event Event) (*Session, error) {
	token, err := p.tokens.Generate(rec.ID)
	if err != nil {
		return nil, err
	}

	ident := recordToIdentity(rec)
	p.emit(AuthChange{Event: event, Identity: &ident})

	return &Session{Token: token, Identity: ident}, nil
}

// emit delivers the change to every subscriber synchronously: by the time a
// sign-in returns, ensureProfile has already run.
func (p *LocalProvider) emit(change AuthChange) {
	p.mu.Lock()
	fns := make([]func(AuthChange), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}

func recordToIdentity(rec *repository.IdentityRecord) Identity {
	return Identity{
		ID:               rec.ID,
		Email:            rec.Email,
		Username:         rec.Username,
		FullName:         rec.FullName,
		Provider:         rec.Provider,
		EmailConfirmedAt: rec.EmailConfirmedAt,
	}
}

func invalidCredentials() error {
	return &apperror.AppError{
		Err:     apperror.ErrUnauthenticated,
		Message: "invalid email or password",
	}
}

// unconfirmedEmail is distinct from invalidCredentials: the caller has
// already proved they hold the password, so naming the pending confirmation
// leaks nothing about which addresses are registered.
func unconfirmedEmail() error {
	return &apperror.AppError{
		Err:     apperror.ErrUnauthenticated,
		Message: "email is not confirmed",
	}
}
