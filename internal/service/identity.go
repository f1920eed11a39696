// Package service contains the business logic layer.
//
// Handlers parse HTTP and write responses; services validate, enforce
// rules, and orchestrate; repositories read and write the database.
// Services depend on the repository interfaces, never on the concrete
// SQLite types, so tests inject mocks and the storage engine stays
// swappable at the composition root.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/ideahub/internal/apperror"
	"github.com/sakif/ideahub/internal/identity"
	"github.com/sakif/ideahub/internal/model"
	"github.com/sakif/ideahub/internal/repository"
)

// SignUpData is the optional profile metadata a client supplies at sign-up.
type SignUpData struct {
	Username string
	FullName string
}

// IdentityService sits between the HTTP layer and the identity provider.
//
// The provider owns credentials and sessions; this service owns the profile
// row that mirrors each confirmed identity. The two are reconciled through
// EnsureProfile, which runs both synchronously after a confirmed sign-up and
// from the provider's session-change subscription, so a profile exists by
// the time any sign-in returns.
type IdentityService struct {
	provider identity.Provider
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewIdentityService creates an IdentityService and registers its
// session-change subscription with the provider.
func NewIdentityService(provider identity.Provider, users repository.UserRepository, logger *slog.Logger) *IdentityService {
	s := &IdentityService{
		provider: provider,
		users:    users,
		logger:   logger,
	}

	// Confirmed sign-ins (fresh or refreshed) must end with a profile row in
	// place. Delivery is synchronous, so the profile exists before the
	// sign-in call that triggered the event returns.
	provider.OnAuthChange(func(change identity.AuthChange) {
		switch change.Event {
		case identity.EventSignedIn:
			if !change.Identity.Confirmed() {
				return
			}
			if err := s.EnsureProfile(context.Background(), change.Identity); err != nil {
				s.logger.Error("profile creation after sign-in failed",
					slog.String("identityID", change.Identity.ID),
					slog.String("error", err.Error()),
				)
			}
		case identity.EventTokenRefreshed, identity.EventSignedOut:
			// Nothing to reconcile; the profile row already exists or the
			// session is gone.
		}
	})

	return s
}

// SignUp registers a new identity. If the identity comes back confirmed, the
// session-change subscription has already created the profile row. With
// confirmation required, no profile exists until ConfirmEmail runs — callers
// must not assume one.
func (s *IdentityService) SignUp(ctx context.Context, email, password string, data SignUpData) (*identity.Identity, error) {
	ident, err := s.provider.SignUp(ctx, email, password, identity.Metadata{
		Username: data.Username,
		FullName: data.FullName,
	})
	if err != nil {
		return nil, err
	}
	return ident, nil
}

// SignIn verifies credentials and returns a session. It deliberately does
// not return a profile: the session-change subscription has already ensured
// one exists, and callers load it through CurrentUser with the new token.
func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	return s.provider.SignInWithPassword(ctx, email, password)
}

// SignInWithGitHub completes an OAuth sign-in for an authenticated GitHub
// user.
func (s *IdentityService) SignInWithGitHub(ctx context.Context, gh *identity.GitHubUser) (*identity.Session, error) {
	return s.provider.SignInWithGitHub(ctx, gh)
}

// SignOut ends the caller's session. Fire-and-forget: a sign-out with no
// active session is not an error.
func (s *IdentityService) SignOut(ctx context.Context) error {
	id, _ := identity.FromContext(ctx)
	return s.provider.SignOut(ctx, id)
}

// ConfirmEmail completes a deferred sign-up. The SIGNED_IN event it fires
// creates the profile row through the subscription.
func (s *IdentityService) ConfirmEmail(ctx context.Context, identityID string) (*identity.Identity, error) {
	return s.provider.ConfirmEmail(ctx, identityID)
}

// RefreshSession issues a fresh token for the caller's still-valid session.
func (s *IdentityService) RefreshSession(ctx context.Context) (*identity.Session, error) {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return nil, apperror.Unauthenticated("refresh session")
	}
	return s.provider.RefreshSession(ctx, id)
}

// CurrentUser resolves the caller's profile row. It returns (nil, nil) both
// when the request is unauthenticated and when the identity has no profile
// yet — absence of a user is a normal state here, not an error.
func (s *IdentityService) CurrentUser(ctx context.Context) (*model.User, error) {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// CurrentUserID returns the caller's identity ID, or "" when
// unauthenticated. It never touches the store.
func (s *IdentityService) CurrentUserID(ctx context.Context) string {
	id, _ := identity.FromContext(ctx)
	return id
}

// IsAuthenticated reports whether the request carries a valid session. It
// never returns an error; anything short of a resolvable identity is false.
func (s *IdentityService) IsAuthenticated(ctx context.Context) bool {
	_, ok := identity.FromContext(ctx)
	return ok
}

// EnsureProfile creates the profile row for a confirmed identity if it does
// not already exist. Idempotent: a concurrent duplicate insert lands on the
// primary-key constraint and is treated as success, so racing sign-ins
// collapse into one row.
//
// Username falls back from sign-up metadata to the email local part to
// "user"; full name falls back to "User".
func (s *IdentityService) EnsureProfile(ctx context.Context, ident *identity.Identity) error {
	if !ident.Confirmed() {
		return apperror.ValidationFailed("identity", "cannot create a profile for an unconfirmed identity")
	}

	exists, err := s.users.Exists(ctx, ident.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	username := ident.Username
	if username == "" {
		if at := strings.Index(ident.Email, "@"); at > 0 {
			username = ident.Email[:at]
		}
	}
	if username == "" {
		username = "user"
	}

	fullName := ident.FullName
	if fullName == "" {
		fullName = "User"
	}

	user := &model.User{
		ID:       ident.ID,
		Username: username,
		Email:    ident.Email,
		FullName: fullName,
		JoinedAt: *ident.EmailConfirmedAt,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// Another request created the row between Exists and Create.
			return nil
		}
		return err
	}

	s.logger.Info("profile created",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return nil
}
