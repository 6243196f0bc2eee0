package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// LoginResult is what a successful login or refresh returns.
type LoginResult struct {
	Tokens *TokenPair  `json:"tokens"`
	User   *PublicUser `json:"user"`
}

// Auther orchestrates credential login and token refresh.
type Auther struct {
	repo   RepositoryManager
	tokens TokenService
	mailer Mailer
	logger Logger
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(repo RepositoryManager, tokens TokenService, mailer Mailer) *Auther {
	return &Auther{
		repo:   repo,
		tokens: tokens,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// TokenService returns the TokenService instance used by this Auther
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// Login verifies credentials and issues an access/refresh pair. Unknown
// email and wrong password collapse into the same error so this path cannot
// be used to enumerate accounts. An unverified account with a correct
// password gets a fresh verification email as a side effect and still fails.
func (s *Auther) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Info("login failed for %s: no such account", email)
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if goerrors.Is(err, ErrMismatchedHashAndPassword) {
			s.logger.Info("login failed for %s: wrong password", email)
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare password hash")
	}

	if !user.EmailVerified {
		s.resendVerification(ctx, user)
		return nil, ErrEmailNotVerified
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue token pair")
	}

	s.logger.Info("login succeeded for %s", email)

	return &LoginResult{
		Tokens: pair,
		User:   user.Public(),
	}, nil
}

// Refresh exchanges a valid refresh token for a brand-new pair. The role in
// the new access token comes from the store, not from the old token, so a
// demotion takes effect on the next refresh. Old refresh tokens are not
// revoked; they remain valid until natural expiry.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.tokens.Validate(refreshToken)
	if err != nil {
		s.logger.Info("token refresh failed: %v", err)
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject())
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.Users().GetByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve refresh token subject")
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue token pair")
	}

	return &LoginResult{
		Tokens: pair,
		User:   user.Public(),
	}, nil
}

// resendVerification regenerates the verification token and re-sends the
// email. Best effort: a failure is logged, never surfaced, and the login
// error stays ErrEmailNotVerified regardless.
func (s *Auther) resendVerification(ctx context.Context, user *User) {
	token, err := NewOpaqueToken()
	if err != nil {
		s.logger.Error("failed to generate verification token for %s: %v", user.Email, err)
		return
	}

	if err := s.repo.Users().SetVerificationToken(ctx, user.ID, token); err != nil {
		s.logger.Error("failed to store verification token for %s: %v", user.Email, err)
		return
	}

	if err := s.mailer.SendVerificationEmail(ctx, user.Email, user.Name, token); err != nil {
		s.logger.Warn("verification email dispatch failed for %s: %v", user.Email, err)
		return
	}

	s.logger.Info("verification email re-sent to unverified account %s", user.Email)
}
