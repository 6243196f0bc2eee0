package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type ResendVerificationMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *ResendVerificationResponse)
}

func (e ResendVerificationMessage) Type() string { return "user.resend_verification" }

type ResendVerificationResponse struct {
	EmailSent bool `json:"emailSent"`
}

type ResendVerificationHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewResendVerificationHandler(repo RepositoryManager, mailer Mailer) *ResendVerificationHandler {
	return &ResendVerificationHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (h *ResendVerificationHandler) WithLogger(logger Logger) *ResendVerificationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResendVerificationHandler) Execute(ctx context.Context, event ResendVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during verification resend")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendVerificationHandler) execute(ctx context.Context, event ResendVerificationMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for verification resend")
	}

	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	// Overwriting the stored token invalidates every previously issued
	// verification link; only the newest is accepted.
	token, err := NewOpaqueToken()
	if err != nil {
		return err
	}

	if err := h.repo.Users().SetVerificationToken(ctx, user.ID, token); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store new verification token")
	}

	emailSent := true
	if err := h.mailer.SendVerificationEmail(ctx, user.Email, user.Name, token); err != nil {
		h.logger.Warn("verification email dispatch failed for %s: %v", user.Email, err)
		emailSent = false
	}

	if event.OnResponse != nil {
		event.OnResponse(&ResendVerificationResponse{EmailSent: emailSent})
	}

	return nil
}
