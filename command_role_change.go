package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type PromoteUserMessage struct {
	Email      string   `json:"email"`
	Role       UserRole `json:"role"`
	Actor      Actor    `json:"-"`
	OnResponse func(resp *RoleChangeResponse)
}

func (p PromoteUserMessage) Type() string { return "user.promote" }

type DemoteUserMessage struct {
	Email      string `json:"email"`
	Actor      Actor  `json:"-"`
	OnResponse func(resp *RoleChangeResponse)
}

func (p DemoteUserMessage) Type() string { return "user.demote" }

type RoleChangeResponse struct {
	User *PublicUser `json:"user"`
}

// ChangeRoleHandler owns the promotion/demotion workflow. Promotion assigns
// CAPTAIN or COMPANY_ADMIN; demotion always targets USER. ADMIN accounts are
// neither promotable nor demotable through this flow.
type ChangeRoleHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewChangeRoleHandler(repo RepositoryManager) *ChangeRoleHandler {
	return &ChangeRoleHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *ChangeRoleHandler) WithLogger(logger Logger) *ChangeRoleHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ChangeRoleHandler) Promote(ctx context.Context, event PromoteUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during promotion")
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if !event.Actor.IsAdmin() {
		h.logger.Warn("promotion of %s attempted by non-admin %s", event.Email, event.Actor.Email)
		return ErrAdminOnly
	}

	if !IsPromotableRole(event.Role) {
		return ErrInvalidRole
	}

	target, err := h.lookupTarget(ctx, event.Email)
	if err != nil {
		return err
	}

	if !target.EmailVerified {
		return ErrTargetNotVerified
	}

	if target.Role == RoleAdmin {
		return ErrAdminImmutable
	}

	updated, err := h.repo.Users().UpdateRole(ctx, target.ID, event.Role)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user role")
	}

	h.logger.Info("user %s promoted to %s by %s", event.Email, event.Role, event.Actor.Email)

	if event.OnResponse != nil {
		event.OnResponse(&RoleChangeResponse{User: updated.Public()})
	}

	return nil
}

func (h *ChangeRoleHandler) Demote(ctx context.Context, event DemoteUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during demotion")
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if !event.Actor.IsAdmin() {
		h.logger.Warn("demotion of %s attempted by non-admin %s", event.Email, event.Actor.Email)
		return ErrAdminOnly
	}

	target, err := h.lookupTarget(ctx, event.Email)
	if err != nil {
		return err
	}

	if target.Role == RoleAdmin {
		return ErrAdminImmutable
	}

	// An explicit rejection rather than a silent no-op.
	if target.Role == RoleUser {
		return ErrAlreadyBaseRole
	}

	updated, err := h.repo.Users().UpdateRole(ctx, target.ID, RoleUser)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user role")
	}

	h.logger.Info("user %s demoted to USER by %s", event.Email, event.Actor.Email)

	if event.OnResponse != nil {
		event.OnResponse(&RoleChangeResponse{User: updated.Public()})
	}

	return nil
}

func (h *ChangeRoleHandler) lookupTarget(ctx context.Context, email string) (*User, error) {
	target, err := h.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve target user")
	}
	return target, nil
}
