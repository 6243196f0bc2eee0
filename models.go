package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is the default role every account starts with
	RoleUser UserRole = "USER"
	// RoleCaptain organizes games and manages team rosters
	RoleCaptain UserRole = "CAPTAIN"
	// RoleCompanyAdmin manages fields on behalf of a company
	RoleCompanyAdmin UserRole = "COMPANY_ADMIN"
	// RoleAdmin is the platform administrator
	RoleAdmin UserRole = "ADMIN"
)

// ResetTokenTTL is how long a password reset token stays redeemable.
const ResetTokenTTL = 15 * time.Minute

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role              UserRole   `bun:"user_role,notnull" json:"role,omitempty"`
	Name              string     `bun:"name,notnull" json:"name,omitempty"`
	Email             string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone             string     `bun:"phone_number" json:"phone,omitempty"`
	PasswordHash      string     `bun:"password_hash" json:"-"`
	EmailVerified     bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	VerificationToken string     `bun:"email_verification_token,nullzero" json:"-"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// PublicUser is the client-safe projection of a User. It never carries the
// password hash or the verification token.
type PublicUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Phone string    `json:"phone,omitempty"`
	Role  UserRole  `json:"role"`
}

// Public returns the client-safe projection
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Phone: u.Phone,
		Role:  u.Role,
	}
}

// PasswordResetToken is a single-use, expiring credential for the password
// reset flow. Rows are never deleted; they are marked used either by
// redemption or by a superseding request.
type PasswordResetToken struct {
	bun.BaseModel `bun:"table:password_reset_tokens,alias:prt"`

	ID        uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID    *uuid.UUID `bun:"user_id,notnull" json:"user_id,omitempty"`
	User      *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Token     string     `bun:"token,notnull,unique" json:"-"`
	ExpiresAt time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	Used      bool       `bun:"used,notnull,default:false" json:"used,omitempty"`
	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// Redeemable reports whether the token can still be used to reset a password.
func (t *PasswordResetToken) Redeemable(now time.Time) bool {
	return !t.Used && !t.Expired(now)
}

// NewPasswordResetToken creates an unused token owned by the given user,
// expiring ResetTokenTTL from now.
func NewPasswordResetToken(userID uuid.UUID, token string) *PasswordResetToken {
	return &PasswordResetToken{
		UserID:    &userID,
		Token:     token,
		ExpiresAt: time.Now().Add(ResetTokenTTL),
	}
}
