package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrEmailTaken means registration hit an email that already has an account.
var ErrEmailTaken = errors.New("an account with this email already exists", errors.CategoryConflict).
	WithCode(errors.CodeConflict).
	WithTextCode("EMAIL_TAKEN")

// ErrUserNotFound is returned by the flows that reveal account existence
// (resend verification, forgot password, role changes).
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode("USER_NOT_FOUND")

// ErrInvalidCredentials covers both unknown email and wrong password on
// login. The two causes must stay externally indistinguishable.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("INVALID_CREDENTIALS")

// ErrInvalidToken covers every token redemption failure: unknown, expired,
// already used, malformed, bad signature. Deliberately a single class so
// callers cannot probe which tokens exist.
var ErrInvalidToken = errors.New("invalid or expired token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("INVALID_TOKEN")

// ErrEmailNotVerified gates login and password reset behind verification.
var ErrEmailNotVerified = errors.New("email not verified, check your inbox for a verification link", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("EMAIL_NOT_VERIFIED")

// ErrAlreadyVerified means a resend was requested for a verified account.
var ErrAlreadyVerified = errors.New("email is already verified", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest).
	WithTextCode("ALREADY_VERIFIED")

// ErrAdminOnly means the acting user lacks the ADMIN role.
var ErrAdminOnly = errors.New("only administrators may perform this action", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode("ADMIN_ONLY")

// ErrInvalidRole means the requested role is outside the promotable set.
var ErrInvalidRole = errors.New("invalid role, only CAPTAIN or COMPANY_ADMIN are allowed", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest).
	WithTextCode("INVALID_ROLE")

// ErrAdminImmutable means the target of a role change is an ADMIN account.
var ErrAdminImmutable = errors.New("administrator roles cannot be changed by this flow", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest).
	WithTextCode("ADMIN_IMMUTABLE")

// ErrAlreadyBaseRole means demote was called on a user already at USER.
var ErrAlreadyBaseRole = errors.New("user already has the USER role", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest).
	WithTextCode("ALREADY_BASE_ROLE")

// ErrTargetNotVerified means the promotion target has not verified their email.
var ErrTargetNotVerified = errors.New("user must verify their email before being promoted", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest).
	WithTextCode("TARGET_NOT_VERIFIED")

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode("EMPTY_VALUE")

// ErrMismatchedHashAndPassword is the internal bcrypt comparison failure.
// The login flow translates it to ErrInvalidCredentials before it leaves
// the core.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("PASSWORD_MISMATCH")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
