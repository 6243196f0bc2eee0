package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// ContextClaimsKey is where validated access claims live on the request.
	ContextClaimsKey = "authClaims"
)

// RequireAuth validates the bearer access token and stores its claims in the
// request locals. Any failure is a 401 with the indistinguishable
// invalid-token body.
func RequireAuth(tokens TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return writeError(c, ErrInvalidToken)
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return writeError(c, ErrInvalidToken)
		}

		claims, err := tokens.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			return writeError(c, err)
		}

		c.Locals(ContextClaimsKey, claims)

		return c.Next()
	}
}

// GetClaims extracts the validated claims stored by RequireAuth.
func GetClaims(c *fiber.Ctx) (AuthClaims, bool) {
	claims, ok := c.Locals(ContextClaimsKey).(AuthClaims)
	return claims, ok
}

// ActorFromCtx builds the acting identity handed to role-change commands.
func ActorFromCtx(c *fiber.Ctx) (Actor, bool) {
	claims, ok := GetClaims(c)
	if !ok {
		return Actor{}, false
	}
	return Actor{
		ID:    claims.UserID(),
		Email: claims.Email(),
		Role:  claims.Role(),
	}, true
}
