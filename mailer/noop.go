package mailer

import (
	"context"
	"errors"
	"log"
)

// Noop logs the message instead of sending it. Used in development when
// SMTP is not configured, so flows depending on dispatch still complete and
// the token is visible in the server log.
type Noop struct{}

func (Noop) SendVerificationEmail(_ context.Context, email, name, token string) error {
	log.Printf(`
=== VERIFICATION EMAIL (DEVELOPMENT) ===
To: %s
Name: %s
Token: %s
========================================`, email, name, token)
	return nil
}

func (Noop) SendPasswordResetEmail(_ context.Context, email, name, token string) error {
	log.Printf(`
=== PASSWORD RESET EMAIL (DEVELOPMENT) ===
To: %s
Name: %s
Token: %s
==========================================`, email, name, token)
	return nil
}

// TestConnection always fails: there is no transport to verify.
func (Noop) TestConnection(_ context.Context) error {
	return errors.New("mail transport not configured (development mode)")
}
