package auth

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// AuthController is the HTTP boundary of the auth core. It binds and
// validates request payloads, invokes the handlers, and maps rich errors to
// status codes. No domain rule lives here.
type AuthController struct {
	Debug  bool
	Logger Logger

	Auther     *Auther
	Register   *RegisterUserHandler
	Verify     *VerifyEmailHandler
	Resend     *ResendVerificationHandler
	ResetInit  *InitializePasswordResetHandler
	ResetFinal *FinalizePasswordResetHandler
	Roles      *ChangeRoleHandler
	Tokens     TokenService
	Mailer     Mailer
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil || c.Tokens == nil {
		panic("Missing authenticator or token service in auth controller...")
	}

	return c
}

func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// RegisterRoutes wires the auth endpoints. Quotas mirror the original
// mobile backend: 3 registrations and 5 logins per 5 minutes per client.
func (a *AuthController) RegisterRoutes(app fiber.Router) {
	registerLimit := limiter.New(limiter.Config{Max: 3, Expiration: 5 * time.Minute})
	loginLimit := limiter.New(limiter.Config{Max: 5, Expiration: 5 * time.Minute})
	forgotLimit := limiter.New(limiter.Config{Max: 5, Expiration: 5 * time.Minute})

	grp := app.Group("/auth")

	grp.Post("/register", registerLimit, a.RegisterPost)
	grp.Post("/verify-email", a.VerifyEmailPost)
	grp.Get("/verify-email", a.VerifyEmailLink)
	grp.Post("/resend-verification", a.ResendVerificationPost)
	grp.Post("/login", loginLimit, a.LoginPost)
	grp.Post("/refresh", a.RefreshPost)
	grp.Post("/forgot-password", forgotLimit, a.ForgotPasswordPost)
	grp.Post("/reset-password", a.ResetPasswordPost)
	grp.Get("/reset-password", a.ResetPasswordEcho)
	grp.Post("/test-smtp", a.TestSMTPPost)

	grp.Post("/promote-user", RequireAuth(a.Tokens), a.PromoteUserPost)
	grp.Post("/demote-user", RequireAuth(a.Tokens), a.DemoteUserPost)
}

// RegisterRequest payload
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Phone, phoneRule()),
		validation.Field(&r.Password, validation.Required, passwordRule()),
	)
}

func (a *AuthController) RegisterPost(c *fiber.Ctx) error {
	payload := new(RegisterRequest)
	if err := c.BodyParser(payload); err != nil {
		return writeError(c, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	if err := payload.Validate(); err != nil {
		return writeValidationError(c, err)
	}

	var resp *RegisterUserResponse
	err := a.Register.Execute(c.Context(), RegisterUserMessage{
		Email:    payload.Email,
		Name:     payload.Name,
		Phone:    payload.Phone,
		Password: payload.Password,
		OnResponse: func(r *RegisterUserResponse) {
			resp = r
		},
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Account created. Check your email to activate it.",
		"userId":    resp.UserID,
		"emailSent": resp.EmailSent,
	})
}

// VerifyEmailRequest payload
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

func (r VerifyEmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

func (a *AuthController) VerifyEmailPost(c *fiber.Ctx) error {
	payload := new(VerifyEmailRequest)
	if err := c.BodyParser(payload); err != nil {
		return writeError(c, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return writeValidationError(c, err)
	}

	var resp *VerifyEmailResponse
	err := a.Verify.Execute(c.Context(), VerifyEmailMessage{
		Token: payload.Token,
		OnResponse: func(r *VerifyEmailResponse) {
			resp = r
		},
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":      "Email verified. You are now signed in.",
		"accessToken":  resp.Tokens.AccessToken,
		"refreshToken": resp.Tokens.RefreshToken,
		"user":         resp.User,
	})
}

// VerifyEmailLink is the GET variant behind the emailed link. Same state
// transition as the POST, but it renders a human readable page instead of a
// tokened JSON body.
func (a *AuthController) VerifyEmailLink(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).Render("verify_error", fiber.Map{
			"reason": "No verification token was provided.",
		})
	}

	err := a.Verify.Execute(c.Context(), VerifyEmailMessage{Token: token})
	if err != nil {
		var richErr *errors.Error
		reason := "The verification link is invalid or has expired."
		if errors.As(err, &richErr) {
			reason = richErr.Message
		}
		return c.Status(fiber.StatusBadRequest).Render("verify_error", fiber.Map{
			"reason": reason,
		})
	}

	return c.Render("verify_success", fiber.Map{})
}

// ResendVerificationRequest payload
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

func (r ResendVerificationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ResendVerificationPost(c *fiber.Ctx) error {
	payload := new(ResendVerificationRequest)
	if err := c.BodyParser(payload); err != nil {
		return writeError(c, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return writeValidationError(c, err)
	}

	var resp *ResendVerificationResponse
	err := a.Resend.Execute(c.Context(), ResendVerificationMessage{
		Email: payload.Email,
		OnResponse: func(r *ResendVerificationResponse) {
			resp = r
		},
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":   "Verification email sent.",
		"emailSent": resp.EmailSent,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := c.BodyParser(payload); err != nil {
		return writeError(c, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	if err := payload.Validate(); err != nil {
		return writeValidationError(c, err)
	}

	result, err := a.Auther.Login(c.Context(), payload.Email, payload.Password)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"accessToken":  result.Tokens.AccessToken,
		"refreshToken": result.Tokens.RefreshToken,
		"user":         result.User,
	})
}

// RefreshRequest payload
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (a *AuthController) RefreshPost(c *fiber.Ctx) error {
	payload := new(RefreshRequest)
	if err := c.BodyParser(payload); err != nil {
		return writeError(c, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return writeValidationError(c, err)
	}

	result, err := a.Auther.Refresh(c.Context(), payload.RefreshToken)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"accessToken":  result.Tokens.AccessToken,
		"refreshToken": result.Tokens.RefreshToken,
		"user":         result.User,
	})
}

// ForgotPasswordRequest payload
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ForgotPasswordPost(c *fiber.Ctx) error {
	payload := new(ForgotPasswordRequest)
	if err := c.BodyParser(payload); err != nil {
		return writeError(c, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return writeValidationError(c, err)
	}

	var resp *InitializePasswordResetResponse
	err := a.ResetInit.Execute(c.Context(), InitializePasswordResetMessage{
		Email: payload.Email,
		OnResponse: func(r *InitializePasswordResetResponse) {
			resp = r
		},
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Account found. You can reset your password now.",
		"token":     resp.Token,
		"expiresAt": resp.ExpiresAt,
		"emailSent": resp.EmailSent,
	})
}

// ResetPasswordRequest payload
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, passwordRule()),
	)
}

func (a *AuthController) ResetPasswordPost(c *fiber.Ctx) error {
	payload := new(ResetPasswordRequest)
	if err := c.BodyParser(payload); err != nil {
		return writeError(c, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return writeValidationError(c, err)
	}

	err := a.ResetFinal.Execute(c.Context(), FinalizePasswordResetMessage{
		Token:    payload.Token,
		Password: payload.NewPassword,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Password reset successfully.",
	})
}

// ResetPasswordEcho backs the emailed reset link for clients without deep
// linking: it hands the token back with instructions for the POST endpoint.
func (a *AuthController) ResetPasswordEcho(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "token is required",
			"message": "Use POST /auth/reset-password with token and newPassword",
		})
	}

	return c.JSON(fiber.Map{
		"message":      "Token received. Use POST /auth/reset-password with token and newPassword",
		"token":        token,
		"instructions": "Endpoint: POST /auth/reset-password | Body: {\"token\": \"" + token + "\", \"newPassword\": \"your-new-password\"}",
	})
}

// TestSMTPPost checks mail server connectivity so operators can verify the
// SMTP settings without triggering a real signup.
func (a *AuthController) TestSMTPPost(c *fiber.Ctx) error {
	tester, ok := a.Mailer.(ConnectionTester)
	if !ok {
		return c.JSON(fiber.Map{
			"success": false,
			"message": "Mail transport does not support connection checks",
		})
	}

	if err := tester.TestConnection(c.Context()); err != nil {
		a.Logger.Error("SMTP connection check failed: %v", err)
		return c.JSON(fiber.Map{
			"success": false,
			"message": "SMTP connection failed. Check the mail settings",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "SMTP connection verified",
	})
}

// PromoteUserRequest payload
type PromoteUserRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (r PromoteUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Role, validation.Required),
	)
}

func (a *AuthController) PromoteUserPost(c *fiber.Ctx) error {
	actor, ok := ActorFromCtx(c)
	if !ok {
		return writeError(c, ErrInvalidToken)
	}

	payload := new(PromoteUserRequest)
	if err := c.BodyParser(payload); err != nil {
		return writeError(c, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return writeValidationError(c, err)
	}

	var resp *RoleChangeResponse
	err := a.Roles.Promote(c.Context(), PromoteUserMessage{
		Email: payload.Email,
		Role:  payload.Role,
		Actor: actor,
		OnResponse: func(r *RoleChangeResponse) {
			resp = r
		},
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("User promoted to %s.", payload.Role),
		"user":    resp.User,
	})
}

// DemoteUserRequest payload
type DemoteUserRequest struct {
	Email string `json:"email"`
}

func (r DemoteUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) DemoteUserPost(c *fiber.Ctx) error {
	actor, ok := ActorFromCtx(c)
	if !ok {
		return writeError(c, ErrInvalidToken)
	}

	payload := new(DemoteUserRequest)
	if err := c.BodyParser(payload); err != nil {
		return writeError(c, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return writeValidationError(c, err)
	}

	var resp *RoleChangeResponse
	err := a.Roles.Demote(c.Context(), DemoteUserMessage{
		Email: payload.Email,
		Actor: actor,
		OnResponse: func(r *RoleChangeResponse) {
			resp = r
		},
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "User demoted to USER.",
		"user":    resp.User,
	})
}

// writeError recovers a rich error into a structured client response.
// Anything without a category becomes an opaque 500.
func writeError(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	body := fiber.Map{"error": richErr.Message}
	if richErr.TextCode != "" {
		body["text_code"] = richErr.TextCode
	}

	return c.Status(status).JSON(body)
}

func writeValidationError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":      "validation failed",
		"text_code":  "VALIDATION",
		"validation": err.Error(),
	})
}
