package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// UsersController exposes profile management on top of the same user store
// the auth flows use. Every route requires a bearer token.
type UsersController struct {
	Logger Logger
	Repo   RepositoryManager
	Tokens TokenService
}

func NewUsersController(repo RepositoryManager, tokens TokenService) *UsersController {
	return &UsersController{
		Logger: defLogger{},
		Repo:   repo,
		Tokens: tokens,
	}
}

func (u *UsersController) RegisterRoutes(app fiber.Router) {
	grp := app.Group("/users", RequireAuth(u.Tokens))

	grp.Get("/", u.List)
	grp.Get("/me", u.Me)
	grp.Get("/:id", u.Show)
	grp.Patch("/:id", u.Patch)
	grp.Delete("/:id", u.Delete)
}

func (u *UsersController) List(c *fiber.Ctx) error {
	actor, ok := ActorFromCtx(c)
	if !ok {
		return writeError(c, ErrInvalidToken)
	}

	if !actor.IsAdmin() {
		return writeError(c, ErrAdminOnly)
	}

	records, err := u.Repo.Users().List(c.Context())
	if err != nil {
		return writeError(c, err)
	}

	users := make([]*PublicUser, 0, len(records))
	for _, record := range records {
		users = append(users, record.Public())
	}

	return c.JSON(fiber.Map{"users": users})
}

func (u *UsersController) Me(c *fiber.Ctx) error {
	actor, ok := ActorFromCtx(c)
	if !ok {
		return writeError(c, ErrInvalidToken)
	}

	id, err := uuid.Parse(actor.ID)
	if err != nil {
		return writeError(c, ErrInvalidToken)
	}

	record, err := u.Repo.Users().GetByID(c.Context(), id)
	if err != nil {
		return writeError(c, ErrUserNotFound)
	}

	return c.JSON(fiber.Map{"user": record.Public()})
}

func (u *UsersController) Show(c *fiber.Ctx) error {
	actor, ok := ActorFromCtx(c)
	if !ok {
		return writeError(c, ErrInvalidToken)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return writeError(c, ErrUserNotFound)
	}

	if !actor.IsAdmin() && actor.ID != id.String() {
		return writeError(c, ErrAdminOnly)
	}

	record, err := u.Repo.Users().GetByID(c.Context(), id)
	if err != nil {
		return writeError(c, ErrUserNotFound)
	}

	return c.JSON(fiber.Map{"user": record.Public()})
}

// UpdateUserRequest payload. Zero value fields are left untouched.
type UpdateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(2, 100)),
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Phone, phoneRule()),
		validation.Field(&r.Password, validation.By(func(value interface{}) error {
			s, _ := value.(string)
			if s == "" {
				return nil
			}
			return validation.Validate(s, passwordRule())
		})),
	)
}

func (u *UsersController) Patch(c *fiber.Ctx) error {
	actor, ok := ActorFromCtx(c)
	if !ok {
		return writeError(c, ErrInvalidToken)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return writeError(c, ErrUserNotFound)
	}

	self := actor.ID == id.String()
	if !actor.IsAdmin() && !self {
		return writeError(c, ErrAdminOnly)
	}

	payload := new(UpdateUserRequest)
	if err := c.BodyParser(payload); err != nil {
		return writeError(c, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return writeValidationError(c, err)
	}

	record, err := u.Repo.Users().GetByID(c.Context(), id)
	if err != nil {
		return writeError(c, ErrUserNotFound)
	}

	if payload.Name != "" {
		record.Name = payload.Name
	}

	if payload.Phone != "" {
		record.Phone = payload.Phone
	}

	if payload.Email != "" && payload.Email != record.Email {
		existing, err := u.Repo.Users().GetByEmail(c.Context(), payload.Email)
		if err != nil && !repository.IsRecordNotFound(err) {
			return writeError(c, err)
		}
		if existing != nil {
			return writeError(c, ErrEmailTaken)
		}
		record.Email = payload.Email
	}

	if payload.Password != "" {
		if !self {
			return writeError(c, errors.New("only the account owner can change the password", errors.CategoryAuthz).
				WithCode(errors.CodeForbidden).
				WithTextCode("PASSWORD_SELF_ONLY"))
		}
		hash, err := HashPassword(payload.Password)
		if err != nil {
			return writeError(c, err)
		}
		record.PasswordHash = hash
	}

	if payload.Role != "" && payload.Role != string(record.Role) {
		if !actor.IsAdmin() {
			return writeError(c, ErrAdminOnly)
		}
		if !IsValidRole(payload.Role) {
			return writeError(c, ErrInvalidRole)
		}
		record.Role = UserRole(payload.Role)
	}

	updated, err := u.Repo.Users().Update(c.Context(), record)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{"user": updated.Public()})
}

func (u *UsersController) Delete(c *fiber.Ctx) error {
	actor, ok := ActorFromCtx(c)
	if !ok {
		return writeError(c, ErrInvalidToken)
	}

	if !actor.IsAdmin() {
		return writeError(c, ErrAdminOnly)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return writeError(c, ErrUserNotFound)
	}

	record, err := u.Repo.Users().GetByID(c.Context(), id)
	if err != nil {
		return writeError(c, ErrUserNotFound)
	}

	if record.Role == RoleAdmin {
		return writeError(c, ErrAdminImmutable)
	}

	if err := u.Repo.Users().Delete(c.Context(), record.ID); err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{"message": "User deleted."})
}
