package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/django/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/footmatch/go-auth"
	"github.com/footmatch/go-auth/mailer"
)

func main() {
	cfg, err := auth.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := openDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := createSchema(context.Background(), db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	repo := auth.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		log.Fatalf("repositories: %v", err)
	}

	tokens := auth.NewTokenService(
		[]byte(cfg.SigningKey),
		cfg.AccessTTL,
		cfg.RefreshTTL,
		cfg.Issuer,
		cfg.Audience,
	)

	post := newMailer(cfg)

	auther := auth.NewAuthenticator(repo, tokens, post)

	controller := auth.NewAuthController(func(c *auth.AuthController) *auth.AuthController {
		c.Auther = auther
		c.Tokens = tokens
		c.Register = auth.NewRegisterUserHandler(repo, post)
		c.Verify = auth.NewVerifyEmailHandler(repo, tokens)
		c.Resend = auth.NewResendVerificationHandler(repo, post)
		c.ResetInit = auth.NewInitializePasswordResetHandler(repo, post)
		c.ResetFinal = auth.NewFinalizePasswordResetHandler(repo)
		c.Roles = auth.NewChangeRoleHandler(repo)
		c.Mailer = post
		return c
	}, auth.WithControllerDebug(cfg.Debug))

	users := auth.NewUsersController(repo, tokens)

	engine := django.NewFileSystem(http.FS(auth.ViewsFS()), ".html")

	app := fiber.New(fiber.Config{
		AppName: "footmatch-auth",
		Views:   engine,
	})
	app.Use(recover.New())

	controller.RegisterRoutes(app)
	users.RegisterRoutes(app)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("shutting down...")
		_ = app.Shutdown()
	}()

	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func openDatabase(path string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func createSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*auth.User)(nil),
		(*auth.PasswordResetToken)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}

func newMailer(cfg *auth.Config) auth.Mailer {
	if !cfg.SMTP.Configured() {
		log.Println("SMTP not configured, emails will be logged instead of sent")
		return mailer.Noop{}
	}

	return mailer.NewClient(mailer.Config{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		Username:    cfg.SMTP.Username,
		Password:    cfg.SMTP.Password,
		FromAddress: cfg.SMTP.From,
		AppURL:      cfg.AppURL,
	})
}
