package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PasswordResetTokens is the credential store surface for reset tokens.
// Tokens are never deleted; superseded and redeemed ones are marked used.
type PasswordResetTokens interface {
	Create(ctx context.Context, record *PasswordResetToken) (*PasswordResetToken, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *PasswordResetToken) (*PasswordResetToken, error)

	// GetActive finds the token where used is false and the expiry is
	// strictly in the future, loading the owning user.
	GetActive(ctx context.Context, token string) (*PasswordResetToken, error)
	GetActiveTx(ctx context.Context, tx bun.IDB, token string) (*PasswordResetToken, error)

	// InvalidateForUserTx marks every unused token owned by the user as used.
	InvalidateForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error

	MarkUsedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type passwordResetTokens struct {
	repository.Repository[*PasswordResetToken]
	db *bun.DB
}

var _ PasswordResetTokens = (*passwordResetTokens)(nil)

func NewPasswordResetTokensRepository(db *bun.DB) PasswordResetTokens {
	repo := repository.NewRepository[*PasswordResetToken](db, repository.ModelHandlers[*PasswordResetToken]{
		NewRecord: func() *PasswordResetToken {
			return &PasswordResetToken{}
		},
		GetID: func(record *PasswordResetToken) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *PasswordResetToken, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &passwordResetTokens{
		Repository: repo,
		db:         db,
	}
}

func (r *passwordResetTokens) Create(ctx context.Context, record *PasswordResetToken) (*PasswordResetToken, error) {
	return r.CreateTx(ctx, r.db, record)
}

func (r *passwordResetTokens) CreateTx(ctx context.Context, tx bun.IDB, record *PasswordResetToken) (*PasswordResetToken, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, tx, record)
}

func (r *passwordResetTokens) GetActive(ctx context.Context, token string) (*PasswordResetToken, error) {
	return r.GetActiveTx(ctx, r.db, token)
}

func (r *passwordResetTokens) GetActiveTx(ctx context.Context, tx bun.IDB, token string) (*PasswordResetToken, error) {
	record := &PasswordResetToken{}
	err := tx.NewSelect().Model(record).
		Relation("User").
		Where("?TableAlias.token = ?", token).
		Where("?TableAlias.used = ?", false).
		Where("?TableAlias.expires_at > ?", time.Now()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}
	return record, nil
}

func (r *passwordResetTokens) InvalidateForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewUpdate().Model(&PasswordResetToken{}).
		Set("used = ?", true).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("?TableAlias.user_id = ?", userID.String()).
		Where("?TableAlias.used = ?", false).
		Exec(ctx)
	return err
}

func (r *passwordResetTokens) MarkUsedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewUpdate().Model(&PasswordResetToken{}).
		Set("used = ?", true).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("?TableAlias.id = ?", id.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}
	return nil
}

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Users() Users
	PasswordResetTokens() PasswordResetTokens
}

type mngr struct {
	db     *bun.DB
	users  Users
	resets PasswordResetTokens
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:     db,
		users:  NewUsersRepository(db),
		resets: NewPasswordResetTokensRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.resets == nil {
		return errors.New("repository passwordResetTokens should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) PasswordResetTokens() PasswordResetTokens {
	return m.resets
}
