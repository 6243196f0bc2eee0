package auth_test

import (
	"context"
	"database/sql"

	auth "github.com/footmatch/go-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockRepositoryManager implements auth.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
	users  *MockUsers
	resets *MockPasswordResetTokens
}

func NewMockRepositoryManager() *MockRepositoryManager {
	return &MockRepositoryManager{
		users:  &MockUsers{},
		resets: &MockPasswordResetTokens{},
	}
}

func (m *MockRepositoryManager) Validate() error { return nil }

func (m *MockRepositoryManager) MustValidate() {}

// RunInTx executes the callback with a zero transaction; repository mocks
// ignore the tx handle.
func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Users() auth.Users {
	return m.users
}

func (m *MockRepositoryManager) PasswordResetTokens() auth.PasswordResetTokens {
	return m.resets
}

// MockUsers implements auth.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByVerificationToken(ctx context.Context, token string) (*auth.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) List(ctx context.Context) ([]*auth.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*auth.User)
	return users, args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, record *auth.User) (*auth.User, error) {
	args := m.Called(ctx, record)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

// CreateTx supports a passthrough function return so tests can echo the
// record the handler built.
func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *auth.User) (*auth.User, error) {
	args := m.Called(ctx, tx, record)
	if fn, ok := args.Get(0).(func(*auth.User) *auth.User); ok {
		return fn(record), args.Error(1)
	}
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, record *auth.User) (*auth.User, error) {
	args := m.Called(ctx, record)
	if fn, ok := args.Get(0).(func(*auth.User) *auth.User); ok {
		return fn(record), args.Error(1)
	}
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *auth.User) (*auth.User, error) {
	args := m.Called(ctx, tx, record)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) SetVerificationToken(ctx context.Context, id uuid.UUID, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *MockUsers) MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockUsers) UpdateRole(ctx context.Context, id uuid.UUID, role auth.UserRole) (*auth.User, error) {
	args := m.Called(ctx, id, role)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

// MockPasswordResetTokens implements auth.PasswordResetTokens
type MockPasswordResetTokens struct {
	mock.Mock
}

func (m *MockPasswordResetTokens) Create(ctx context.Context, record *auth.PasswordResetToken) (*auth.PasswordResetToken, error) {
	args := m.Called(ctx, record)
	token, _ := args.Get(0).(*auth.PasswordResetToken)
	return token, args.Error(1)
}

func (m *MockPasswordResetTokens) CreateTx(ctx context.Context, tx bun.IDB, record *auth.PasswordResetToken) (*auth.PasswordResetToken, error) {
	args := m.Called(ctx, tx, record)
	if fn, ok := args.Get(0).(func(*auth.PasswordResetToken) *auth.PasswordResetToken); ok {
		return fn(record), args.Error(1)
	}
	token, _ := args.Get(0).(*auth.PasswordResetToken)
	return token, args.Error(1)
}

func (m *MockPasswordResetTokens) GetActive(ctx context.Context, token string) (*auth.PasswordResetToken, error) {
	args := m.Called(ctx, token)
	record, _ := args.Get(0).(*auth.PasswordResetToken)
	return record, args.Error(1)
}

func (m *MockPasswordResetTokens) GetActiveTx(ctx context.Context, tx bun.IDB, token string) (*auth.PasswordResetToken, error) {
	args := m.Called(ctx, tx, token)
	record, _ := args.Get(0).(*auth.PasswordResetToken)
	return record, args.Error(1)
}

func (m *MockPasswordResetTokens) InvalidateForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	args := m.Called(ctx, tx, userID)
	return args.Error(0)
}

func (m *MockPasswordResetTokens) MarkUsedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

// MockMailer implements auth.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendVerificationEmail(ctx context.Context, email, name, token string) error {
	args := m.Called(ctx, email, name, token)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordResetEmail(ctx context.Context, email, name, token string) error {
	args := m.Called(ctx, email, name, token)
	return args.Error(0)
}

// MockTokenService implements auth.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) IssuePair(user *auth.User) (*auth.TokenPair, error) {
	args := m.Called(user)
	pair, _ := args.Get(0).(*auth.TokenPair)
	return pair, args.Error(1)
}

func (m *MockTokenService) SignClaims(claims *auth.JWTClaims) (string, error) {
	args := m.Called(claims)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) Validate(tokenString string) (auth.AuthClaims, error) {
	args := m.Called(tokenString)
	claims, _ := args.Get(0).(auth.AuthClaims)
	return claims, args.Error(1)
}
