package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/footmatch/go-auth"
)

var testSigningKey = []byte("test-signing-key-with-enough-entropy")

func newTestUser() *auth.User {
	return &auth.User{
		ID:            uuid.New(),
		Email:         "player@example.com",
		Name:          "Test Player",
		Role:          auth.RoleUser,
		EmailVerified: true,
	}
}

func newTestTokenService() *auth.TokenServiceImpl {
	return auth.NewTokenService(
		testSigningKey,
		15*time.Minute,
		7*24*time.Hour,
		"footmatch",
		[]string{"footmatch-app"},
	)
}

func TestIssuePair(t *testing.T) {
	svc := newTestTokenService()
	user := newTestUser()

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)
	require.NotNil(t, pair)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
}

func TestAccessTokenClaims(t *testing.T) {
	svc := newTestTokenService()
	user := newTestUser()

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)

	claims, err := svc.Validate(pair.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), claims.Subject())
	assert.Equal(t, user.ID.String(), claims.UserID())
	assert.Equal(t, user.Email, claims.Email())
	assert.Equal(t, auth.RoleUser, claims.Role())
	assert.True(t, claims.HasRole(auth.RoleUser))
	assert.False(t, claims.HasRole(auth.RoleAdmin))
	assert.True(t, claims.Expires().After(time.Now()))
}

func TestRefreshTokenCarriesSubjectOnly(t *testing.T) {
	svc := newTestTokenService()
	user := newTestUser()

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)

	claims, err := svc.Validate(pair.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), claims.Subject())
	assert.Empty(t, claims.Email())
	assert.Empty(t, claims.Role())
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	svc := newTestTokenService()
	user := newTestUser()

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)

	access, err := svc.Validate(pair.AccessToken)
	require.NoError(t, err)

	refresh, err := svc.Validate(pair.RefreshToken)
	require.NoError(t, err)

	assert.True(t, refresh.Expires().After(access.Expires()))
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := newTestTokenService()

	tests := []struct {
		name  string
		token string
	}{
		{"empty string", ""},
		{"not a jwt", "definitely-not-a-jwt"},
		{"truncated jwt", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.Validate(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
			assert.Contains(t, err.Error(), "invalid or expired token")
		})
	}
}

func TestValidateRejectsWrongKey(t *testing.T) {
	svc := newTestTokenService()
	other := auth.NewTokenService(
		[]byte("a-completely-different-key"),
		15*time.Minute,
		7*24*time.Hour,
		"footmatch",
		[]string{"footmatch-app"},
	)

	pair, err := other.IssuePair(newTestUser())
	require.NoError(t, err)

	_, err = svc.Validate(pair.AccessToken)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := newTestTokenService()
	user := newTestUser()

	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    "footmatch",
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{"footmatch-app"},
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
		},
		UserEmail: user.Email,
		UserRole:  user.Role,
	}

	signed, err := svc.SignClaims(claims)
	require.NoError(t, err)

	_, err = svc.Validate(signed)
	assert.Error(t, err)
	assert.True(t, auth.IsTokenExpiredError(err))
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	svc := newTestTokenService()
	user := newTestUser()

	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    "some-other-service",
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{"footmatch-app"},
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	signed, err := svc.SignClaims(claims)
	require.NoError(t, err)

	_, err = svc.Validate(signed)
	assert.Error(t, err)
}

func TestSignClaimsRejectsNil(t *testing.T) {
	svc := newTestTokenService()

	_, err := svc.SignClaims(nil)
	assert.Error(t, err)
}
