package auth_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/footmatch/go-auth"
)

type usersTestServer struct {
	app    *fiber.App
	repo   *MockRepositoryManager
	tokens *auth.TokenServiceImpl
}

func newUsersTestServer(t *testing.T) *usersTestServer {
	t.Helper()

	repo := NewMockRepositoryManager()
	tokens := newTestTokenService()

	controller := auth.NewUsersController(repo, tokens)

	app := fiber.New()
	controller.RegisterRoutes(app)

	return &usersTestServer{app: app, repo: repo, tokens: tokens}
}

func (s *usersTestServer) accessToken(t *testing.T, user *auth.User) string {
	t.Helper()
	pair, err := s.tokens.IssuePair(user)
	require.NoError(t, err)
	return pair.AccessToken
}

func (s *usersTestServer) patchJSON(t *testing.T, path string, payload any, token string) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPatch, path, bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestUsersListAdminOnly(t *testing.T) {
	srv := newUsersTestServer(t)

	admin := newTestUser()
	admin.Role = auth.RoleAdmin

	player := newTestUser()

	srv.repo.users.On("List", mock.Anything).Return([]*auth.User{admin, player}, nil)

	req := httptest.NewRequest(fiber.MethodGet, "/users/", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+srv.accessToken(t, admin))

	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	users, ok := body["users"].([]any)
	require.True(t, ok)
	assert.Len(t, users, 2)
}

func TestUsersListForbiddenForPlayers(t *testing.T) {
	srv := newUsersTestServer(t)

	player := newTestUser()

	req := httptest.NewRequest(fiber.MethodGet, "/users/", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+srv.accessToken(t, player))

	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestUsersMe(t *testing.T) {
	srv := newUsersTestServer(t)

	player := newTestUser()
	srv.repo.users.On("GetByID", mock.Anything, player.ID).Return(player, nil)

	req := httptest.NewRequest(fiber.MethodGet, "/users/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+srv.accessToken(t, player))

	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	userBody, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, player.Email, userBody["email"])
}

func TestUsersShowSelfOrAdmin(t *testing.T) {
	srv := newUsersTestServer(t)

	player := newTestUser()
	other := &auth.User{ID: uuid.New(), Email: "other@example.com", Role: auth.RoleUser}

	srv.repo.users.On("GetByID", mock.Anything, other.ID).Return(other, nil)

	// Player reading someone else is forbidden.
	req := httptest.NewRequest(fiber.MethodGet, "/users/"+other.ID.String(), nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+srv.accessToken(t, player))

	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// An admin reading anyone is fine.
	admin := newTestUser()
	admin.Role = auth.RoleAdmin

	req = httptest.NewRequest(fiber.MethodGet, "/users/"+other.ID.String(), nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+srv.accessToken(t, admin))

	resp, err = srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUsersPatchEmailChange(t *testing.T) {
	srv := newUsersTestServer(t)

	player := newTestUser()
	srv.repo.users.On("GetByID", mock.Anything, player.ID).Return(player, nil)
	srv.repo.users.On("GetByEmail", mock.Anything, "fresh@example.com").
		Return(nil, repository.NewRecordNotFound())
	srv.repo.users.On("Update", mock.Anything, mock.AnythingOfType("*auth.User")).
		Return(func(record *auth.User) *auth.User { return record }, nil)

	resp := srv.patchJSON(t, "/users/"+player.ID.String(),
		fiber.Map{"email": "fresh@example.com"}, srv.accessToken(t, player))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	userBody, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fresh@example.com", userBody["email"])
}

func TestUsersPatchEmailTaken(t *testing.T) {
	srv := newUsersTestServer(t)

	player := newTestUser()
	holder := &auth.User{ID: uuid.New(), Email: "taken@example.com", Role: auth.RoleUser}

	srv.repo.users.On("GetByID", mock.Anything, player.ID).Return(player, nil)
	srv.repo.users.On("GetByEmail", mock.Anything, "taken@example.com").Return(holder, nil)

	resp := srv.patchJSON(t, "/users/"+player.ID.String(),
		fiber.Map{"email": "taken@example.com"}, srv.accessToken(t, player))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	srv.repo.users.AssertNotCalled(t, "Update")
}

func TestUsersPatchEmailLookupFailure(t *testing.T) {
	srv := newUsersTestServer(t)

	player := newTestUser()
	srv.repo.users.On("GetByID", mock.Anything, player.ID).Return(player, nil)
	srv.repo.users.On("GetByEmail", mock.Anything, "fresh@example.com").
		Return(nil, errors.New("connection reset"))

	resp := srv.patchJSON(t, "/users/"+player.ID.String(),
		fiber.Map{"email": "fresh@example.com"}, srv.accessToken(t, player))
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	srv.repo.users.AssertNotCalled(t, "Update")
}

func TestUsersDeleteAdminOnly(t *testing.T) {
	srv := newUsersTestServer(t)

	admin := newTestUser()
	admin.Role = auth.RoleAdmin

	target := &auth.User{ID: uuid.New(), Email: "target@example.com", Role: auth.RoleUser}
	srv.repo.users.On("GetByID", mock.Anything, target.ID).Return(target, nil)
	srv.repo.users.On("Delete", mock.Anything, target.ID).Return(nil)

	req := httptest.NewRequest(fiber.MethodDelete, "/users/"+target.ID.String(), nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+srv.accessToken(t, admin))

	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUsersDeleteRefusesAdminTarget(t *testing.T) {
	srv := newUsersTestServer(t)

	admin := newTestUser()
	admin.Role = auth.RoleAdmin

	target := &auth.User{ID: uuid.New(), Email: "root@example.com", Role: auth.RoleAdmin}
	srv.repo.users.On("GetByID", mock.Anything, target.ID).Return(target, nil)

	req := httptest.NewRequest(fiber.MethodDelete, "/users/"+target.ID.String(), nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+srv.accessToken(t, admin))

	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	srv.repo.users.AssertNotCalled(t, "Delete")
}

func TestUsersDeleteUnknownID(t *testing.T) {
	srv := newUsersTestServer(t)

	admin := newTestUser()
	admin.Role = auth.RoleAdmin

	missing := uuid.New()
	srv.repo.users.On("GetByID", mock.Anything, missing).
		Return(nil, repository.NewRecordNotFound())

	req := httptest.NewRequest(fiber.MethodDelete, "/users/"+missing.String(), nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+srv.accessToken(t, admin))

	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
