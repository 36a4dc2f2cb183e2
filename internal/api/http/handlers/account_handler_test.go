package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// --- fakes ---

type memUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int
}

func (m *memUserRepo) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return apperrors.NewDuplicateEmail()
	}
	m.nextID++
	user.ID = "user-" + strconv.Itoa(m.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	m.users[user.Email] = &clone
	return nil
}

func (m *memUserRepo) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, existing := range m.users {
		if existing.ID == user.ID {
			clone := *user
			delete(m.users, email)
			m.users[user.Email] = &clone
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.ID == id {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

type memResetRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.PasswordResetToken
	nextID int
}

func (m *memResetRepo) Replace(_ context.Context, token *domain.PasswordResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	token.ID = "reset-" + strconv.Itoa(m.nextID)
	token.CreatedAt = time.Now()
	clone := *token
	m.tokens[token.Email] = &clone
	return nil
}

func (m *memResetRepo) GetByEmailAndToken(_ context.Context, email, tokenStr string) (*domain.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[email]
	if !ok || token.Token != tokenStr {
		return nil, pgx.ErrNoRows
	}
	clone := *token
	return &clone, nil
}

func (m *memResetRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, token := range m.tokens {
		if token.ID == id {
			delete(m.tokens, email)
		}
	}
	return nil
}

type memMailer struct {
	mu             sync.Mutex
	lastResetToken string
}

func (m *memMailer) SendVerificationEmail(context.Context, string, string, string) error {
	return nil
}

func (m *memMailer) SendPasswordResetLink(_ context.Context, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastResetToken = token
	return nil
}

func (m *memMailer) SendPasswordResetConfirmation(context.Context, string) error {
	return nil
}

type memRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (m *memRevocationStore) Revoke(_ context.Context, jti string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = true
	return nil
}

func (m *memRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[jti], nil
}

// --- helpers ---

func newTestApp(t *testing.T) (*fiber.App, *memMailer) {
	t.Helper()

	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 30,
			BcryptCost:              bcrypt.MinCost,
		},
	}

	users := &memUserRepo{users: map[string]*domain.User{}}
	resets := &memResetRepo{tokens: map[string]*domain.PasswordResetToken{}}
	mailer := &memMailer{}
	revoked := &memRevocationStore{revoked: map[string]bool{}}
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:          users,
		PasswordResetRepo: resets,
		Hasher:            auth.NewBcryptHasher(bcrypt.MinCost),
		Mailer:            mailer,
		Dispatcher:        dispatcher,
		Revocations:       revoked,
	}, zap.NewNop())
	service.NewNotificationService(dispatcher, mailer, zap.NewNop()).RegisterHandlers()

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), revoked, users)

	app := fiber.New()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	app.Use(func(c *fiber.Ctx) (err error) {
		defer func() {
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				c.Status(domainErr.HTTPStatus)
				response := fiber.Map{"error": fiber.Map{"code": domainErr.Code, "message": domainErr.Message}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	})
	app.Use(observability.RequestLogger(logger, metrics))

	account := NewAccountHandler(authService)
	usersHandler := NewUsersHandler()

	group := app.Group("/account")
	group.Post("/register", account.Register)
	group.Post("/login", account.Login)
	group.Post("/forgot-password", account.ForgotPassword)
	group.Post("/reset-password", account.ResetPassword)
	group.Post("/logout", account.Logout)
	app.Get("/user", authMiddleware.Handle, usersHandler.Me)

	return app, mailer
}

func postJSON(t *testing.T, app *fiber.App, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func getJSON(t *testing.T, app *fiber.App, path string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoded := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

func registerPayload() map[string]any {
	return map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
		"phone":      "555-0100",
		"password":   "Valid1$pass",
	}
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// --- tests ---

func TestRegisterEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := postJSON(t, app, "/account/register", registerPayload(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
	assert.Contains(t, body["message"], "registered")
}

func TestRegisterEndpointValidation(t *testing.T) {
	app, _ := newTestApp(t)

	payload := registerPayload()
	payload["password"] = "short1!"

	resp, body := postJSON(t, app, "/account/register", payload, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
	details, ok := errBody["details"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "password")
}

func TestRegisterEndpointDuplicateEmail(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := postJSON(t, app, "/account/register", registerPayload(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := postJSON(t, app, "/account/register", registerPayload(), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "EMAIL_TAKEN", errBody["code"])
}

func TestLoginEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	postJSON(t, app, "/account/register", registerPayload(), nil)

	resp, body := postJSON(t, app, "/account/login", map[string]any{
		"email":    "ada@example.com",
		"password": "Valid1$pass",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	app, _ := newTestApp(t)
	postJSON(t, app, "/account/register", registerPayload(), nil)

	resp, body := postJSON(t, app, "/account/login", map[string]any{
		"email":    "ada@example.com",
		"password": "Wrong1$pass",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Nil(t, body["token"])
}

func TestLoginEndpointMissingFields(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := postJSON(t, app, "/account/login", map[string]any{}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
}

func TestCurrentUserEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	_, registerBody := postJSON(t, app, "/account/register", registerPayload(), nil)
	token, _ := registerBody["token"].(string)
	require.NotEmpty(t, token)

	resp, body := getJSON(t, app, "/user", bearer(token))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ada@example.com", body["email"])
	assert.Equal(t, "ACTIVE", body["status"])
	assert.Equal(t, "USER", body["role"])
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, body, "verification_code")
}

func TestCurrentUserEndpointRequiresToken(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := getJSON(t, app, "/user", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestForgotAndResetPasswordEndpoints(t *testing.T) {
	app, mailer := newTestApp(t)
	postJSON(t, app, "/account/register", registerPayload(), nil)

	resp, body := postJSON(t, app, "/account/forgot-password", map[string]any{
		"email": "ada@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["message"], "sent")
	require.NotEmpty(t, mailer.lastResetToken)

	resp, body = postJSON(t, app, "/account/reset-password", map[string]any{
		"email":    "ada@example.com",
		"token":    mailer.lastResetToken,
		"password": "NewValid9&pass",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["message"], "reset")

	resp, _ = postJSON(t, app, "/account/login", map[string]any{
		"email":    "ada@example.com",
		"password": "NewValid9&pass",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestForgotPasswordUnknownEmailMatchesBadTokenShape(t *testing.T) {
	app, _ := newTestApp(t)
	postJSON(t, app, "/account/register", registerPayload(), nil)

	forgotResp, forgotBody := postJSON(t, app, "/account/forgot-password", map[string]any{
		"email": "nobody@example.com",
	}, nil)
	resetResp, resetBody := postJSON(t, app, "/account/reset-password", map[string]any{
		"email":    "ada@example.com",
		"token":    "bogus-token",
		"password": "NewValid9&pass",
	}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, forgotResp.StatusCode)
	assert.Equal(t, resetResp.StatusCode, forgotResp.StatusCode)
	assert.Equal(t, forgotBody["error"], resetBody["error"])
}

func TestLogoutEndpointIdempotent(t *testing.T) {
	app, _ := newTestApp(t)
	_, registerBody := postJSON(t, app, "/account/register", registerPayload(), nil)
	token, _ := registerBody["token"].(string)
	require.NotEmpty(t, token)

	for i := 0; i < 2; i++ {
		resp, body := postJSON(t, app, "/account/logout", map[string]any{}, bearer(token))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])
	}

	// the revoked token no longer authenticates
	resp, _ := getJSON(t, app, "/user", bearer(token))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutEndpointWithoutToken(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := postJSON(t, app, "/account/logout", map[string]any{}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}
