package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/repository/memory"
	"github.com/spec-kit/support-desk/internal/service"
)

type mapRevoker struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newMapRevoker() *mapRevoker {
	return &mapRevoker{revoked: make(map[string]bool)}
}

func (r *mapRevoker) Revoke(_ context.Context, jti string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[jti] = true
	return nil
}

func (r *mapRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked[jti], nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	authCfg := config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            bcrypt.MinCost,
		AdminEmail:            "admin@x.com",
		AdminPassword:         "admin-pass",
	}

	users := memory.NewUserStore()
	tickets := memory.NewTicketStore()
	revoker := newMapRevoker()
	logger := zap.NewNop()

	authService := service.NewAuthService(authCfg, users, revoker)
	dispatcher := events.NewInMemoryDispatcher()
	ticketService := service.NewTicketService(tickets, users, dispatcher)
	service.NewNotificationService(dispatcher, logger, config.NotificationConfig{}).RegisterHandlers()

	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("support-desk", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AdminTickets:   handlers.NewAdminTicketsHandler(ticketService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), revoker),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) == 0 {
		return resp, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// list endpoints return bare arrays
		return resp, map[string]any{"items": mustDecodeArray(t, raw)}
	}
	return resp, decoded
}

func mustDecodeArray(t *testing.T, raw []byte) []any {
	t.Helper()
	var items []any
	require.NoError(t, json.Unmarshal(raw, &items))
	return items
}

func register(t *testing.T, app *fiber.App, email, fullName, password string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/api/register", "", map[string]string{
		"email": email, "fullName": fullName, "password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func adminLogin(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/api/admin-login", "", map[string]string{
		"email": "admin@x.com", "password": "admin-pass",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["isAdmin"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterAndLoginContract(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/register", "", map[string]string{
		"email": "a@x.com", "fullName": "Alice A", "password": "pw1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, "Alice A", user["fullName"])

	// duplicate registration
	resp, body = doJSON(t, app, http.MethodPost, "/api/register", "", map[string]string{
		"email": "a@x.com", "fullName": "Alice A", "password": "pw1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User already exists", body["message"])

	// login succeeds with the registration credentials
	resp, _ = doJSON(t, app, http.MethodPost, "/api/login", "", map[string]string{
		"email": "a@x.com", "password": "pw1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// wrong password
	resp, body = doJSON(t, app, http.MethodPost, "/api/login", "", map[string]string{
		"email": "a@x.com", "password": "pw2",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", body["message"])
}

func TestAdminLoginContract(t *testing.T) {
	app := newTestApp(t)

	adminLogin(t, app)

	resp, body := doJSON(t, app, http.MethodPost, "/api/admin-login", "", map[string]string{
		"email": "admin@x.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid admin credentials", body["message"])
}

func TestTicketEndpoints(t *testing.T) {
	app := newTestApp(t)
	userToken := register(t, app, "a@x.com", "Alice A", "pw1")
	adminToken := adminLogin(t, app)

	// missing token is unauthenticated with a JSON body
	resp, body := doJSON(t, app, http.MethodPost, "/api/tickets", "", map[string]string{"query": "help"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, body["message"])

	// admin token on a user route is forbidden
	resp, _ = doJSON(t, app, http.MethodPost, "/api/tickets", adminToken, map[string]string{"query": "help"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// empty query rejected
	resp, _ = doJSON(t, app, http.MethodPost, "/api/tickets", userToken, map[string]string{"query": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// successful submission
	resp, body = doJSON(t, app, http.MethodPost, "/api/tickets", userToken, map[string]string{"query": "help"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	ticket, ok := body["ticket"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, ticket["_id"])
	assert.Equal(t, "a@x.com", ticket["userEmail"])
	assert.Equal(t, "Alice A", ticket["userName"])
	assert.Equal(t, "help", ticket["query"])
	assert.Equal(t, "pending", ticket["status"])
	assert.NotEmpty(t, ticket["createdAt"])

	// own list returns a bare array
	resp, body = doJSON(t, app, http.MethodGet, "/api/tickets", userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items, ok := body["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 1)
}

func TestAdminTicketEndpoints(t *testing.T) {
	app := newTestApp(t)
	aliceToken := register(t, app, "a@x.com", "Alice A", "pw1")
	bobToken := register(t, app, "b@x.com", "Bob B", "pw2")
	adminToken := adminLogin(t, app)

	_, body := doJSON(t, app, http.MethodPost, "/api/tickets", aliceToken, map[string]string{"query": "T1"})
	t1 := body["ticket"].(map[string]any)["_id"].(string)
	_, body = doJSON(t, app, http.MethodPost, "/api/tickets", bobToken, map[string]string{"query": "T2"})
	t2 := body["ticket"].(map[string]any)["_id"].(string)

	// non-admin cannot list all
	resp, _ := doJSON(t, app, http.MethodGet, "/api/admin/tickets", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// admin sees both, newest (T2) first
	resp, body = doJSON(t, app, http.MethodGet, "/api/admin/tickets", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, t2, items[0].(map[string]any)["_id"])
	assert.Equal(t, t1, items[1].(map[string]any)["_id"])

	// status transition, idempotent repeat
	resp, body = doJSON(t, app, http.MethodPut, "/api/admin/tickets/"+t1+"/status", adminToken, map[string]string{"status": "checked"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "checked", body["ticket"].(map[string]any)["status"])

	resp, body = doJSON(t, app, http.MethodPut, "/api/admin/tickets/"+t1+"/status", adminToken, map[string]string{"status": "checked"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "checked", body["ticket"].(map[string]any)["status"])

	// invalid status value
	resp, _ = doJSON(t, app, http.MethodPut, "/api/admin/tickets/"+t1+"/status", adminToken, map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// unknown ticket id
	resp, _ = doJSON(t, app, http.MethodPut, "/api/admin/tickets/does-not-exist/status", adminToken, map[string]string{"status": "checked"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// non-admin cannot set status
	resp, _ = doJSON(t, app, http.MethodPut, "/api/admin/tickets/"+t2+"/status", bobToken, map[string]string{"status": "checked"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// alice sees T1 checked only; bob sees T2 pending only
	_, body = doJSON(t, app, http.MethodGet, "/api/tickets", aliceToken, nil)
	items = body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, t1, items[0].(map[string]any)["_id"])
	assert.Equal(t, "checked", items[0].(map[string]any)["status"])

	_, body = doJSON(t, app, http.MethodGet, "/api/tickets", bobToken, nil)
	items = body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, t2, items[0].(map[string]any)["_id"])
	assert.Equal(t, "pending", items[0].(map[string]any)["status"])
}

func TestLogoutRevokesToken(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "a@x.com", "Alice A", "pw1")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/api/tickets", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "token revoked", body["message"])
}

func TestHealthLive(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alive", body["status"])
}
