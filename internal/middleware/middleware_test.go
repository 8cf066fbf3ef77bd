package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/scanvault/api/internal/auth"
)

const testSecret = "middleware-secret"

func newProtectedApp(mw ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := append(mw, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userId": GetUserID(c), "email": GetUserEmail(c)})
	})
	app.Get("/protected", handlers...)
	return app
}

func get(t *testing.T, app *fiber.App, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestAuthMiddleware(t *testing.T) {
	app := newProtectedApp(NewAuthMiddleware(nil, testSecret).Authenticate())
	token, _, err := auth.IssueAdminToken("admin", testSecret, time.Hour, time.Now())
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(t, app, nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, get(t, app, map[string]string{"Authorization": "Basic abc"}).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, get(t, app, map[string]string{"Authorization": "Bearer garbage"}).StatusCode)
	assert.Equal(t, http.StatusOK, get(t, app, map[string]string{"Authorization": "Bearer " + token}).StatusCode)
}

func TestAuthMiddleware_NotConfigured(t *testing.T) {
	app := newProtectedApp(NewAuthMiddleware(nil, "").Authenticate())
	assert.Equal(t, http.StatusUnauthorized, get(t, app, map[string]string{"Authorization": "Bearer x"}).StatusCode)
}

func TestGatewayAuthMiddleware(t *testing.T) {
	app := newProtectedApp(GatewayAuthMiddleware())

	assert.Equal(t, http.StatusUnauthorized, get(t, app, nil).StatusCode)
	assert.Equal(t, http.StatusForbidden, get(t, app, map[string]string{
		"X-User-Id": "u1", "X-User-Role": "viewer",
	}).StatusCode)
	assert.Equal(t, http.StatusOK, get(t, app, map[string]string{
		"X-User-Id": "u1", "X-User-Role": "admin", "X-User-Email": "u1@example.com",
	}).StatusCode)
	assert.Equal(t, http.StatusOK, get(t, app, map[string]string{"X-User-Id": "u1"}).StatusCode)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	rl := NewRateLimiter(rdb, zaptest.NewLogger(t))
	app := newProtectedApp(GatewayAuthMiddleware(), rl.PollLimit(1))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(t, app, map[string]string{"X-User-Id": "u1"}).StatusCode)
	}
}

func TestRateLimiter_DisabledWhenZero(t *testing.T) {
	rl := NewRateLimiter(nil, zaptest.NewLogger(t))
	app := newProtectedApp(GatewayAuthMiddleware(), rl.UploadLimit(0))
	assert.Equal(t, http.StatusOK, get(t, app, map[string]string{"X-User-Id": "u1"}).StatusCode)
}

func TestRateLimiter_Limits(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	defer rdb.Close()
	require.NoError(t, rdb.Del(context.Background(), "ratelimit:poll:limit-user").Err())

	rl := NewRateLimiter(rdb, zaptest.NewLogger(t))
	app := newProtectedApp(GatewayAuthMiddleware(), rl.PollLimit(2))
	headers := map[string]string{"X-User-Id": "limit-user"}

	assert.Equal(t, http.StatusOK, get(t, app, headers).StatusCode)
	assert.Equal(t, http.StatusOK, get(t, app, headers).StatusCode)
	resp := get(t, app, headers)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}
