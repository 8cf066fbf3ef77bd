package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/scanvault/api/internal/auth"
	"github.com/scanvault/api/internal/config"
	"github.com/scanvault/api/internal/handler"
	"github.com/scanvault/api/internal/middleware"
	"github.com/scanvault/api/internal/mocks"
	"github.com/scanvault/api/internal/model"
	"github.com/scanvault/api/internal/service"
	"github.com/scanvault/api/internal/store"
)

const (
	testJWTSecret     = "test-secret-for-e2e"
	testWebhookSecret = "test-webhook-secret"
	testAdminUser     = "admin"
	testAdminPassword = "correct horse battery staple"
)

// testApp holds all components needed for testing
type testApp struct {
	app    *fiber.App
	store  store.JobStore
	vendor *mocks.MockVendor
}

// setupApp builds the same router as main.go on top of a temporary SQLite
// store and a mocked vendor. No Redis is needed: rate limiters and the
// WebSocket hub are left out.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	logger := zap.NewNop()

	jobStore, err := store.OpenSQLiteJobStore(filepath.Join(t.TempDir(), "jobs.db"), logger)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { jobStore.Close() })

	ctrl := gomock.NewController(t)
	vendor := mocks.NewMockVendor(ctrl)

	validate := validator.New()

	reconciler := service.NewReconcileService(jobStore, vendor, logger)
	uploadService := service.NewUploadService(vendor, jobStore, logger)
	jobService := service.NewJobService(jobStore, vendor, nil, logger)
	accountService := service.NewAccountService(vendor)

	router := &handler.Router{
		Health: handler.NewHealthHandler(jobStore, map[string]bool{"kiri": true}),
		Auth: handler.NewAuthHandler(nil,
			config.AdminConfig{Username: testAdminUser, Password: testAdminPassword},
			config.JWTConfig{Secret: testJWTSecret, Expiration: 1},
			validate, logger),
		Jobs:    handler.NewJobHandler(jobService, reconciler),
		Upload:  handler.NewUploadHandler(uploadService, validate),
		Account: handler.NewAccountHandler(accountService),
		Webhook: handler.NewWebhookHandler(reconciler, testWebhookSecret, true, logger),
		APIAuth: middleware.NewAuthMiddleware(nil, testJWTSecret).Authenticate(),
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024,
	})
	router.Register(app)

	return &testApp{app: app, store: jobStore, vendor: vendor}
}

// seedJob inserts a record directly into the store.
func seedJob(t *testing.T, ta *testApp, id string, status model.JobStatus) *model.JobRecord {
	t.Helper()
	job, err := ta.store.Upsert(context.Background(), id,
		model.JobFields{Status: model.StatusPtr(status)},
		model.JobDefaults{SourceName: id + ".mp4", SubmittedAt: time.Now().Add(-time.Minute)},
	)
	if err != nil {
		t.Fatalf("failed to seed job: %v", err)
	}
	return job
}

// generateToken issues an admin session token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	token, _, err := auth.IssueAdminToken(testAdminUser, testJWTSecret, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// errorCode extracts error.code from an error response body.
func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	body := parseJSON(t, resp)
	detail, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got %v", body)
	}
	code, _ := detail["code"].(string)
	return code
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
