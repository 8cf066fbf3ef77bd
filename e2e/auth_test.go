package e2e

import (
	"fmt"
	"net/http"
	"testing"
)

func TestLogin_Success(t *testing.T) {
	ta := setupApp(t)

	body := fmt.Sprintf(`{"username":%q,"password":%q}`, testAdminUser, testAdminPassword)
	resp, err := doRequest(ta.app, http.MethodPost, "/auth/login", body, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	token, _ := result["token"].(string)
	if token == "" {
		t.Fatal("expected 'token' in response")
	}
	if result["expiresAt"] == nil {
		t.Error("expected 'expiresAt' in response")
	}

	// The issued token opens the API
	resp, err = doRequest(ta.app, http.MethodGet, "/api/jobs", "", map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
}

func TestLogin_WrongPassword(t *testing.T) {
	ta := setupApp(t)

	body := fmt.Sprintf(`{"username":%q,"password":"wrong"}`, testAdminUser)
	resp, err := doRequest(ta.app, http.MethodPost, "/auth/login", body, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestLogin_MissingFields(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/auth/login", `{"username":"admin"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestAuthVerify_NoToken(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/auth/verify", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestAuthVerify_ValidToken(t *testing.T) {
	ta := setupApp(t)

	token := generateToken(t)
	resp, err := doRequest(ta.app, http.MethodGet, "/auth/verify", "", map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	if resp.Header.Get("X-User-Id") != testAdminUser {
		t.Errorf("expected X-User-Id %q, got %q", testAdminUser, resp.Header.Get("X-User-Id"))
	}
	if resp.Header.Get("X-User-Role") != "admin" {
		t.Errorf("expected X-User-Role admin, got %q", resp.Header.Get("X-User-Role"))
	}
}
