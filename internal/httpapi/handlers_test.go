package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bountyhub.org/internal/auth"
	"bountyhub.org/internal/bounty"
	"bountyhub.org/internal/config"
	"bountyhub.org/internal/store/mem"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func testConfig() config.Config {
	return config.Config{
		HTTP: config.HTTPConfig{
			MaxBodyBytes: 1 << 20,
		},
		Auth: config.AuthConfig{
			TokenTTL:        time.Hour,
			AllowRoleSelect: true,
		},
		RateLimit: config.RateLimitConfig{Disabled: true},
	}
}

func newTestAPI(t *testing.T, cfg config.Config) *apiClient {
	t.Helper()

	t.Setenv("BOUNTYHUB_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()

	svc, err := bounty.NewService(mem.New(), bounty.WithRoleSelect(cfg.Auth.AllowRoleSelect))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	api := New(svc, cfg, ReadyProbe{}, "test")

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) get(path string, headers map[string]string) *http.Response {
	return c.do(http.MethodGet, path, nil, headers)
}

func (c *apiClient) put(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPut, path, body, headers)
}

func (c *apiClient) patch(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPatch, path, body, headers)
}

func (c *apiClient) delete(path string, headers map[string]string) *http.Response {
	return c.do(http.MethodDelete, path, nil, headers)
}

// register creates an account and returns the bearer header plus the user id.
func (c *apiClient) register(name, email, role string) (map[string]string, string) {
	c.t.Helper()
	resp := c.post("/api/auth/register", map[string]any{
		"name":     name,
		"email":    email,
		"password": "correct-horse9",
		"role":     role,
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		c.t.Fatalf("register %s: unexpected status %d", email, resp.StatusCode)
	}
	session := decode[map[string]any](c.t, resp)
	token, _ := session["token"].(string)
	if token == "" {
		c.t.Fatalf("register %s: empty token", email)
	}
	user, _ := session["user"].(map[string]any)
	id, _ := user["id"].(string)
	return map[string]string{"Authorization": "Bearer " + token}, id
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func wantError(t *testing.T, resp *http.Response, status int, message string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d", status, resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["error"] != message {
		t.Fatalf("expected error %q, got %v", message, body["error"])
	}
	if int(body["status"].(float64)) != status {
		t.Fatalf("envelope status mismatch: %v", body["status"])
	}
	if body["details"] != nil {
		t.Fatalf("expected null details, got %v", body["details"])
	}
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t, testConfig())
	resp := api.get("/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["service"] != "bountyhub-api" {
		t.Fatalf("unexpected service name: %v", body["service"])
	}
}

func TestReadyz(t *testing.T) {
	api := newTestAPI(t, testConfig())
	resp := api.get("/readyz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}
