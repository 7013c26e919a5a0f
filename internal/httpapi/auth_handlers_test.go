package httpapi

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"bountyhub.org/internal/auth"
)

func TestRegisterReturnsTokenAndUser(t *testing.T) {
	api := newTestAPI(t, testConfig())

	resp := api.post("/api/auth/register", map[string]any{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "correct-horse9",
		"role":     "COMPANY",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	session := decode[map[string]any](t, resp)
	if session["token"] == "" {
		t.Fatal("expected a token")
	}
	user := session["user"].(map[string]any)
	if user["email"] != "alice@example.com" || user["role"] != "COMPANY" {
		t.Fatalf("unexpected user: %v", user)
	}
	if !strings.HasPrefix(user["id"].(string), "usr_") {
		t.Fatalf("unexpected user id: %v", user["id"])
	}
	for key := range user {
		if strings.Contains(strings.ToLower(key), "password") {
			t.Fatalf("password material leaked in response: %s", key)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	api := newTestAPI(t, testConfig())
	api.register("Alice", "alice@example.com", "COMPANY")

	resp := api.post("/api/auth/register", map[string]any{
		"name":     "Someone Else",
		"email":    "alice@example.com",
		"password": "another-pass99",
	}, nil)
	wantError(t, resp, http.StatusConflict, "Email already registered")
}

func TestRegisterAcceptsShortPassword(t *testing.T) {
	api := newTestAPI(t, testConfig())

	// Any non-empty password is accepted; there is no length policy.
	resp := api.post("/api/auth/register", map[string]any{
		"name":     "Bob",
		"email":    "bob@example.com",
		"password": "pw",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	login := api.post("/api/auth/login", map[string]any{
		"email":    "bob@example.com",
		"password": "pw",
	}, nil)
	if login.StatusCode != http.StatusOK {
		t.Fatalf("login with short password: %d", login.StatusCode)
	}
	login.Body.Close()
}

func TestRegisterMissingFields(t *testing.T) {
	api := newTestAPI(t, testConfig())
	resp := api.post("/api/auth/register", map[string]any{"email": "x@example.com"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginFlow(t *testing.T) {
	api := newTestAPI(t, testConfig())
	api.register("Alice", "alice@example.com", "RESEARCHER")

	resp := api.post("/api/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "correct-horse9",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	session := decode[map[string]any](t, resp)
	token := session["token"].(string)

	me := api.get("/api/auth/me", map[string]string{"Authorization": "Bearer " + token})
	if me.StatusCode != http.StatusOK {
		t.Fatalf("me: unexpected status %d", me.StatusCode)
	}
	body := decode[map[string]any](t, me)
	user := body["user"].(map[string]any)
	if user["email"] != "alice@example.com" {
		t.Fatalf("unexpected user: %v", user)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	api := newTestAPI(t, testConfig())
	api.register("Alice", "alice@example.com", "RESEARCHER")

	resp := api.post("/api/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong-password1",
	}, nil)
	wantError(t, resp, http.StatusUnauthorized, "Invalid email or password")
}

func TestMeWithoutToken(t *testing.T) {
	api := newTestAPI(t, testConfig())
	resp := api.get("/api/auth/me", nil)
	wantError(t, resp, http.StatusUnauthorized, "No token provided, authorization denied")
}

func TestMeWithGarbageToken(t *testing.T) {
	api := newTestAPI(t, testConfig())
	resp := api.get("/api/auth/me", map[string]string{"Authorization": "Bearer not-a-jwt"})
	wantError(t, resp, http.StatusUnauthorized, "Invalid token")
}

func TestMeWithNonUserSubject(t *testing.T) {
	api := newTestAPI(t, testConfig())

	// A well-signed token naming a different entity kind is not a session.
	token, err := auth.GenerateToken("prg_01ABC", "x@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	resp := api.get("/api/auth/me", map[string]string{"Authorization": "Bearer " + token})
	wantError(t, resp, http.StatusUnauthorized, "Invalid token")
}

func TestMeWithTokenForVanishedUser(t *testing.T) {
	api := newTestAPI(t, testConfig())

	// A valid signature is not enough: the user must still exist.
	token, err := auth.GenerateToken("usr_ghost", "ghost@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	resp := api.get("/api/auth/me", map[string]string{"Authorization": "Bearer " + token})
	wantError(t, resp, http.StatusUnauthorized, "User not found")
}
