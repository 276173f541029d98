package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/payledger/apiserver/types"
)

func TestRegisterReturnsUserWithoutPassword(t *testing.T) {
	router := newTestRouter(t)

	body := `{"name":"Alice","email":"a@x.com","password":"pw","role":"ADMIN"}`
	recorder, env := doRequest(t, router, http.MethodPost, "/auth/register", "", body)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusCreated)
	}
	if !env.Success {
		t.Error("expected success envelope")
	}

	var user types.User
	if err := json.Unmarshal(env.Data, &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if user.Email != "a@x.com" || user.Role != types.RoleAdmin {
		t.Errorf("unexpected user: %+v", user)
	}
	if strings.Contains(strings.ToLower(string(env.Data)), "password") {
		t.Errorf("response leaks password material: %s", env.Data)
	}
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing name", body: `{"email":"a@x.com","password":"pw","role":"ADMIN"}`},
		{name: "missing email", body: `{"name":"Alice","password":"pw","role":"ADMIN"}`},
		{name: "missing password", body: `{"name":"Alice","email":"a@x.com","role":"ADMIN"}`},
		{name: "invalid role", body: `{"name":"Alice","email":"a@x.com","password":"pw","role":"ROOT"}`},
		{name: "not json", body: `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder, env := doRequest(t, router, http.MethodPost, "/auth/register", "", tt.body)
			if recorder.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", recorder.Code, http.StatusBadRequest)
			}
			if env.Success {
				t.Error("expected failure envelope")
			}
		})
	}
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	router := newTestRouter(t)

	body := `{"name":"Alice","email":"a@x.com","password":"pw","role":"ADMIN"}`
	if recorder, _ := doRequest(t, router, http.MethodPost, "/auth/register", "", body); recorder.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", recorder.Code)
	}

	again := `{"name":"Imposter","email":"a@x.com","password":"pw2","role":"VIEWER"}`
	recorder, _ := doRequest(t, router, http.MethodPost, "/auth/register", "", again)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want %d", recorder.Code, http.StatusConflict)
	}
}

func TestLoginReturnsTokenWithRole(t *testing.T) {
	router := newTestRouter(t)

	body := `{"name":"Fin","email":"fm@x.com","password":"pw","role":"FINANCE_MANAGER"}`
	if recorder, _ := doRequest(t, router, http.MethodPost, "/auth/register", "", body); recorder.Code != http.StatusCreated {
		t.Fatalf("register status = %d", recorder.Code)
	}

	recorder, env := doRequest(t, router, http.MethodPost, "/auth/login", "", `{"email":"fm@x.com","password":"pw"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("login status = %d", recorder.Code)
	}

	var resp JwtResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode login data: %v", err)
	}
	if resp.Type != "Bearer" {
		t.Errorf("type = %q, want Bearer", resp.Type)
	}
	if resp.Email != "fm@x.com" || resp.Role != types.RoleFinanceManager {
		t.Errorf("unexpected login payload: %+v", resp)
	}
}

func TestLoginFailures(t *testing.T) {
	router := newTestRouter(t)

	body := `{"name":"Alice","email":"a@x.com","password":"pw","role":"ADMIN"}`
	if recorder, _ := doRequest(t, router, http.MethodPost, "/auth/register", "", body); recorder.Code != http.StatusCreated {
		t.Fatalf("register status = %d", recorder.Code)
	}

	// Wrong password and unknown email must be indistinguishable.
	wrongPassword, wrongEnv := doRequest(t, router, http.MethodPost, "/auth/login", "", `{"email":"a@x.com","password":"nope"}`)
	unknownEmail, unknownEnv := doRequest(t, router, http.MethodPost, "/auth/login", "", `{"email":"ghost@x.com","password":"pw"}`)

	if wrongPassword.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d/%d, want both %d", wrongPassword.Code, unknownEmail.Code, http.StatusUnauthorized)
	}
	if wrongEnv.Message != unknownEnv.Message {
		t.Errorf("failure messages differ: %q vs %q", wrongEnv.Message, unknownEnv.Message)
	}
}

func TestUserEndpointsAdminOnly(t *testing.T) {
	router := newTestRouter(t)
	adminToken := registerAndLogin(t, router, "Alice", "admin@x.com", "pw", types.RoleAdmin)
	viewerToken := registerAndLogin(t, router, "Vera", "viewer@x.com", "pw", types.RoleViewer)

	if recorder, _ := doRequest(t, router, http.MethodGet, "/users", viewerToken, ""); recorder.Code != http.StatusForbidden {
		t.Errorf("viewer list users status = %d, want %d", recorder.Code, http.StatusForbidden)
	}
	if recorder, _ := doRequest(t, router, http.MethodGet, "/users", "", ""); recorder.Code != http.StatusUnauthorized {
		t.Errorf("anonymous list users status = %d, want %d", recorder.Code, http.StatusUnauthorized)
	}

	recorder, env := doRequest(t, router, http.MethodGet, "/users", adminToken, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("admin list users status = %d", recorder.Code)
	}
	var users []types.User
	if err := json.Unmarshal(env.Data, &users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("len(users) = %d, want 2", len(users))
	}

	createBody := `{"name":"Fin","email":"fm@x.com","password":"pw","role":"FINANCE_MANAGER"}`
	if recorder, _ := doRequest(t, router, http.MethodPost, "/users", adminToken, createBody); recorder.Code != http.StatusCreated {
		t.Errorf("admin create user status = %d, want %d", recorder.Code, http.StatusCreated)
	}
	if recorder, _ := doRequest(t, router, http.MethodPost, "/users", viewerToken, createBody); recorder.Code != http.StatusForbidden {
		t.Errorf("viewer create user status = %d, want %d", recorder.Code, http.StatusForbidden)
	}
}
