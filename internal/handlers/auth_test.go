package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func TestRegister_Success(t *testing.T) {
	e := newEnv()

	w := e.do(http.MethodPost, "/api/v1/auth/register", "", []byte(`{"username":"alice","password":"pw123456","password2":"pw123456"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == 0 || resp.Username != "alice" {
		t.Errorf("got id=%d username=%q", resp.ID, resp.Username)
	}

	// Registration does not open a session; creating a task still fails.
	w = e.do(http.MethodPost, "/api/v1/tasks", "", []byte(`{"title":"X"}`))
	if w.Code != http.StatusForbidden {
		t.Errorf("create after register-only status = %d, want 403", w.Code)
	}
}

func TestRegister_PasswordMismatch(t *testing.T) {
	e := newEnv()

	w := e.do(http.MethodPost, "/api/v1/auth/register", "", []byte(`{"username":"alice","password":"pw123456","password2":"different"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Errors["password"] != "Passwords do not match." {
		t.Errorf("password error = %q", body.Errors["password"])
	}

	// No user was created.
	if _, err := e.users.GetByUsername(context.Background(), "alice"); err == nil {
		t.Error("user must not exist after mismatch")
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	e := newEnv()

	w := e.do(http.MethodPost, "/api/v1/auth/register", "", []byte(`{"username":"alice","password":"pw1","password2":"pw1"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body.Errors["password"]; !ok {
		t.Errorf("missing field error for password: %v", body.Errors)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	e := newEnv()
	e.seedUser("alice", "pw123456")

	w := e.do(http.MethodPost, "/api/v1/auth/register", "", []byte(`{"username":"alice","password":"pw123456","password2":"pw123456"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body.Errors["username"]; !ok {
		t.Errorf("missing field error for username: %v", body.Errors)
	}
}

func TestLogin_Success(t *testing.T) {
	e := newEnv()
	e.seedUser("alice", "pw123456")

	w := e.do(http.MethodPost, "/api/v1/auth/login", "", []byte(`{"username":"alice","password":"pw123456"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Message  string `json:"message"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Login successful" || resp.Username != "alice" {
		t.Errorf("got %+v", resp)
	}

	// The cookie carries a usable session.
	session := sessionCookie(t, w)
	if userID, ok := e.sessions.GetUserID(context.Background(), session); !ok || userID == 0 {
		t.Error("session cookie does not resolve to a user")
	}
}

func TestLogin_UniformErrorMessage(t *testing.T) {
	e := newEnv()
	e.seedUser("alice", "pw123456")

	wrongPassword := e.do(http.MethodPost, "/api/v1/auth/login", "", []byte(`{"username":"alice","password":"nope99"}`))
	unknownUser := e.do(http.MethodPost, "/api/v1/auth/login", "", []byte(`{"username":"mallory","password":"pw123456"}`))

	for name, w := range map[string]int{"wrong password": wrongPassword.Code, "unknown user": unknownUser.Code} {
		if w != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", name, w)
		}
	}
	// Identical bodies: no username enumeration.
	if wrongPassword.Body.String() != unknownUser.Body.String() {
		t.Errorf("error bodies differ: %q vs %q", wrongPassword.Body.String(), unknownUser.Body.String())
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(wrongPassword.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "Invalid username or password." {
		t.Errorf("error = %q", body.Error)
	}
}

func TestLogout(t *testing.T) {
	e := newEnv()
	alice := e.seedUser("alice", "pw123456")
	session := e.sessionFor(alice.ID)

	w := e.do(http.MethodPost, "/api/v1/auth/logout", session, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Logged out successfully." {
		t.Errorf("message = %q", resp.Message)
	}
	if _, ok := e.sessions.GetUserID(context.Background(), session); ok {
		t.Error("session still alive after logout")
	}
}

func TestLogout_AnonymousUnauthorized(t *testing.T) {
	e := newEnv()

	w := e.do(http.MethodPost, "/api/v1/auth/logout", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
