package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func okHandler(called *bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}
}

func TestAuthDisabledWhenNoAdmin(t *testing.T) {
	auth = &authConfig{enabled: false}
	defer func() { auth = nil }()

	if IsAuthEnabled() {
		t.Error("auth should be disabled without admin credentials")
	}

	called := false
	w := httptest.NewRecorder()
	RequireAdmin(okHandler(&called))(w, httptest.NewRequest("GET", "/test", nil))

	if !called || w.Code != http.StatusOK {
		t.Errorf("expected open access, got called=%v code=%d", called, w.Code)
	}
}

func TestRoleMatrix(t *testing.T) {
	auth = &authConfig{
		admin:   credentials{"admin", "secret"},
		learner: credentials{"kid", "play"},
		enabled: true,
	}
	defer func() { auth = nil }()

	tests := []struct {
		name       string
		user, pass string
		adminOnly  bool
		want       int
	}{
		{"no credentials", "", "", false, http.StatusUnauthorized},
		{"wrong password", "admin", "nope", false, http.StatusUnauthorized},
		{"learner on shared", "kid", "play", false, http.StatusOK},
		{"admin on shared", "admin", "secret", false, http.StatusOK},
		{"learner on admin", "kid", "play", true, http.StatusForbidden},
		{"admin on admin", "admin", "secret", true, http.StatusOK},
		{"mixed credentials", "admin", "play", false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		called := false
		h := RequireAnyRole(okHandler(&called))
		if tt.adminOnly {
			h = RequireAdmin(okHandler(&called))
		}

		req := httptest.NewRequest("GET", "/test", nil)
		if tt.user != "" {
			req.SetBasicAuth(tt.user, tt.pass)
		}
		w := httptest.NewRecorder()
		h(w, req)

		if w.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, w.Code)
		}
		if called != (tt.want == http.StatusOK) {
			t.Errorf("%s: handler called=%v", tt.name, called)
		}
		if tt.want == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
			t.Errorf("%s: expected WWW-Authenticate header", tt.name)
		}
	}
}

func TestLearnerUnsetOnlyAdminWorks(t *testing.T) {
	auth = &authConfig{admin: credentials{"admin", "secret"}, enabled: true}
	defer func() { auth = nil }()

	req := httptest.NewRequest("GET", "/test", nil)
	req.SetBasicAuth("", "")
	if role := authenticate(req); role != "" {
		t.Errorf("empty learner credentials must not match, got %q", role)
	}
}

func TestInitAuthFromEnvAndFiles(t *testing.T) {
	dir := t.TempDir()
	passFile := filepath.Join(dir, "admin_pass")
	if err := os.WriteFile(passFile, []byte("from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SCRATCHY_ADMIN_USER", "admin")
	t.Setenv("SCRATCHY_ADMIN_PASS", "")
	t.Setenv("SCRATCHY_ADMIN_PASS_FILE", passFile)
	t.Setenv("SCRATCHY_LEARNER_USER", "kid")
	t.Setenv("SCRATCHY_LEARNER_PASS", "play")
	defer func() { auth = nil }()

	if err := InitAuth(); err != nil {
		t.Fatalf("InitAuth: %v", err)
	}
	if !IsAuthEnabled() {
		t.Fatal("expected auth enabled")
	}

	req := httptest.NewRequest("GET", "/test", nil)
	req.SetBasicAuth("admin", "from-file")
	if role := authenticate(req); role != RoleAdmin {
		t.Errorf("expected admin from file secret, got %q", role)
	}
}

func TestInitAuthMissingFile(t *testing.T) {
	t.Setenv("SCRATCHY_ADMIN_USER", "admin")
	t.Setenv("SCRATCHY_ADMIN_PASS", "")
	t.Setenv("SCRATCHY_ADMIN_PASS_FILE", filepath.Join(t.TempDir(), "missing"))
	defer func() { auth = nil }()

	if err := InitAuth(); err == nil {
		t.Error("expected error for unreadable secret file")
	}
}

func TestSecureCompare(t *testing.T) {
	if !secureCompare("abc", "abc") || secureCompare("abc", "abd") || secureCompare("abc", "ab") {
		t.Error("secureCompare mismatch")
	}
}
