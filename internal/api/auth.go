package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/AaronLay10/ScratchyEngine/internal/config"
)

// Role represents an authorization role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleLearner Role = "learner"
)

type credentials struct {
	user string
	pass string
}

func (c credentials) set() bool { return c.user != "" && c.pass != "" }

func (c credentials) match(user, pass string) bool {
	return c.set() && secureCompare(user, c.user) && secureCompare(pass, c.pass)
}

// authConfig holds credentials loaded from the environment.
type authConfig struct {
	admin   credentials
	learner credentials
	enabled bool
}

var auth *authConfig

// InitAuth loads credentials from SCRATCHY_{ADMIN,LEARNER}_{USER,PASS},
// honouring the *_FILE convention. With no admin credentials set,
// authentication is disabled.
func InitAuth() error {
	var vals [4]string
	for i, key := range []string{
		"SCRATCHY_ADMIN_USER", "SCRATCHY_ADMIN_PASS",
		"SCRATCHY_LEARNER_USER", "SCRATCHY_LEARNER_PASS",
	} {
		v, err := config.ResolveSecret(key)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", key, err)
		}
		vals[i] = v
	}

	admin := credentials{user: vals[0], pass: vals[1]}
	auth = &authConfig{
		admin:   admin,
		learner: credentials{user: vals[2], pass: vals[3]},
		enabled: admin.set(),
	}
	return nil
}

// IsAuthEnabled returns true if authentication is configured.
func IsAuthEnabled() bool {
	return auth != nil && auth.enabled
}

// authenticate returns the caller's role, or "" for bad credentials.
func authenticate(r *http.Request) Role {
	if !IsAuthEnabled() {
		return RoleAdmin
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return ""
	}
	switch {
	case auth.admin.match(user, pass):
		return RoleAdmin
	case auth.learner.match(user, pass):
		return RoleLearner
	}
	return ""
}

// secureCompare performs constant-time string comparison.
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func requireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Scratchy Playground"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// RequireRole wraps a handler and requires one of the specified roles.
func RequireRole(handler http.HandlerFunc, allowedRoles ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := authenticate(r)
		if role == "" {
			requireAuth(w)
			return
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				handler(w, r)
				return
			}
		}
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

// RequireAnyRole wraps a handler requiring admin or learner role.
func RequireAnyRole(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin, RoleLearner)
}

// RequireAdmin wraps a handler requiring admin role only.
func RequireAdmin(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin)
}
