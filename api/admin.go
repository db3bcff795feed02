package api

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminPasswordHeader carries the admin password on master-data writes.
const AdminPasswordHeader = "X-Admin-Password"

// AdminGate protects catalog, directory and scenario writes with a single
// shared password. An empty hash leaves the gate open.
type AdminGate struct {
	hash   []byte
	logger *zap.Logger
}

// NewAdminGate creates a gate from a bcrypt hash.
func NewAdminGate(hash string, logger *zap.Logger) *AdminGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminGate{hash: []byte(hash), logger: logger}
}

// HashPassword returns the bcrypt hash used to configure a gate from a
// plain password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Enabled reports whether a password is required.
func (g *AdminGate) Enabled() bool {
	return g != nil && len(g.hash) > 0
}

// Middleware rejects requests without the right password with 401.
func (g *AdminGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		password := r.Header.Get(AdminPasswordHeader)
		if password == "" {
			writeError(w, http.StatusUnauthorized, "Admin password required", nil)
			return
		}
		if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
			g.logger.Warn("admin password rejected",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr))
			writeError(w, http.StatusUnauthorized, "Invalid admin password", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
