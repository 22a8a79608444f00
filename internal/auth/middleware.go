package auth

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// Middleware validates JWTs and checks the role against the charge action of each request.
type Middleware struct {
	Secret []byte
	Policy Policy
	Logger logrus.FieldLogger
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(secret []byte, policy Policy, logger logrus.FieldLogger) *Middleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Middleware{Secret: secret, Policy: policy, Logger: logger}
}

// Wrap applies auth and RBAC to the handler.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}

		action, ok := m.Policy.Action(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := ParseJWT(extractBearer(r), m.Secret)
		if err != nil {
			m.Logger.WithError(err).WithField("path", r.URL.Path).Debug("rejected bearer token")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		role, _ := NormalizeRole(claims.Role)
		ctx := WithIdentity(r.Context(), claims.TenantID, role, claims.Subject)
		if !Can(role, action) {
			m.Logger.WithFields(logrus.Fields{
				"path":    r.URL.Path,
				"role":    role,
				"action":  action,
				"subject": claims.Subject,
			}).Info("forbidden by role policy")
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearer(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
