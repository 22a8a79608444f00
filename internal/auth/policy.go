package auth

import (
	"net/http"
	"strings"
)

// Policy decides which requests skip auth and which charge action a request performs.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if r.Method == http.MethodOptions {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// Action maps a charge API request to the action it performs. Requests outside the
// API report false and pass through unauthenticated.
func (p Policy) Action(r *http.Request) (Action, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path
	if !strings.HasPrefix(path, "/api/") {
		return "", false
	}
	read := r.Method == http.MethodGet || r.Method == http.MethodHead

	switch {
	case strings.HasPrefix(path, "/api/v1/charges/") && strings.HasSuffix(path, "/void"):
		return ActionVoidCharge, true
	case strings.HasPrefix(path, "/api/v1/charges/") && strings.Contains(path, "/export."):
		return ActionExportCharge, true
	case strings.HasSuffix(path, "/charges/preview"):
		return ActionPreviewCharge, true
	case read:
		return ActionReadCharges, true
	default:
		return ActionIssueCharge, true
	}
}
