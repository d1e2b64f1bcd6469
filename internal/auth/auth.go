// Package auth verifies identities against the portal's allowed email
// domains and resolves display-only roles. The login protocol itself (OAuth
// redirect, SSO proxy) lives outside this module; callers hand in an email
// and display name they already trust and get back a verified Identity.
package auth

import (
	"context"
	"strings"

	"github.com/med-x/opsportal/pkg/types"
)

// Verifier checks emails against an allowed-domain list and assigns roles
// from a configured map. An empty domain list rejects everything; roles
// default to employee.
type Verifier struct {
	domains []string
	roles   map[string]string
}

// NewVerifier builds a Verifier from config values.
func NewVerifier(domains []string, roles map[string]string) *Verifier {
	return &Verifier{domains: domains, roles: roles}
}

// Verify normalizes the email, checks its domain, and resolves the role.
// The name falls back to the email's local part when the provider sent none.
func (v *Verifier) Verify(email, name string) (types.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return types.Identity{}, types.ErrMissingEmail
	}
	if !v.AllowedEmail(email) {
		return types.Identity{}, types.ErrDomainNotAllowed
	}
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}

	role := v.roles[email]
	if role == "" {
		role = types.RoleEmployee
	}
	return types.Identity{Email: email, Name: name, Role: role}, nil
}

// AllowedEmail reports whether the email belongs to an allowed domain.
func (v *Verifier) AllowedEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, d := range v.domains {
		if domain == strings.ToLower(d) {
			return true
		}
	}
	return false
}

// Static is an Authenticator that always yields the same pre-verified
// identity. Used by the CLI, where the acting user comes from config or a
// flag rather than a login flow.
type Static struct {
	Identity types.Identity
}

// Login returns the configured identity.
func (s Static) Login(ctx context.Context) (types.Identity, error) {
	if s.Identity.Email == "" {
		return types.Identity{}, types.ErrMissingEmail
	}
	return s.Identity, nil
}

// Compile-time interface check.
var _ types.Authenticator = Static{}
