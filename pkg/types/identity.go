package types

import (
	"context"
	"errors"
)

// Display-only roles. Roles never gate an operation; deletion rights derive
// from row creatorship, not from the role.
const (
	RoleEmployee = "employee"
	RoleCEO      = "ceo"
	RoleCGO      = "cgo"
	RoleCTO      = "cto"
)

// Identity is a verified user of the portal.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Authenticator yields a verified identity or fails. The login protocol
// (OAuth redirect, SSO proxy headers, static dev users) is the
// implementation's business; the core consumes only the resulting identity.
type Authenticator interface {
	Login(ctx context.Context) (Identity, error)
}

// Authentication errors.
var (
	ErrMissingEmail     = errors.New("identity has no email")
	ErrDomainNotAllowed = errors.New("email domain not allowed")
)
