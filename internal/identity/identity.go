// Package identity resolves the authenticated principal behind a request.
// The order core never trusts caller-supplied ids; every operation starts
// from the principal the provider vouches for.
package identity

import (
	"context"
	"errors"
)

// ErrUnauthenticated indicates no principal could be resolved. Every
// operation in the order core aborts immediately on it.
var ErrUnauthenticated = errors.New("unauthenticated")

// Role distinguishes the two storefront audiences.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
)

// Principal is a stable authenticated identity.
type Principal struct {
	ID   string
	Role Role
}

// Provider turns an opaque credential into a Principal.
type Provider interface {
	// Authenticate resolves the principal for a bearer credential.
	// ErrUnauthenticated when the credential is missing, invalid or expired.
	Authenticate(ctx context.Context, credential string) (Principal, error)
}
