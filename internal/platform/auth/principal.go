package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleParent Role = "PARENT"
	RoleClinic Role = "CLINIC"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleParent, RoleClinic, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Principal is the authenticated caller. It is passed explicitly into every
// lifecycle operation.
type Principal struct {
	UserID   uuid.UUID
	Role     Role
	ClinicID string
}

type contextKey string

const (
	principalKey contextKey = "principal"
	claimsKey    contextKey = "claims"
)

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal set by JWTMiddleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// ClaimsFromContext returns the verified token claims, used by logout.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}
