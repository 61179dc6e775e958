package identity

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// ListClinics returns CLINIC accounts whose name contains q, ordered by name.
	ListClinics(ctx context.Context, q string, limit, offset int) ([]*User, int, error)
}
