package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Search(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	// Update writes status, confirmed slot and message of a when the stored
	// row is still in from. It returns ErrStale otherwise.
	Update(ctx context.Context, a *Appointment, from Status) error
}
