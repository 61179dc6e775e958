package cases

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Case) error
	// GetByID loads the case with its notes in insertion order.
	GetByID(ctx context.Context, id uuid.UUID) (*Case, error)
	Search(ctx context.Context, f Filter, limit, offset int) ([]*Case, int, error)
	// UpdateStatus moves the case from one status to another and returns the
	// new updated_at. It returns ErrStale when the case is no longer in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (time.Time, error)
	AddNote(ctx context.Context, n *Note) error
	// AppendAttachment appends a while the case is still in status.
	AppendAttachment(ctx context.Context, id uuid.UUID, status Status, a Attachment) error
}
