package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/kindercare/kindercare/internal/platform/apperr"
)

type Status string

const (
	StatusRequested   Status = "REQUESTED"
	StatusConfirmed   Status = "CONFIRMED"
	StatusRescheduled Status = "RESCHEDULED"
	StatusCancelled   Status = "CANCELLED"
	StatusCompleted   Status = "COMPLETED"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusRequested, StatusConfirmed, StatusRescheduled, StatusCancelled, StatusCompleted:
		return st, nil
	}
	return "", ErrInvalidStatus
}

type Appointment struct {
	ID             uuid.UUID   `json:"id"`
	ParentID       uuid.UUID   `json:"parentId"`
	ChildID        uuid.UUID   `json:"childId"`
	ClinicID       string      `json:"clinicId"`
	CaseID         *uuid.UUID  `json:"caseId,omitempty"`
	PreferredSlots []time.Time `json:"preferredSlots"`
	ConfirmedSlot  *time.Time  `json:"confirmedSlot,omitempty"`
	ClinicMessage  *string     `json:"clinicMessage,omitempty"`
	Status         Status      `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

type Filter struct {
	ParentID *uuid.UUID
	ClinicID string
	Status   Status
}

type CreateInput struct {
	ChildID        uuid.UUID   `json:"childId"`
	ClinicID       string      `json:"clinicId"`
	CaseID         *uuid.UUID  `json:"caseId"`
	PreferredSlots []time.Time `json:"preferredSlots"`
}

// Decision is the clinic's answer to a request.
type Decision struct {
	ConfirmedSlot *time.Time `json:"confirmedSlot"`
	ClinicMessage *string    `json:"clinicMessage"`
}

var (
	ErrNotFound      = apperr.NotFound("Appointment not found")
	ErrInvalidStatus = apperr.Validation("Invalid status")
	ErrChildAccess   = apperr.Forbidden("Invalid child access")
	ErrCaseAccess    = apperr.Forbidden("Invalid case access")
	ErrStale         = apperr.Conflict("Appointment was modified concurrently")
)
