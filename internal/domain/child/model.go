package child

import (
	"time"

	"github.com/google/uuid"

	"github.com/kindercare/kindercare/internal/platform/apperr"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Child is a parent-owned profile. Cases and appointments reference it.
type Child struct {
	ID        uuid.UUID `json:"id"`
	ParentID  uuid.UUID `json:"parentId"`
	Name      string    `json:"name"`
	AgeMonths int       `json:"ageMonths"`
	Gender    Gender    `json:"gender"`
	WeightKg  *float64  `json:"weightKg,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrNotFound = apperr.NotFound("Child not found")
	ErrInUse    = apperr.Conflict("Child is referenced by cases or appointments")
)

type CreateInput struct {
	Name      string   `json:"name"`
	AgeMonths *int     `json:"ageMonths"`
	Gender    Gender   `json:"gender"`
	WeightKg  *float64 `json:"weightKg"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name      *string  `json:"name"`
	AgeMonths *int     `json:"ageMonths"`
	Gender    *Gender  `json:"gender"`
	WeightKg  *float64 `json:"weightKg"`
}
