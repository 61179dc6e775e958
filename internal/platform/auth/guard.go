package auth

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNotVisible means the caller may not see the entity. Services translate it
// into their not-found error so that foreign and missing ids look the same.
var ErrNotVisible = errors.New("entity not visible to caller")

// RequireParent passes when p is a parent who owns the entity.
func RequireParent(p Principal, ownerID uuid.UUID) error {
	if p.Role != RoleParent || p.UserID == uuid.Nil || p.UserID != ownerID {
		return ErrNotVisible
	}
	return nil
}

// RequireClinic passes when p is a clinic account targeted by the entity.
func RequireClinic(p Principal, clinicID string) error {
	if p.Role != RoleClinic || p.ClinicID == "" || p.ClinicID != clinicID {
		return ErrNotVisible
	}
	return nil
}
