package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/kindercare/kindercare/internal/platform/apperr"
	"github.com/kindercare/kindercare/internal/platform/auth"
)

// User is an account. Role is fixed at registration.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	ClinicID     *string   `json:"clinicId"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Principal returns the authenticated identity of u.
func (u *User) Principal() auth.Principal {
	p := auth.Principal{UserID: u.ID, Role: u.Role}
	if u.ClinicID != nil {
		p.ClinicID = *u.ClinicID
	}
	return p
}

// Clinic is the public directory entry for a CLINIC account.
type Clinic struct {
	ClinicID   string `json:"clinicId"`
	ClinicName string `json:"clinicName"`
	Email      string `json:"email"`
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	ClinicID string `json:"clinicId"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is returned by register and login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

var (
	ErrNotFound           = apperr.NotFound("User not found")
	ErrEmailTaken         = apperr.Conflict("Email already exists")
	ErrInvalidCredentials = apperr.Unauthorized("Invalid credentials")
	ErrAccountDisabled    = apperr.Forbidden("Account disabled")
)
