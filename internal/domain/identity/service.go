package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kindercare/kindercare/internal/platform/apperr"
	"github.com/kindercare/kindercare/internal/platform/auth"
	"github.com/kindercare/kindercare/pkg/pagination"
)

type Service struct {
	repo        Repository
	tokens      *auth.TokenIssuer
	revocations auth.RevocationStore
}

func NewService(repo Repository, tokens *auth.TokenIssuer, revocations auth.RevocationStore) *Service {
	return &Service{repo: repo, tokens: tokens, revocations: revocations}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a PARENT or CLINIC account and signs a token for it.
// A clinic without an explicit clinicId is identified by its own user id.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" || in.Role == "" {
		return nil, apperr.Validation("email, password, role are required")
	}
	role, err := auth.ParseRole(in.Role)
	if err != nil {
		return nil, apperr.Field("role", "must be PARENT or CLINIC")
	}
	if role == auth.RoleAdmin {
		return nil, apperr.Forbidden("admin accounts cannot self-register")
	}

	u := &User{ID: uuid.New(), Name: strings.TrimSpace(in.Name), Email: email, Role: role, IsActive: true}
	if role == auth.RoleClinic {
		clinicID := strings.TrimSpace(in.ClinicID)
		if clinicID == "" {
			clinicID = u.ID.String()
		}
		if utf8.RuneCountInString(clinicID) > maxClinicIDLen {
			return nil, apperr.Field("clinicId", fmt.Sprintf("must be at most %d characters", maxClinicIDLen))
		}
		u.ClinicID = &clinicID
	}

	if err := s.create(ctx, u, in.Password); err != nil {
		return nil, err
	}
	return s.session(u)
}

// CreateAdmin provisions an ADMIN account. It is reachable from the CLI only.
func (s *Service) CreateAdmin(ctx context.Context, name, email, password string) (*User, error) {
	u := &User{ID: uuid.New(), Name: strings.TrimSpace(name), Email: normalizeEmail(email), Role: auth.RoleAdmin, IsActive: true}
	if u.Email == "" {
		return nil, apperr.Field("email", "is required")
	}
	if err := s.create(ctx, u, password); err != nil {
		return nil, err
	}
	return u, nil
}

// Column widths of app_user.
const (
	maxNameLen     = 200
	maxEmailLen    = 320
	maxClinicIDLen = 64
)

func (s *Service) create(ctx context.Context, u *User, password string) error {
	if len(password) < auth.MinPasswordLength {
		return apperr.Field("password", fmt.Sprintf("must be at least %d characters", auth.MinPasswordLength))
	}
	if len(password) > auth.MaxPasswordLength {
		return apperr.Field("password", fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordLength))
	}
	if utf8.RuneCountInString(u.Name) > maxNameLen {
		return apperr.Field("name", fmt.Sprintf("must be at most %d characters", maxNameLen))
	}
	if utf8.RuneCountInString(u.Email) > maxEmailLen {
		return apperr.Field("email", fmt.Sprintf("must be at most %d characters", maxEmailLen))
	}
	if _, err := s.repo.GetByEmail(ctx, u.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return s.repo.Create(ctx, u)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	ok, err := auth.CheckPassword(u.PasswordHash, in.Password)
	if err != nil {
		return nil, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return s.session(u)
}

// Logout revokes the presented token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return apperr.Unauthorized("authentication required")
	}
	if claims.ExpiresAt == nil {
		return apperr.Unauthorized("invalid token")
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.Subject, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *Service) Me(ctx context.Context, p auth.Principal) (*User, error) {
	return s.repo.GetByID(ctx, p.UserID)
}

func (s *Service) ListClinics(ctx context.Context, q string, pg pagination.Params) ([]Clinic, int, error) {
	users, total, err := s.repo.ListClinics(ctx, strings.TrimSpace(q), pg.Limit, pg.Offset)
	if err != nil {
		return nil, 0, err
	}
	clinics := make([]Clinic, 0, len(users))
	for _, u := range users {
		c := Clinic{ClinicID: u.ID.String(), ClinicName: u.Name, Email: u.Email}
		if u.ClinicID != nil {
			c.ClinicID = *u.ClinicID
		}
		clinics = append(clinics, c)
	}
	return clinics, total, nil
}

func (s *Service) session(u *User) (*Session, error) {
	tok, err := s.tokens.Issue(u.Principal())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: tok.Token, ExpiresAt: tok.ExpiresAt, User: u}, nil
}
