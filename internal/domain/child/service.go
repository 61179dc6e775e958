package child

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
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateInput) (*Child, error) {
	if p.Role != auth.RoleParent {
		return nil, apperr.Forbidden("only parents can register children")
	}
	c := &Child{ParentID: p.UserID, Name: strings.TrimSpace(in.Name), Gender: in.Gender, WeightKg: in.WeightKg}
	if in.AgeMonths == nil {
		return nil, apperr.Field("ageMonths", "is required")
	}
	c.AgeMonths = *in.AgeMonths
	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the child if p owns it. Foreign children report ErrNotFound.
func (s *Service) Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*Child, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireParent(p, c.ParentID); err != nil {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, p auth.Principal, pg pagination.Params) ([]*Child, int, error) {
	return s.repo.ListByParent(ctx, p.UserID, pg.Limit, pg.Offset)
}

func (s *Service) Update(ctx context.Context, p auth.Principal, id uuid.UUID, in UpdateInput) (*Child, error) {
	c, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.AgeMonths != nil {
		c.AgeMonths = *in.AgeMonths
	}
	if in.Gender != nil {
		c.Gender = *in.Gender
	}
	if in.WeightKg != nil {
		c.WeightKg = in.WeightKg
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes the child. Children referenced by a case or appointment
// cannot be removed and report ErrInUse.
func (s *Service) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if _, err := s.Get(ctx, p, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Bounds of the child table columns.
const (
	maxNameLen  = 200
	maxWeightKg = 9999.99
)

func validate(c *Child) error {
	if c.Name == "" {
		return apperr.Field("name", "is required")
	}
	if utf8.RuneCountInString(c.Name) > maxNameLen {
		return apperr.Field("name", fmt.Sprintf("must be at most %d characters", maxNameLen))
	}
	if c.AgeMonths < 0 {
		return apperr.Field("ageMonths", "must not be negative")
	}
	if !c.Gender.Valid() {
		return apperr.Field("gender", "must be one of male, female, other")
	}
	if c.WeightKg != nil && (*c.WeightKg < 0 || *c.WeightKg > maxWeightKg) {
		return apperr.Field("weightKg", fmt.Sprintf("must be between 0 and %g", maxWeightKg))
	}
	return nil
}

// IsNotFound reports whether err means the child is absent or not owned by
// the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
