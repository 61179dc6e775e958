package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kindercare/kindercare/internal/domain/cases"
	"github.com/kindercare/kindercare/internal/domain/child"
	"github.com/kindercare/kindercare/internal/platform/apperr"
	"github.com/kindercare/kindercare/internal/platform/auth"
	"github.com/kindercare/kindercare/pkg/pagination"
)

// maxClinicIDLen is the width of appointment.clinic_id.
const maxClinicIDLen = 64

type ChildFinder interface {
	Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*child.Child, error)
}

type CaseFinder interface {
	GetForParent(ctx context.Context, p auth.Principal, id uuid.UUID) (*cases.Case, error)
}

type Service struct {
	repo     Repository
	children ChildFinder
	cases    CaseFinder
}

func NewService(repo Repository, children ChildFinder, cases CaseFinder) *Service {
	return &Service{repo: repo, children: children, cases: cases}
}

// Request creates an appointment request. A linked case must belong to the
// same parent and child.
func (s *Service) Request(ctx context.Context, p auth.Principal, in CreateInput) (*Appointment, error) {
	if p.Role != auth.RoleParent {
		return nil, apperr.Forbidden("only parents can request appointments")
	}
	if in.ChildID == uuid.Nil {
		return nil, apperr.Validation("childId is required")
	}
	clinicID := strings.TrimSpace(in.ClinicID)
	if clinicID == "" {
		return nil, apperr.Validation("clinicId is required")
	}
	if utf8.RuneCountInString(clinicID) > maxClinicIDLen {
		return nil, apperr.Field("clinicId", fmt.Sprintf("must be at most %d characters", maxClinicIDLen))
	}
	if len(in.PreferredSlots) == 0 {
		return nil, apperr.Field("preferredSlots", "at least one slot is required")
	}
	for _, slot := range in.PreferredSlots {
		if slot.IsZero() {
			return nil, apperr.Field("preferredSlots", "must be valid timestamps")
		}
	}

	if _, err := s.children.Get(ctx, p, in.ChildID); child.IsNotFound(err) {
		return nil, ErrChildAccess
	} else if err != nil {
		return nil, err
	}

	if in.CaseID != nil {
		c, err := s.cases.GetForParent(ctx, p, *in.CaseID)
		if errors.Is(err, cases.ErrNotFound) {
			return nil, ErrCaseAccess
		}
		if err != nil {
			return nil, err
		}
		if c.ChildID != in.ChildID {
			return nil, ErrCaseAccess
		}
	}

	a := &Appointment{
		ParentID:       p.UserID,
		ChildID:        in.ChildID,
		ClinicID:       clinicID,
		CaseID:         in.CaseID,
		PreferredSlots: in.PreferredSlots,
		Status:         StatusRequested,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) forParent(ctx context.Context, p auth.Principal, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireParent(p, a.ParentID); err != nil {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *Service) forClinic(ctx context.Context, p auth.Principal, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireClinic(p, a.ClinicID); err != nil {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *Service) GetForParent(ctx context.Context, p auth.Principal, id uuid.UUID) (*Appointment, error) {
	return s.forParent(ctx, p, id)
}

func (s *Service) GetForClinic(ctx context.Context, p auth.Principal, id uuid.UUID) (*Appointment, error) {
	return s.forClinic(ctx, p, id)
}

func (s *Service) ListForParent(ctx context.Context, p auth.Principal, status Status, pg pagination.Params) ([]*Appointment, int, error) {
	if p.Role != auth.RoleParent {
		return nil, 0, apperr.Forbidden("required role: PARENT")
	}
	return s.repo.Search(ctx, Filter{ParentID: &p.UserID, Status: status}, pg.Limit, pg.Offset)
}

func (s *Service) ListForClinic(ctx context.Context, p auth.Principal, status Status, pg pagination.Params) ([]*Appointment, int, error) {
	if p.Role != auth.RoleClinic || p.ClinicID == "" {
		return nil, 0, apperr.Forbidden("clinic account required")
	}
	return s.repo.Search(ctx, Filter{ClinicID: p.ClinicID, Status: status}, pg.Limit, pg.Offset)
}

// CancelByParent withdraws a request that has not been completed or cancelled.
func (s *Service) CancelByParent(ctx context.Context, p auth.Principal, id uuid.UUID) (*Appointment, error) {
	a, err := s.forParent(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, a, ActionParentCancel, p.Role, nil)
}

// Approve confirms the appointment for d.ConfirmedSlot.
func (s *Service) Approve(ctx context.Context, p auth.Principal, id uuid.UUID, d Decision) (*Appointment, error) {
	return s.decide(ctx, p, id, ActionApprove, d)
}

// Reschedule proposes a different slot than the parent asked for.
func (s *Service) Reschedule(ctx context.Context, p auth.Principal, id uuid.UUID, d Decision) (*Appointment, error) {
	return s.decide(ctx, p, id, ActionReschedule, d)
}

func (s *Service) decide(ctx context.Context, p auth.Principal, id uuid.UUID, action Action, d Decision) (*Appointment, error) {
	if d.ConfirmedSlot == nil || d.ConfirmedSlot.IsZero() {
		return nil, apperr.Validation("confirmedSlot is required")
	}
	a, err := s.forClinic(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, a, action, p.Role, func(a *Appointment) {
		slot := *d.ConfirmedSlot
		a.ConfirmedSlot = &slot
		if d.ClinicMessage != nil {
			a.ClinicMessage = d.ClinicMessage
		}
	})
}

// CancelByClinic cancels from any status. The confirmed slot is kept.
func (s *Service) CancelByClinic(ctx context.Context, p auth.Principal, id uuid.UUID, message *string) (*Appointment, error) {
	a, err := s.forClinic(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, a, ActionClinicCancel, p.Role, func(a *Appointment) {
		if message != nil {
			a.ClinicMessage = message
		}
	})
}

// Complete marks a confirmed or rescheduled appointment as attended.
func (s *Service) Complete(ctx context.Context, p auth.Principal, id uuid.UUID) (*Appointment, error) {
	a, err := s.forClinic(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, a, ActionComplete, p.Role, nil)
}

func (s *Service) apply(ctx context.Context, a *Appointment, action Action, role auth.Role, mutate func(*Appointment)) (*Appointment, error) {
	from := a.Status
	next, err := Next(from, action, role)
	if err != nil {
		return nil, err
	}
	a.Status = next
	if mutate != nil {
		mutate(a)
	}
	if err := s.repo.Update(ctx, a, from); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("appointment_id", a.ID.String()).
		Str("from", string(from)).
		Str("to", string(next)).
		Msg("appointment status changed")
	return a, nil
}
